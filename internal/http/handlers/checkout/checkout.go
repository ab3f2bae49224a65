// Package checkout реализует HTTP-обработчик оформления заказа.
//
// Корзина текущей сессии оформляется одной транзакцией. В ответе перечислены
// оформленные заказы, пропущенные товары (их нет в каталоге) и отклонённые
// строки (не хватило остатка).
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	checkoutservices "github.com/magabrotheeeer/storefront/internal/services/checkout"
)

// Request способ оплаты, произвольная подпись.
type Request struct {
	PaymentMethod string `json:"payment_method" validate:"required,min=1,max=64"`
}

// Service оформляет корзину.
type Service interface {
	PlaceOrder(ctx context.Context, sessionID, username, paymentMethod string) (*models.CheckoutResult, error)
}

// Handler обрабатывает POST /checkout.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Оформление заказа
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Способ оплаты"
// @Success 200 {object} response.Response{data=models.CheckoutResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Корзина пуста"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, okUser := middlewarectx.UsernameFrom(r.Context())
	sessionID, okSession := middlewarectx.SessionFrom(r.Context())
	if !okUser || !okSession {
		log.Warn("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.PlaceOrder(r.Context(), sessionID, username, req.PaymentMethod)
	if errors.Is(err, checkoutservices.ErrEmptyCart) {
		log.Info("checkout with empty cart", slog.String("username", username))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("cart is empty"))
		return
	}
	if err != nil {
		log.Error("failed to place order", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to place order"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
