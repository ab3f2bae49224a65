// Package add реализует HTTP-обработчик добавления товара в корзину.
package add

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// Service добавляет товары в корзину.
type Service interface {
	Add(ctx context.Context, sessionID, productID string) (int, error)
}

// Handler обрабатывает POST /cart/items/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Добавить товар в корзину
// @Description Увеличивает количество товара в корзине сессии на единицу.
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /cart/items/{id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.add"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Warn("session missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	productID := chi.URLParam(r, "id")
	if productID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("product id is required"))
		return
	}

	qty, err := h.service.Add(r.Context(), sessionID, productID)
	if errors.Is(err, storage.ErrProductNotFound) {
		log.Info("product not found", slog.String("product_id", productID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("product not found"))
		return
	}
	if err != nil {
		log.Error("failed to add product to cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update cart"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"product_id": productID,
		"quantity":   qty,
		"message":    "product added to cart",
	}))
}
