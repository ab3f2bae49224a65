// Package view реализует HTTP-обработчик просмотра корзины.
package view

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service собирает содержимое корзины.
type Service interface {
	View(ctx context.Context, sessionID string) (*models.CartView, error)
}

// Handler обрабатывает GET /cart.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Содержимое корзины
// @Description Строки корзины с актуальными ценами и итогом. Удалённые из каталога товары перечислены в dropped.
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.CartView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /cart [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.view"
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

	cart, err := h.service.View(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to load cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load cart"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(cart))
}
