// Package list реализует HTTP-обработчик витрины: список всех товаров.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service отдаёт каталог.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
}

// StockService отдаёт остатки прямо из хранилища.
type StockService interface {
	Stock(ctx context.Context) ([]models.Product, error)
}

// Handler обрабатывает GET /products и GET /admin/stock.
type Handler struct {
	log  *slog.Logger
	list func(ctx context.Context) ([]models.Product, error)
	op   string
}

// New создает обработчик витрины. Каталог может отставать от остатков
// на время жизни кеша.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, list: service.List, op: "handlers.catalog.list"}
}

// NewStock создает обработчик складских остатков для админки.
// Остатки читаются мимо кеша.
func NewStock(log *slog.Logger, service StockService) *Handler {
	return &Handler{log: log, list: service.Stock, op: "handlers.admin.stock"}
}

// ServeHTTP godoc
// @Summary Список товаров
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Product}
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products [get]
// @Router /admin/stock [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", h.op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	products, err := h.list(r.Context())
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load products"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(products))
}
