// Package addproduct реализует добавление товара в каталог из админки.
package addproduct

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	catalogservices "github.com/magabrotheeeer/storefront/internal/services/catalog"
)

// Service создаёт товары.
type Service interface {
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
}

// Handler обрабатывает POST /admin/products.
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
// @Summary Добавить товар
// @Description Цена передаётся строкой и должна быть больше нуля. Без картинки ставится картинка по умолчанию.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProductInput true "Новый товар"
// @Success 201 {object} response.Response{data=models.Product}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/products [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.addproduct"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ProductInput
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

	p, err := h.service.CreateProduct(r.Context(), req)
	if errors.Is(err, catalogservices.ErrInvalidProduct) {
		log.Warn("product rejected", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(strings.TrimPrefix(err.Error(), catalogservices.ErrInvalidProduct.Error()+": ")))
		return
	}
	if err != nil {
		log.Error("failed to create product", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to add product"))
		return
	}

	log.Info("product added", slog.String("id", p.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}
