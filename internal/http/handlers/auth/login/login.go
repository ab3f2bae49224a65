// Package login реализует HTTP-обработчики входа покупателя и администратора.
//
// Оба обработчика принимают имя и пароль и при успехе возвращают JWT,
// привязанный к новой сессии. Для администратора дополнительно проверяется роль.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	authservices "github.com/magabrotheeeer/storefront/internal/services/auth"
)

// Request структура входных данных для авторизации.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginFunc выполняет вход и возвращает токен.
type LoginFunc func(ctx context.Context, username, password string) (string, error)

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log        *slog.Logger
	login      LoginFunc
	invalidMsg string
	op         string
	validate   *validator.Validate
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
}

// New создает обработчик POST /login.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:        log,
		login:      service.Login,
		invalidMsg: "invalid credentials",
		op:         "handlers.auth.login",
		validate:   validator.New(),
	}
}

// NewAdmin создает обработчик POST /admin/login.
func NewAdmin(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:        log,
		login:      service.AdminLogin,
		invalidMsg: "invalid admin credentials",
		op:         "handlers.auth.adminlogin",
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по имени и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", h.op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	token, err := h.login(r.Context(), req.Username, req.Password)
	if errors.Is(err, authservices.ErrInvalidCredentials) {
		log.Warn("login rejected", slog.String("username", req.Username))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(h.invalidMsg))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login"))
		return
	}

	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":    token,
		"username": req.Username,
	}))
}
