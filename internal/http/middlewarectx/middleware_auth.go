// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// прав администратора и ограничения частоты запросов.
//
// JWTMiddleware проверяет заголовок Authorization и открытую сессию,
// и в случае успеха добавляет в контекст имя пользователя, роль и id сессии.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	authservices "github.com/magabrotheeeer/storefront/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User ключ для имени пользователя в контексте
	User Key = "username"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
	// Session ключ для id сессии в контексте
	Session Key = "session"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := authService.ValidateToken(r.Context(), tokenStr)
			if errors.Is(err, authservices.ErrInvalidToken) {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if err != nil {
				log.Error("failed to validate token", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, Session, claims.SessionID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFrom возвращает имя пользователя, положенное JWTMiddleware.
func UsernameFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(User).(string)
	return v, ok && v != ""
}

// SessionFrom возвращает id сессии, положенный JWTMiddleware.
func SessionFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(Session).(string)
	return v, ok && v != ""
}
