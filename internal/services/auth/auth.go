// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/password"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserRepository описывает контракт для работы с пользователями в хранилище.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или storage.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// SessionStore хранит активные сессии.
type SessionStore interface {
	Create(ctx context.Context, sessionID, username string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// AuthService отвечает за регистрацию, вход, выход и проверку JWT.
type AuthService struct {
	users    UserRepository
	sessions SessionStore
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, sessions SessionStore, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с ролью "user" и возвращает его ID.
func (s *AuthService) Register(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "services.AuthService.Register"
	return s.createUser(ctx, op, username, rawPassword, models.RoleUser)
}

func (s *AuthService) createUser(ctx context.Context, op, username, rawPassword, role string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, storage.ErrUserExists) {
		return "", ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль, открывает сессию и возвращает JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "services.AuthService.Login"
	return s.login(ctx, op, username, rawPassword, false)
}

// AdminLogin как Login, но пускает только администраторов.
func (s *AuthService) AdminLogin(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "services.AuthService.AdminLogin"
	return s.login(ctx, op, username, rawPassword, true)
}

func (s *AuthService) login(ctx context.Context, op, username, rawPassword string, adminOnly bool) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		_ = password.CompareDummy(rawPassword)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if adminOnly && !user.IsAdmin() {
		return "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role, sessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sessions.Create(ctx, sessionID, user.Username, s.jwtMaker.TTL()); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Logout закрывает сессию и удаляет её корзину.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	const op = "services.AuthService.Logout"
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateToken проверяет подпись JWT и то, что его сессия ещё открыта.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "services.AuthService.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	username, err := s.sessions.Get(ctx, claims.SessionID())
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if username != claims.Username {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureAdmin создаёт администратора, если его ещё нет.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, rawPassword string) error {
	const op = "services.AuthService.EnsureAdmin"
	log := s.log.With(sl.Op(op), slog.String("username", username))

	user, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if !user.IsAdmin() {
			log.Warn("user exists but is not an admin")
		}
		return nil
	case !errors.Is(err, storage.ErrUserNotFound):
		return fmt.Errorf("%s: %w", op, err)
	}
	if rawPassword == "" {
		return fmt.Errorf("%s: admin password is not configured", op)
	}
	if _, err := s.createUser(ctx, op, username, rawPassword, models.RoleAdmin); err != nil {
		return err
	}
	log.Info("admin user created")
	return nil
}
