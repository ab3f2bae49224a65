package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/password"
	"github.com/magabrotheeeer/storefront/internal/models"
	services "github.com/magabrotheeeer/storefront/internal/services/auth"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) Create(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	return m.Called(ctx, sessionID, username, ttl).Error(0)
}

func (m *SessionStoreMock) Get(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *SessionStoreMock) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username, role, sessionID string) (string, error) {
	args := m.Called(username, role, sessionID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func (m *JwtMakerMock) TTL() time.Duration {
	return time.Hour
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock)
		wantUID    string
		wantErr    error
		errMsg     string
	}{
		{
			name: "successful registration",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Username == "alice" && u.Role == models.RoleUser &&
						password.CompareHash(u.PasswordHash, "secret1") == nil
				})).Return("uid-1", nil).Once()
			},
			wantUID: "uid-1",
		},
		{
			name: "duplicate username",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return("", storage.ErrUserExists).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "repository error",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return("", errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := services.NewAuthService(repo, new(SessionStoreMock), new(JwtMakerMock), newNoopLogger())
			tt.setupMocks(repo)

			got, err := svc.Register(context.Background(), "alice", "secret1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				assert.ErrorContains(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	user := &models.User{Username: "alice", PasswordHash: hashedPassword, Role: models.RoleUser}
	admin := &models.User{Username: "root", PasswordHash: hashedPassword, Role: models.RoleAdmin}

	tests := []struct {
		name       string
		adminOnly  bool
		username   string
		password   string
		setupMocks func(r *UserRepoMock, s *SessionStoreMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, s *SessionStoreMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()
				j.On("GenerateToken", "alice", models.RoleUser, mock.AnythingOfType("string")).Return("jwt-token", nil).Once()
				s.On("Create", mock.Anything, mock.AnythingOfType("string"), "alice", time.Hour).Return(nil).Once()
			},
			wantToken: "jwt-token",
		},
		{
			name:     "unknown user",
			username: "ghost",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "wrong",
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:      "admin login rejects regular user",
			adminOnly: true,
			username:  "alice",
			password:  rawPassword,
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:      "admin login",
			adminOnly: true,
			username:  "root",
			password:  rawPassword,
			setupMocks: func(r *UserRepoMock, s *SessionStoreMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "root").Return(admin, nil).Once()
				j.On("GenerateToken", "root", models.RoleAdmin, mock.AnythingOfType("string")).Return("admin-token", nil).Once()
				s.On("Create", mock.Anything, mock.AnythingOfType("string"), "root", time.Hour).Return(nil).Once()
			},
			wantToken: "admin-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			sessions := new(SessionStoreMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, sessions, jwtMock, newNoopLogger())
			tt.setupMocks(repo, sessions, jwtMock)

			login := svc.Login
			if tt.adminOnly {
				login = svc.AdminLogin
			}
			token, err := login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			sessions.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	claims := &customjwt.CustomClaims{Username: "alice", Role: models.RoleUser}
	claims.ID = "sid-1"

	tests := []struct {
		name       string
		setupMocks func(s *SessionStoreMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name: "valid",
			setupMocks: func(s *SessionStoreMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(claims, nil).Once()
				s.On("Get", mock.Anything, "sid-1").Return("alice", nil).Once()
			},
		},
		{
			name: "bad signature",
			setupMocks: func(_ *SessionStoreMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(nil, errors.New("signature is invalid")).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
		{
			name: "session closed",
			setupMocks: func(s *SessionStoreMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(claims, nil).Once()
				s.On("Get", mock.Anything, "sid-1").Return("", storage.ErrSessionNotFound).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
		{
			name: "session of another user",
			setupMocks: func(s *SessionStoreMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(claims, nil).Once()
				s.On("Get", mock.Anything, "sid-1").Return("bob", nil).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(SessionStoreMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(new(UserRepoMock), sessions, jwtMock, newNoopLogger())
			tt.setupMocks(sessions, jwtMock)

			got, err := svc.ValidateToken(context.Background(), "tok")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Username)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	sessions := new(SessionStoreMock)
	sessions.On("Delete", mock.Anything, "sid-1").Return(nil).Once()
	svc := services.NewAuthService(new(UserRepoMock), sessions, new(JwtMakerMock), newNoopLogger())

	require.NoError(t, svc.Logout(context.Background(), "sid-1"))
	sessions.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "admin").Return(nil, storage.ErrUserNotFound).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Username == "admin" && u.Role == models.RoleAdmin
		})).Return("uid-admin", nil).Once()
		svc := services.NewAuthService(repo, new(SessionStoreMock), new(JwtMakerMock), newNoopLogger())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin123"))
		repo.AssertExpectations(t)
	})

	t.Run("existing admin is kept", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "admin").
			Return(&models.User{Username: "admin", Role: models.RoleAdmin}, nil).Once()
		svc := services.NewAuthService(repo, new(SessionStoreMock), new(JwtMakerMock), newNoopLogger())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin123"))
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("missing password", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "admin").Return(nil, storage.ErrUserNotFound).Once()
		svc := services.NewAuthService(repo, new(SessionStoreMock), new(JwtMakerMock), newNoopLogger())

		assert.ErrorContains(t, svc.EnsureAdmin(context.Background(), "admin", ""), "admin password is not configured")
	})
}
