package logout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func TestLogout(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		session  string
		mockErr  error
		wantCode int
	}{
		{name: "ok", session: "sid-1", wantCode: http.StatusOK},
		{name: "no session", wantCode: http.StatusUnauthorized},
		{name: "store error", session: "sid-1", mockErr: errors.New("redis down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.session != "" {
				svc.On("Logout", mock.Anything, tt.session).Return(tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodPost, "/logout", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Session, tt.session))
			rec := httptest.NewRecorder()

			New(log, svc).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
