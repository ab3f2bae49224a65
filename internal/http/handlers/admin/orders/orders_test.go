package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.OrderView)
	return v, args.Error(1)
}

func TestOrders(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := new(ServiceMock)
	svc.On("ListOrders", mock.Anything).Return([]models.OrderView{
		{Order: models.Order{ID: "o1", Username: "alice", Status: "Confirmed (COD)"}, ProductName: "Mango pickle"},
		{Order: models.Order{ID: "o2", Username: "bob", Status: "Confirmed (Card)"}},
	}, nil).Once()
	rec := httptest.NewRecorder()
	New(log, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Data []models.OrderView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Data, 2)
	assert.Equal(t, "Mango pickle", got.Data[0].ProductName)
	assert.Equal(t, "o1", got.Data[0].ID)
	assert.Empty(t, got.Data[1].ProductName)

	svc = new(ServiceMock)
	svc.On("ListOrders", mock.Anything).Return(nil, errors.New("db error")).Once()
	rec = httptest.NewRecorder()
	New(log, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
