package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

type CartStoreMock struct{ mock.Mock }

func (m *CartStoreMock) Add(ctx context.Context, sessionID, productID string, delta int) (int, error) {
	args := m.Called(ctx, sessionID, productID, delta)
	return args.Int(0), args.Error(1)
}

func (m *CartStoreMock) Lines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CartLine), args.Error(1)
}

type ProductReaderMock struct{ mock.Mock }

func (m *ProductReaderMock) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCartService_Add(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(c *CartStoreMock, p *ProductReaderMock)
		wantQty    int
		wantErr    error
	}{
		{
			name: "increments quantity",
			setupMocks: func(c *CartStoreMock, p *ProductReaderMock) {
				p.On("GetProduct", mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil).Once()
				c.On("Add", mock.Anything, "sid", "p1", 1).Return(2, nil).Once()
			},
			wantQty: 2,
		},
		{
			name: "unknown product never enters the cart",
			setupMocks: func(_ *CartStoreMock, p *ProductReaderMock) {
				p.On("GetProduct", mock.Anything, "p1").Return(nil, storage.ErrProductNotFound).Once()
			},
			wantErr: storage.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts, products := new(CartStoreMock), new(ProductReaderMock)
			tt.setupMocks(carts, products)
			svc := NewCartService(carts, products, newNoopLogger())

			qty, err := svc.Add(context.Background(), "sid", "p1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				carts.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, qty)
		})
	}
}

func TestCartService_View(t *testing.T) {
	mango := &models.Product{ID: "p1", Name: "Mango pickle", Price: decimal.RequireFromString("150.50")}
	lime := &models.Product{ID: "p2", Name: "Lime pickle", Price: decimal.RequireFromString("99.99")}

	carts, products := new(CartStoreMock), new(ProductReaderMock)
	carts.On("Lines", mock.Anything, "sid").Return([]models.CartLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "gone", Quantity: 5},
		{ProductID: "p2", Quantity: 1},
	}, nil).Once()
	products.On("GetProduct", mock.Anything, "p1").Return(mango, nil)
	products.On("GetProduct", mock.Anything, "p2").Return(lime, nil)
	products.On("GetProduct", mock.Anything, "gone").Return(nil, storage.ErrProductNotFound)
	svc := NewCartService(carts, products, newNoopLogger())

	view, err := svc.View(context.Background(), "sid")
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, "Lime pickle", view.Items[0].Product.Name)
	assert.Equal(t, "Mango pickle", view.Items[1].Product.Name)
	assert.True(t, decimal.RequireFromString("301").Equal(view.Items[1].Subtotal))
	assert.Equal(t, "400.99", view.Total.StringFixed(2))
	assert.Equal(t, []string{"gone"}, view.Dropped)
}

func TestCartService_View_Empty(t *testing.T) {
	carts := new(CartStoreMock)
	carts.On("Lines", mock.Anything, "sid").Return([]models.CartLine{}, nil).Once()
	svc := NewCartService(carts, new(ProductReaderMock), newNoopLogger())

	view, err := svc.View(context.Background(), "sid")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestCartService_View_StorageError(t *testing.T) {
	carts, products := new(CartStoreMock), new(ProductReaderMock)
	carts.On("Lines", mock.Anything, "sid").Return([]models.CartLine{{ProductID: "p1", Quantity: 1}}, nil).Once()
	products.On("GetProduct", mock.Anything, "p1").Return(nil, errors.New("db error")).Once()
	svc := NewCartService(carts, products, newNoopLogger())

	_, err := svc.View(context.Background(), "sid")
	assert.ErrorContains(t, err, "db error")
}
