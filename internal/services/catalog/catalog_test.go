package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateProduct(ctx context.Context, p models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepoMock) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *RepoMock) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *RepoMock) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderView), args.Error(1)
}

func (m *RepoMock) ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *RepoMock) Dashboard(ctx context.Context) (models.Dashboard, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Dashboard), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCatalog_List(t *testing.T) {
	products := []models.Product{{ID: "p1", Name: "Mango pickle", Price: decimal.NewFromInt(150), Quantity: 2}}

	t.Run("cache hit", func(t *testing.T) {
		repo, c := new(RepoMock), new(CacheMock)
		c.On("Get", mock.Anything, cache.CatalogProductsKey, mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*[]models.Product) = products
			}).Return(true, nil).Once()
		svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, products, got)
		repo.AssertNotCalled(t, "ListProducts", mock.Anything)
	})

	t.Run("cache miss fills cache", func(t *testing.T) {
		repo, c := new(RepoMock), new(CacheMock)
		c.On("Get", mock.Anything, cache.CatalogProductsKey, mock.Anything).Return(false, nil).Once()
		repo.On("ListProducts", mock.Anything).Return(products, nil).Once()
		c.On("Set", mock.Anything, cache.CatalogProductsKey, products, time.Minute).Return(nil).Once()
		svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, products, got)
		repo.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("cache failure falls back to storage", func(t *testing.T) {
		repo, c := new(RepoMock), new(CacheMock)
		c.On("Get", mock.Anything, cache.CatalogProductsKey, mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("ListProducts", mock.Anything).Return(products, nil).Once()
		c.On("Set", mock.Anything, cache.CatalogProductsKey, products, time.Minute).Return(errors.New("redis down")).Once()
		svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, products, got)
	})

	t.Run("storage error", func(t *testing.T) {
		repo, c := new(RepoMock), new(CacheMock)
		c.On("Get", mock.Anything, cache.CatalogProductsKey, mock.Anything).Return(false, nil).Once()
		repo.On("ListProducts", mock.Anything).Return(nil, errors.New("db error")).Once()
		svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

		_, err := svc.List(context.Background())
		assert.ErrorContains(t, err, "db error")
	})
}

func TestCatalog_StockBypassesCache(t *testing.T) {
	cached := []models.Product{{ID: "p1", Name: "Mango pickle", Quantity: 5}}
	fresh := []models.Product{{ID: "p1", Name: "Mango pickle", Quantity: 0}}

	repo, c := new(RepoMock), new(CacheMock)
	c.On("Get", mock.Anything, cache.CatalogProductsKey, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*[]models.Product) = cached
		}).Return(true, nil).Maybe()
	repo.On("ListProducts", mock.Anything).Return(fresh, nil).Once()
	svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

	got, err := svc.Stock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCatalog_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		in      models.ProductInput
		wantErr string
		check   func(t *testing.T, p *models.Product)
	}{
		{
			name: "default image",
			in:   models.ProductInput{Name: "Mango pickle", Price: "150.50", Quantity: 10},
			check: func(t *testing.T, p *models.Product) {
				assert.Equal(t, models.DefaultProductImage, p.Image)
				assert.True(t, decimal.RequireFromString("150.5").Equal(p.Price))
				assert.Equal(t, 10, p.Quantity)
				assert.NotEmpty(t, p.ID)
			},
		},
		{
			name: "custom image",
			in:   models.ProductInput{Name: "Lime pickle", Price: "99", Quantity: 0, Image: "/static/images/lime.jpg"},
			check: func(t *testing.T, p *models.Product) {
				assert.Equal(t, "/static/images/lime.jpg", p.Image)
			},
		},
		{name: "price not a number", in: models.ProductInput{Name: "X", Price: "abc"}, wantErr: "is not a number"},
		{name: "zero price", in: models.ProductInput{Name: "X", Price: "0"}, wantErr: "price must be positive"},
		{name: "negative quantity", in: models.ProductInput{Name: "X", Price: "1", Quantity: -1}, wantErr: "quantity must not be negative"},
		{name: "blank name", in: models.ProductInput{Name: "  ", Price: "1"}, wantErr: "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, c := new(RepoMock), new(CacheMock)
			if tt.wantErr == "" {
				repo.On("CreateProduct", mock.Anything, mock.AnythingOfType("models.Product")).Return(nil).Once()
				c.On("Invalidate", mock.Anything, cache.CatalogProductsKey).Return(nil).Once()
			}
			svc := NewCatalogService(repo, c, time.Minute, newNoopLogger())

			p, err := svc.CreateProduct(context.Background(), tt.in)
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, ErrInvalidProduct)
				assert.ErrorContains(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestCatalog_AdminViews(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListOrders", mock.Anything).Return([]models.OrderView{{ProductName: "Mango pickle"}}, nil).Once()
	repo.On("ListServiceRequests", mock.Anything).Return(nil, errors.New("db error")).Once()
	repo.On("Dashboard", mock.Anything).Return(models.Dashboard{Products: 3}, nil).Once()
	svc := NewCatalogService(repo, new(CacheMock), time.Minute, newNoopLogger())

	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = svc.ListServiceRequests(context.Background())
	assert.Error(t, err)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Products)
}
