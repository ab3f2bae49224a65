package storefront

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/models"
	catalogservices "github.com/magabrotheeeer/storefront/internal/services/catalog"
	checkoutservices "github.com/magabrotheeeer/storefront/internal/services/checkout"
	"github.com/magabrotheeeer/storefront/internal/storage/boltstore"
	"github.com/magabrotheeeer/storefront/internal/storage/redisstore"
)

// slowPlacer держит транзакцию открытой, чтобы второй запрос успел войти
// в оформление той же корзины.
type slowPlacer struct {
	checkoutservices.OrderPlacer
	delay time.Duration
}

func (p slowPlacer) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.CheckoutResult, error) {
	time.Sleep(p.delay)
	return p.OrderPlacer.PlaceOrder(ctx, req)
}

func TestCheckout_DoubleSubmitPlacesOnce(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := boltstore.New(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mr := miniredis.RunT(t)
	c := &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })

	_, err = store.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleUser})
	require.NoError(t, err)
	product := models.Product{
		ID:       uuid.NewString(),
		Name:     "Mango pickle",
		Price:    decimal.RequireFromString("150.50"),
		Quantity: 100,
		Image:    models.DefaultProductImage,
	}
	require.NoError(t, store.CreateProduct(ctx, product))

	carts := redisstore.NewCarts(c.Db, time.Hour)
	_, err = carts.Add(ctx, "sid", product.ID, 1)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	catalog := catalogservices.NewCatalogService(store, c, time.Minute, logger)
	svc := checkoutservices.NewCheckoutService(slowPlacer{OrderPlacer: store, delay: 50 * time.Millisecond}, carts, catalog, notifier, logger)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		empties int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.PlaceOrder(ctx, "sid", "alice", "COD")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, checkoutservices.ErrEmptyCart)
				empties++
				return
			}
			placed += len(res.Placed)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, empties)

	got, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, got.Quantity)

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Len(t, notifier.msgs, 1)
}
