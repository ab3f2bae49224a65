package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/config"
	"github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/kafka"
	"github.com/magabrotheeeer/storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/migrations"
	authservices "github.com/magabrotheeeer/storefront/internal/services/auth"
	cartservices "github.com/magabrotheeeer/storefront/internal/services/cart"
	catalogservices "github.com/magabrotheeeer/storefront/internal/services/catalog"
	checkoutservices "github.com/magabrotheeeer/storefront/internal/services/checkout"
	notifierservices "github.com/magabrotheeeer/storefront/internal/services/notifier"
	requestservices "github.com/magabrotheeeer/storefront/internal/services/servicerequest"
	"github.com/magabrotheeeer/storefront/internal/storage"
	"github.com/magabrotheeeer/storefront/internal/storage/boltstore"
	"github.com/magabrotheeeer/storefront/internal/storage/redisstore"
	"github.com/magabrotheeeer/storefront/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер витрины и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server      *http.Server
	logger      *slog.Logger
	store       storage.Store
	cache       *cache.Cache
	closeBroker func() error
}

// New поднимает хранилище, Redis и брокер, создаёт администратора и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "storefront.New"

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notifier, closeBroker, err := openNotifier(cfg, logger)
	if err != nil {
		_ = cacheRedis.Close()
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	svc := NewServices(store, cacheRedis, jwtMaker, notifier, cfg.CatalogTTL, logger)

	if err := svc.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("failed to bootstrap admin user", sl.Err(err))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:      srv,
		logger:      logger,
		store:       store,
		cache:       cacheRedis,
		closeBroker: closeBroker,
	}, nil
}

// NewServices собирает сервисы поверх готовых хранилищ.
// Корзины и сессии живут в Redis при любом драйвере основного хранилища.
func NewServices(store storage.Store, c *cache.Cache, jwtMaker jwt.Maker, notifier checkoutservices.Notifier, catalogTTL time.Duration, logger *slog.Logger) Services {
	sessions := redisstore.NewSessions(c.Db)
	carts := redisstore.NewCarts(c.Db, jwtMaker.TTL())

	catalog := catalogservices.NewCatalogService(store, c, catalogTTL, logger)
	return Services{
		Auth:           authservices.NewAuthService(store, sessions, jwtMaker, logger),
		Catalog:        catalog,
		Cart:           cartservices.NewCartService(carts, store, logger),
		Checkout:       checkoutservices.NewCheckoutService(store, carts, catalog, notifier, logger),
		ServiceRequest: requestservices.NewServiceRequestService(store, logger),
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Driver {
	case config.StorageDriverBolt:
		db, err := boltstore.New(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.StorageDriverPostgres:
		repo, err := repository.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(repo.DB, cfg.MigrationsPath); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openNotifier(cfg *config.Config, logger *slog.Logger) (checkoutservices.Notifier, func() error, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		return notifierservices.NewKafkaNotifier(producer), producer.Close, nil
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		closeFn := func() error {
			return errors.Join(ch.Close(), conn.Close())
		}
		return notifierservices.NewRabbitMQNotifier(ch), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifications broker %q", cfg.Broker)
	}
}

// Run запускает сервер и при отмене ctx останавливает его, закрывая ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.closeBroker(); err != nil {
		a.logger.Error("failed to close broker", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
