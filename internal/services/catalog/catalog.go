// Package services содержит бизнес-логику каталога: товары с кешированием
// и сводки для админки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// ErrInvalidProduct данные нового товара не прошли проверку.
var ErrInvalidProduct = errors.New("invalid product")

// Repository определяет методы хранилища, нужные каталогу.
type Repository interface {
	CreateProduct(ctx context.Context, product models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListOrders(ctx context.Context) ([]models.OrderView, error)
	ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error)
	Dashboard(ctx context.Context) (models.Dashboard, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// CatalogService отдаёт каталог через кеш и управляет товарами.
type CatalogService struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// List возвращает все товары. Сбой кеша не мешает чтению из хранилища.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	const op = "services.CatalogService.List"
	log := s.log.With(sl.Op(op))

	var products []models.Product
	found, err := s.cache.Get(ctx, cache.CatalogProductsKey, &products)
	if err != nil {
		log.Warn("failed to read catalog from cache", sl.Err(err))
	}
	if found && err == nil {
		return products, nil
	}

	products, err = s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cache.CatalogProductsKey, products, s.ttl); err != nil {
		log.Warn("failed to cache catalog", sl.Err(err))
	}
	return products, nil
}

// Stock возвращает остатки прямо из хранилища, не трогая кеш.
func (s *CatalogService) Stock(ctx context.Context) ([]models.Product, error) {
	const op = "services.CatalogService.Stock"
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Get возвращает товар по id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "services.CatalogService.Get"
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProduct проверяет данные, сохраняет товар и сбрасывает кеш каталога.
func (s *CatalogService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	const op = "services.CatalogService.CreateProduct"

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return nil, fmt.Errorf("%w: price %q is not a number", ErrInvalidProduct, in.Price)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	}
	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = models.DefaultProductImage
	}

	p := models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Quantity:  in.Quantity,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", sl.Op(op), slog.String("id", p.ID), slog.String("name", p.Name))

	s.InvalidateProducts(ctx)
	return &p, nil
}

// InvalidateProducts сбрасывает закешированный каталог.
func (s *CatalogService) InvalidateProducts(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.CatalogProductsKey); err != nil {
		s.log.Warn("failed to invalidate catalog cache", sl.Err(err))
	}
}

// ListOrders возвращает все заказы, новые первыми.
func (s *CatalogService) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	const op = "services.CatalogService.ListOrders"
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// ListServiceRequests возвращает заявки на обслуживание.
func (s *CatalogService) ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	const op = "services.CatalogService.ListServiceRequests"
	reqs, err := s.repo.ListServiceRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, nil
}

// Dashboard возвращает сводку для админки.
func (s *CatalogService) Dashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "services.CatalogService.Dashboard"
	d, err := s.repo.Dashboard(ctx)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
