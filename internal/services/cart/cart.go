// Package services содержит логику корзины покупателя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// Store хранилище корзин по сессиям.
type Store interface {
	Add(ctx context.Context, sessionID, productID string, delta int) (int, error)
	Lines(ctx context.Context, sessionID string) ([]models.CartLine, error)
}

// ProductReader читает актуальные данные товара.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// CartService добавляет товары в корзину и собирает её содержимое.
type CartService struct {
	carts    Store
	products ProductReader
	log      *slog.Logger
}

// NewCartService создает новый экземпляр CartService.
func NewCartService(carts Store, products ProductReader, log *slog.Logger) *CartService {
	return &CartService{carts: carts, products: products, log: log}
}

// Add кладёт одну единицу товара в корзину и возвращает новое количество.
// Остаток не проверяется, это делает оформление заказа.
func (s *CartService) Add(ctx context.Context, sessionID, productID string) (int, error) {
	const op = "services.CartService.Add"
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	qty, err := s.carts.Add(ctx, sessionID, productID, 1)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return qty, nil
}

// View возвращает строки корзины с текущими ценами и итог.
// Товары, удалённые из каталога, в итог не входят и перечислены в Dropped.
func (s *CartService) View(ctx context.Context, sessionID string) (*models.CartView, error) {
	const op = "services.CartService.View"
	lines, err := s.carts.Lines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	view := &models.CartView{Items: []models.CartItem{}, Total: decimal.Zero}
	for _, line := range lines {
		p, err := s.products.GetProduct(ctx, line.ProductID)
		if errors.Is(err, storage.ErrProductNotFound) {
			s.log.Debug("cart line dropped", sl.Op(op), slog.String("product_id", line.ProductID))
			view.Dropped = append(view.Dropped, line.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, models.CartItem{Product: *p, Quantity: line.Quantity, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
	}

	slices.SortFunc(view.Items, func(a, b models.CartItem) int {
		if c := strings.Compare(a.Product.Name, b.Product.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Product.ID, b.Product.ID)
	})
	slices.Sort(view.Dropped)
	return view, nil
}
