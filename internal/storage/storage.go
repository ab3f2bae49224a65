// Package storage описывает общий контракт хранилищ витрины и их ошибки.
//
// Реализации: repository (PostgreSQL) и boltstore (встроенная bbolt).
// Бизнес-логика не знает, какое хранилище выбрано в конфиге.
package storage

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/magabrotheeeer/storefront/internal/models"
)

// Ошибки хранилища, которые различает бизнес-логика.
var (
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrInvalidOrderLine = errors.New("invalid order line")
)

// Store объединяет операции над пользователями, каталогом, заказами и заявками.
type Store interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateProduct(ctx context.Context, product models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)

	PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.CheckoutResult, error)
	ListOrders(ctx context.Context) ([]models.OrderView, error)

	CreateServiceRequest(ctx context.Context, req models.ServiceRequest) error
	ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error)

	Dashboard(ctx context.Context) (models.Dashboard, error)

	Close() error
}

// NormalizeLines склеивает повторяющиеся товары и сортирует строки по id.
// Фиксированный порядок блокировок исключает взаимные блокировки
// между параллельными оформлениями.
func NormalizeLines(lines []models.CartLine) ([]models.CartLine, error) {
	merged := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, ErrInvalidOrderLine
		}
		merged[l.ProductID] += l.Quantity
	}
	out := make([]models.CartLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, models.CartLine{ProductID: id, Quantity: qty})
	}
	slices.SortFunc(out, func(a, b models.CartLine) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out, nil
}
