// Package services содержит оформление заказа: корзина превращается в заказы
// одной транзакцией хранилища, после чего отправляется подтверждение.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// ErrEmptyCart в корзине нет ни одной строки.
var ErrEmptyCart = errors.New("cart is empty")

// OrderPlacer атомарно оформляет строки корзины.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.CheckoutResult, error)
}

// CartStore часть хранилища корзин, нужная при оформлении.
// Take атомарно забирает корзину, Restore возвращает строки при сбое.
type CartStore interface {
	Take(ctx context.Context, sessionID string) ([]models.CartLine, error)
	Restore(ctx context.Context, sessionID string, lines []models.CartLine) error
}

// CatalogInvalidator сбрасывает кеш каталога после изменения остатков.
type CatalogInvalidator interface {
	InvalidateProducts(ctx context.Context)
}

// Notifier публикует подтверждение заказа.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, msg models.OrderConfirmation) error
}

// CheckoutService оформляет заказы.
type CheckoutService struct {
	orders   OrderPlacer
	carts    CartStore
	catalog  CatalogInvalidator
	notifier Notifier
	log      *slog.Logger
}

// NewCheckoutService создает новый экземпляр CheckoutService.
func NewCheckoutService(orders OrderPlacer, carts CartStore, catalog CatalogInvalidator, notifier Notifier, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		carts:    carts,
		catalog:  catalog,
		notifier: notifier,
		log:      log,
	}
}

// PlaceOrder оформляет корзину сессии.
//
// Корзина забирается до транзакции, поэтому повторный запрос той же
// сессии получает ErrEmptyCart. При ошибке хранилища ничего не записано
// и строки возвращаются в корзину. После успешной транзакции корзина
// остаётся пустой, даже если часть строк пропущена или отклонена.
// Подтверждение отправляется, только если оформлена хотя бы одна строка,
// и его сбой не влияет на результат.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID, username, paymentMethod string) (*models.CheckoutResult, error) {
	const op = "services.CheckoutService.PlaceOrder"
	log := s.log.With(sl.Op(op), slog.String("username", username))

	ctx, span := tracer.Start(ctx, "checkout.PlaceOrder", trace.WithAttributes(
		attribute.String("payment_method", paymentMethod),
	))
	defer span.End()

	lines, err := s.carts.Take(ctx, sessionID)
	if err != nil {
		checkoutsTotal.WithLabelValues("failed").Inc()
		recordError(span, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(lines) == 0 {
		checkoutsTotal.WithLabelValues("empty").Inc()
		return nil, ErrEmptyCart
	}
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	result, err := s.orders.PlaceOrder(ctx, models.PlaceOrderRequest{
		Username:      username,
		PaymentMethod: paymentMethod,
		Lines:         lines,
	})
	if err != nil {
		checkoutsTotal.WithLabelValues("failed").Inc()
		recordError(span, err)
		if rerr := s.carts.Restore(context.WithoutCancel(ctx), sessionID, lines); rerr != nil {
			log.Error("failed to restore cart", sl.Err(rerr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	checkoutsTotal.WithLabelValues("placed").Inc()
	span.SetAttributes(
		attribute.Int("order.placed", len(result.Placed)),
		attribute.Int("order.skipped", len(result.Skipped)),
		attribute.Int("order.rejected", len(result.Rejected)),
	)
	orderLinesTotal.WithLabelValues("placed").Add(float64(len(result.Placed)))
	orderLinesTotal.WithLabelValues("skipped").Add(float64(len(result.Skipped)))
	orderLinesTotal.WithLabelValues("rejected").Add(float64(len(result.Rejected)))

	log.Info("order placed",
		slog.Int("placed", len(result.Placed)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("rejected", len(result.Rejected)),
	)

	if len(result.Placed) > 0 {
		s.catalog.InvalidateProducts(ctx)
		s.notify(ctx, log, username, paymentMethod, result.Placed)
	}
	return result, nil
}

func (s *CheckoutService) notify(ctx context.Context, log *slog.Logger, username, paymentMethod string, placed []models.PlacedLine) {
	msg := models.OrderConfirmation{
		Username:      username,
		PaymentMethod: paymentMethod,
		Lines:         make([]models.OrderConfirmationLine, 0, len(placed)),
		CreatedAt:     time.Now().UTC(),
	}
	for _, p := range placed {
		msg.Lines = append(msg.Lines, models.OrderConfirmationLine{
			ProductID: p.Order.ProductID,
			Name:      p.ProductName,
			Quantity:  p.Order.Quantity,
		})
	}
	if err := s.notifier.NotifyOrderConfirmed(ctx, msg); err != nil {
		notificationsTotal.WithLabelValues("failed").Inc()
		log.Warn("failed to publish order confirmation", sl.Err(err))
		return
	}
	notificationsTotal.WithLabelValues("published").Inc()
}
