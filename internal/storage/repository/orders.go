package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// PlaceOrder оформляет строки корзины одной транзакцией.
//
// Для каждой строки товар блокируется через SELECT ... FOR UPDATE.
// Отсутствующий товар попадает в Skipped, нехватка остатка в Rejected,
// иначе остаток уменьшается и создаётся заказ. Любая ошибка хранилища
// откатывает всю транзакцию.
func (s *Storage) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.CheckoutResult, error) {
	const op = "repository.PlaceOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	lines, err := storage.NormalizeLines(req.Lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result := &models.CheckoutResult{}
	status := models.ConfirmedStatus(req.PaymentMethod)
	now := time.Now().UTC()

	for _, line := range lines {
		if _, err := uuid.Parse(line.ProductID); err != nil {
			result.Skipped = append(result.Skipped, line.ProductID)
			continue
		}

		var name string
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT name, quantity FROM products WHERE id = $1 FOR UPDATE`,
			line.ProductID).Scan(&name, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			result.Skipped = append(result.Skipped, line.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: lock product %s: %w", op, line.ProductID, err)
		}

		if stock < line.Quantity {
			result.Rejected = append(result.Rejected, models.RejectedLine{
				ProductID: line.ProductID, Required: line.Quantity, Available: stock,
			})
			continue
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE products SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2`,
			line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%s: decrement stock %s: %w", op, line.ProductID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			result.Rejected = append(result.Rejected, models.RejectedLine{
				ProductID: line.ProductID, Required: line.Quantity, Available: stock,
			})
			continue
		}

		order := models.Order{
			ID:        uuid.NewString(),
			Username:  req.Username,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Status:    status,
			CreatedAt: now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, username, product_id, quantity, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, order.Username, order.ProductID, order.Quantity, order.Status, order.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: insert order: %w", op, err)
		}
		result.Placed = append(result.Placed, models.PlacedLine{Order: order, ProductName: name})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return result, nil
}

// ListOrders возвращает все заказы, новые первыми, с названиями товаров.
func (s *Storage) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	const op = "repository.ListOrders"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.id, o.username, o.product_id, o.quantity, o.status, o.created_at,
			         COALESCE(p.name, '')
			  FROM orders o
			  LEFT JOIN products p ON p.id = o.product_id
			  ORDER BY o.created_at DESC, o.id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.OrderView{}
	for rows.Next() {
		var v models.OrderView
		if err = rows.Scan(&v.ID, &v.Username, &v.ProductID, &v.Quantity, &v.Status, &v.CreatedAt,
			&v.ProductName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
