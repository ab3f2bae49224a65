package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/storefront/internal/models"
)

// CreateServiceRequest сохраняет заявку на обслуживание.
func (s *Storage) CreateServiceRequest(ctx context.Context, r models.ServiceRequest) error {
	const op = "repository.CreateServiceRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO service_requests (id, username, type, description, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		r.ID, r.Username, r.Type, r.Description, r.Status, r.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListServiceRequests возвращает все заявки, новые первыми.
func (s *Storage) ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	const op = "repository.ListServiceRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, username, type, description, status, created_at
		 FROM service_requests
		 ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.ServiceRequest{}
	for rows.Next() {
		var r models.ServiceRequest
		if err = rows.Scan(&r.ID, &r.Username, &r.Type, &r.Description, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Dashboard считает сводку для админки.
func (s *Storage) Dashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "repository.Dashboard"
	var d models.Dashboard
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE quantity = 0),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM service_requests)`).
		Scan(&d.Products, &d.OutOfStock, &d.Orders, &d.ServiceRequests)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
