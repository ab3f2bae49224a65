package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// CreateProduct сохраняет новый товар.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) error {
	const op = "repository.CreateProduct"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO products (id, name, price, quantity, image, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		p.ID, p.Name, p.Price, p.Quantity, p.Image, p.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProduct возвращает товар по id или storage.ErrProductNotFound.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "repository.GetProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	query := `SELECT id, name, price, quantity, image, created_at
			  FROM products
			  WHERE id = $1`
	var p models.Product
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Image, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrMalformedRecord, err)
	}
	return &p, nil
}

// ListProducts возвращает весь каталог, отсортированный по названию.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "repository.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, quantity, image, created_at
			  FROM products
			  ORDER BY name, id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err = rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Image, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrMalformedRecord, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
