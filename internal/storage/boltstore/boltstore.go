// Package boltstore реализует хранилище витрины во встроенной базе bbolt.
//
// Записи хранятся в JSON по бакетам. Все изменения идут через
// единственную пишущую транзакцию bbolt, поэтому проверка остатка
// и его уменьшение атомарны.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

var (
	usersBucket           = []byte("users")
	productsBucket        = []byte("products")
	ordersBucket          = []byte("orders")
	serviceRequestsBucket = []byte("service_requests")
)

// Storage хранилище поверх файла bbolt.
type Storage struct {
	db *bolt.DB
}

var _ storage.Store = (*Storage)(nil)

// New открывает (или создаёт) файл базы и нужные бакеты.
func New(path string) (*Storage, error) {
	const op = "boltstore.New"
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{usersBucket, productsBucket, ordersBucket, serviceRequestsBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{db: db}, nil
}

// Close закрывает файл базы.
func (s *Storage) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrMalformedRecord, err)
	}
	return nil
}

func decodeProduct(data []byte) (models.Product, error) {
	var p models.Product
	if err := decode(data, &p); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", storage.ErrMalformedRecord, err)
	}
	return p, nil
}

// CreateUser сохраняет пользователя, если имя ещё не занято.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "boltstore.CreateUser"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user.UUID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		if b.Get([]byte(user.Username)) != nil {
			return storage.ErrUserExists
		}
		return put(b, user.Username, user)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.UUID, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "boltstore.GetUserByUsername"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var u models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(usersBucket).Get([]byte(username))
		if data == nil {
			return storage.ErrUserNotFound
		}
		return decode(data, &u)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// CreateProduct сохраняет товар.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) error {
	const op = "boltstore.CreateProduct"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(productsBucket), p.ID, p)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProduct возвращает товар по id.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "boltstore.GetProduct"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var p models.Product
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(productsBucket).Get([]byte(id))
		if data == nil {
			return storage.ErrProductNotFound
		}
		var err error
		p, err = decodeProduct(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListProducts возвращает каталог, отсортированный по названию.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "boltstore.ListProducts"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := []models.Product{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(productsBucket).ForEach(func(_, v []byte) error {
			p, err := decodeProduct(v)
			if err != nil {
				return err
			}
			result = append(result, p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slices.SortFunc(result, func(a, b models.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

// PlaceOrder оформляет строки корзины в одной пишущей транзакции.
// Ошибка внутри транзакции откатывает все изменения.
func (s *Storage) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.CheckoutResult, error) {
	const op = "boltstore.PlaceOrder"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lines, err := storage.NormalizeLines(req.Lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result *models.CheckoutResult
	err = s.db.Update(func(tx *bolt.Tx) error {
		result = &models.CheckoutResult{}
		if tx.Bucket(usersBucket).Get([]byte(req.Username)) == nil {
			return storage.ErrUserNotFound
		}
		products := tx.Bucket(productsBucket)
		orders := tx.Bucket(ordersBucket)
		status := models.ConfirmedStatus(req.PaymentMethod)
		now := time.Now().UTC()

		for _, line := range lines {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := products.Get([]byte(line.ProductID))
			if data == nil {
				result.Skipped = append(result.Skipped, line.ProductID)
				continue
			}
			p, err := decodeProduct(data)
			if err != nil {
				return err
			}
			if p.Quantity < line.Quantity {
				result.Rejected = append(result.Rejected, models.RejectedLine{
					ProductID: p.ID, Required: line.Quantity, Available: p.Quantity,
				})
				continue
			}
			p.Quantity -= line.Quantity
			if err := put(products, p.ID, p); err != nil {
				return err
			}

			order := models.Order{
				ID:        uuid.NewString(),
				Username:  req.Username,
				ProductID: p.ID,
				Quantity:  line.Quantity,
				Status:    status,
				CreatedAt: now,
			}
			if err := put(orders, order.ID, order); err != nil {
				return err
			}
			result.Placed = append(result.Placed, models.PlacedLine{Order: order, ProductName: p.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListOrders возвращает заказы, новые первыми, с названиями товаров.
func (s *Storage) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	const op = "boltstore.ListOrders"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := []models.OrderView{}
	err := s.db.View(func(tx *bolt.Tx) error {
		products := tx.Bucket(productsBucket)
		return tx.Bucket(ordersBucket).ForEach(func(_, v []byte) error {
			var view models.OrderView
			if err := decode(v, &view.Order); err != nil {
				return err
			}
			if data := products.Get([]byte(view.ProductID)); data != nil {
				p, err := decodeProduct(data)
				if err != nil {
					return err
				}
				view.ProductName = p.Name
			}
			result = append(result, view)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slices.SortFunc(result, func(a, b models.OrderView) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

// CreateServiceRequest сохраняет заявку.
func (s *Storage) CreateServiceRequest(ctx context.Context, r models.ServiceRequest) error {
	const op = "boltstore.CreateServiceRequest"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(serviceRequestsBucket), r.ID, r)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListServiceRequests возвращает заявки, новые первыми.
func (s *Storage) ListServiceRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	const op = "boltstore.ListServiceRequests"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := []models.ServiceRequest{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(serviceRequestsBucket).ForEach(func(_, v []byte) error {
			var r models.ServiceRequest
			if err := decode(v, &r); err != nil {
				return err
			}
			result = append(result, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slices.SortFunc(result, func(a, b models.ServiceRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

// Dashboard считает сводку для админки.
func (s *Storage) Dashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "boltstore.Dashboard"
	if err := ctx.Err(); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	var d models.Dashboard
	err := s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(productsBucket).ForEach(func(_, v []byte) error {
			p, err := decodeProduct(v)
			if err != nil {
				return err
			}
			d.Products++
			if p.Quantity == 0 {
				d.OutOfStock++
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.Orders = tx.Bucket(ordersBucket).Stats().KeyN
		d.ServiceRequests = tx.Bucket(serviceRequestsBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
