// Package redisstore хранит корзины и сессии пользователей в Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

const cartPrefix = "cart:"

// Carts корзины сессий: hash product_id -> quantity.
type Carts struct {
	db  *redis.Client
	ttl time.Duration
}

// NewCarts создаёт хранилище корзин. Корзина живёт не дольше ttl
// с момента последнего изменения.
func NewCarts(db *redis.Client, ttl time.Duration) *Carts {
	return &Carts{db: db, ttl: ttl}
}

func cartKey(sessionID string) string {
	return cartPrefix + sessionID
}

// Add увеличивает количество товара в корзине на delta.
func (c *Carts) Add(ctx context.Context, sessionID, productID string, delta int) (int, error) {
	const op = "redisstore.Carts.Add"
	key := cartKey(sessionID)

	var incr *redis.IntCmd
	_, err := c.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, productID, int64(delta))
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(incr.Val()), nil
}

// Lines возвращает строки корзины. Нечисловое или неположительное
// количество считается повреждённой записью.
func (c *Carts) Lines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	const op = "redisstore.Carts.Lines"
	raw, err := c.db.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lines, err := parseLines(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lines, nil
}

// Take забирает корзину: читает и удаляет её в одной транзакции MULTI/EXEC.
// Из двух одновременных вызовов строки получит только один, второй увидит
// пустую корзину. Повреждённая корзина возвращается на место без изменений.
func (c *Carts) Take(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	const op = "redisstore.Carts.Take"
	key := cartKey(sessionID)

	var get *redis.MapStringStringCmd
	_, err := c.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	raw := get.Val()
	lines, err := parseLines(raw)
	if err != nil {
		if rerr := c.putBack(context.WithoutCancel(ctx), key, raw); rerr != nil {
			return nil, fmt.Errorf("%s: %w", op, errors.Join(err, rerr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lines, nil
}

// Restore возвращает забранные строки в корзину, складывая количества
// с тем, что успели добавить после Take.
func (c *Carts) Restore(ctx context.Context, sessionID string, lines []models.CartLine) error {
	const op = "redisstore.Carts.Restore"
	if len(lines) == 0 {
		return nil
	}
	key := cartKey(sessionID)
	_, err := c.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, l := range lines {
			pipe.HIncrBy(ctx, key, l.ProductID, int64(l.Quantity))
		}
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Carts) putBack(ctx context.Context, key string, raw map[string]string) error {
	if len(raw) == 0 {
		return nil
	}
	_, err := c.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, raw)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	return err
}

func parseLines(raw map[string]string) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: quantity %q for product %s", storage.ErrMalformedRecord, v, productID)
		}
		lines = append(lines, models.CartLine{ProductID: productID, Quantity: qty})
	}
	return lines, nil
}
