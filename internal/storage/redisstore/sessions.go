package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/storefront/internal/storage"
)

const sessionPrefix = "session:"

// Sessions активные сессии: session:<sid> -> username.
type Sessions struct {
	db *redis.Client
}

// NewSessions создаёт хранилище сессий.
func NewSessions(db *redis.Client) *Sessions {
	return &Sessions{db: db}
}

// Create сохраняет сессию на время ttl.
func (s *Sessions) Create(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	const op = "redisstore.Sessions.Create"
	if err := s.db.Set(ctx, sessionPrefix+sessionID, username, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает имя пользователя сессии.
func (s *Sessions) Get(ctx context.Context, sessionID string) (string, error) {
	const op = "redisstore.Sessions.Get"
	username, err := s.db.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return username, nil
}

// Delete удаляет сессию вместе с её корзиной.
func (s *Sessions) Delete(ctx context.Context, sessionID string) error {
	const op = "redisstore.Sessions.Delete"
	if err := s.db.Del(ctx, sessionPrefix+sessionID, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
