package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/magabrotheeeer/storefront/internal/lib/broker"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

// Пауза между повторами обработки одного сообщения.
const (
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 30 * time.Second
)

// Reader часть *kafka.Reader, нужная потребителю.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает топик в составе consumer group и коммитит смещение после успешной обработки.
type Consumer struct {
	r             Reader
	log           *slog.Logger
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

// NewConsumer создаёт потребителя топика topic в группе group.
func NewConsumer(brokers []string, group, topic string, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return NewConsumerWithReader(r, log)
}

// NewConsumerWithReader оборачивает готовый reader.
func NewConsumerWithReader(r Reader, log *slog.Logger) *Consumer {
	return &Consumer{
		r:             r,
		log:           log,
		retryDelay:    defaultRetryDelay,
		maxRetryDelay: defaultMaxRetryDelay,
	}
}

// Run обрабатывает сообщения до отмены ctx.
//
// Смещение коммитится только после успешного handler, поэтому сообщения
// обрабатываются строго по одному. При ошибке handler вызывается повторно
// на том же сообщении с растущей паузой, пока не выполнится или не отменится ctx.
// Сообщение с ошибкой broker.ErrMalformed коммитится без повтора и тем самым отбрасывается.
func (c *Consumer) Run(ctx context.Context, handler func([]byte) error) error {
	const op = "kafka.Consumer.Run"
	log := c.log.With(sl.Op(op))
	defer func() {
		if err := c.r.Close(); err != nil {
			log.Error("failed to close reader", sl.Err(err))
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if !c.handle(ctx, log, m, handler) {
			return nil
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Error("failed to commit message", sl.Err(err), slog.Int64("offset", m.Offset))
		}
	}
}

// handle возвращает false, если ctx отменён до успешной обработки.
// В этом случае сообщение не коммитится и будет прочитано снова.
func (c *Consumer) handle(ctx context.Context, log *slog.Logger, m kafka.Message, handler func([]byte) error) bool {
	delay := c.retryDelay
	for {
		err := handler(m.Value)
		if err == nil {
			return true
		}
		if errors.Is(err, broker.ErrMalformed) {
			log.Error("dropping malformed message", sl.Err(err), slog.Int64("offset", m.Offset))
			return true
		}
		log.Error("handler failed, retrying", sl.Err(err), slog.Int64("offset", m.Offset), slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		delay = min(delay*2, c.maxRetryDelay)
	}
}
