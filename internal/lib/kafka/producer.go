// Package kafka содержит публикацию и чтение JSON-сообщений через Kafka.
// Используется как альтернатива RabbitMQ для подтверждений заказов.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

var deliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_kafka_delivery_failures_total",
	Help: "Messages the async Kafka writer failed to deliver.",
})

// Writer часть *kafka.Writer, нужная для публикации.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует сообщения в один топик.
type Producer struct {
	w Writer
}

// Пакет уходит в брокер не позже batchTimeout после первой записи.
const batchTimeout = 10 * time.Millisecond

// NewProducer создаёт асинхронного продюсера для топика topic.
//
// PublishJSON только ставит сообщение в очередь writer и не ждёт брокера.
// Ошибки доставки приходят в Completion: они логируются и считаются
// в storefront_kafka_delivery_failures_total.
func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	log = log.With(sl.Op("kafka.Producer"), slog.String("topic", topic))
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
			BatchTimeout: batchTimeout,
			Async:        true,
			Completion:   completion(log),
		},
	}
}

func completion(log *slog.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		deliveryFailuresTotal.Add(float64(len(msgs)))
		log.Error("failed to deliver messages", sl.Err(err), slog.Int("count", len(msgs)))
	}
}

// NewProducerWithWriter оборачивает готовый writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{w: w}
}

// PublishJSON кладёт сообщение с ключом key в топик.
// Сообщения с одинаковым ключом попадают в одну партицию.
func (p *Producer) PublishJSON(ctx context.Context, key string, message any) error {
	const op = "kafka.PublishJSON"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close сбрасывает буфер и закрывает соединения.
func (p *Producer) Close() error {
	return p.w.Close()
}
