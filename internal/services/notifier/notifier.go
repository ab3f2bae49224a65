// Package services публикует подтверждения заказов в брокер сообщений.
package services

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// RabbitMQNotifier публикует подтверждения в обменник notifications.
type RabbitMQNotifier struct {
	ch rabbitmq.Channel
}

// NewRabbitMQNotifier создает новый экземпляр RabbitMQNotifier.
func NewRabbitMQNotifier(ch rabbitmq.Channel) *RabbitMQNotifier {
	return &RabbitMQNotifier{ch: ch}
}

// NotifyOrderConfirmed публикует сообщение с ключом order.confirmed.
func (n *RabbitMQNotifier) NotifyOrderConfirmed(_ context.Context, msg models.OrderConfirmation) error {
	const op = "services.RabbitMQNotifier.NotifyOrderConfirmed"
	if err := rabbitmq.PublishMessage(n.ch, rabbitmq.NotificationsExchange, rabbitmq.OrderConfirmedKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует JSON в топик Kafka.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, message any) error
}

// KafkaNotifier публикует подтверждения в топик Kafka.
// Ключом служит имя пользователя, поэтому его заказы читаются по порядку.
type KafkaNotifier struct {
	producer Publisher
}

// NewKafkaNotifier создает новый экземпляр KafkaNotifier.
func NewKafkaNotifier(producer Publisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

// NotifyOrderConfirmed публикует сообщение в топик.
func (n *KafkaNotifier) NotifyOrderConfirmed(ctx context.Context, msg models.OrderConfirmation) error {
	const op = "services.KafkaNotifier.NotifyOrderConfirmed"
	if err := n.producer.PublishJSON(ctx, msg.Username, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
