// Package sender собирает сервис рассылки подтверждений заказов:
// потребитель брокера и SMTP-транспорт.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/storefront/internal/config"
	"github.com/magabrotheeeer/storefront/internal/lib/kafka"
	"github.com/magabrotheeeer/storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/lib/smtp"
	senderservices "github.com/magabrotheeeer/storefront/internal/services/sender"
)

// App потребитель подтверждений заказов.
// Для RabbitMQ заполнены conn и ch, для Kafka заполнен consumer.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	consumer      *kafka.Consumer
	senderService *senderservices.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру, выбранному в конфиге.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	transport := smtp.NewTransport(cfg.SMTP, logger)
	app := &App{
		senderService: senderservices.NewSenderService(transport, cfg.Recipients, logger),
		logger:        logger,
	}

	switch cfg.Broker {
	case config.BrokerKafka:
		app.consumer = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, logger)
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.conn, app.ch = conn, ch
	default:
		return nil, fmt.Errorf("%s: unknown notifications broker %q", op, cfg.Broker)
	}
	return app, nil
}

// Run обрабатывает сообщения до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil {
		a.logger.Info("consuming order confirmations from kafka")
		return a.consumer.Run(ctx, a.senderService.SendOrderConfirmation)
	}

	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.OrderConfirmedQueue, a.logger, a.senderService.SendOrderConfirmation)
	if err != nil {
		a.logger.Error("failed to start order confirmation consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")
	<-done

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
