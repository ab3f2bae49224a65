package rabbitmq

// Обменник и ключи маршрутизации уведомлений витрины.
const (
	NotificationsExchange = "notifications"
	OrderConfirmedKey     = "order.confirmed"
	OrderConfirmedQueue   = "notifications.orders"
)

// QueueConfig описывает очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает сервис рассылки.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: OrderConfirmedQueue, RoutingKey: OrderConfirmedKey},
	}
}
