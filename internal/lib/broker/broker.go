// Package broker содержит ошибки, общие для потребителей RabbitMQ и Kafka.
package broker

import "errors"

// ErrMalformed помечает сообщение, которое бессмысленно обрабатывать повторно.
// Потребители отбрасывают такое сообщение вместо повторной доставки.
var ErrMalformed = errors.New("malformed message")
