package models

import (
	"fmt"
	"time"
)

// Order неизменяемая запись о купленной позиции.
type Order struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderView заказ вместе с названием товара для админки.
// ProductName пустой, если товара уже нет в каталоге.
type OrderView struct {
	Order
	ProductName string `json:"product_name"`
}

// ConfirmedStatus формирует статус заказа по способу оплаты.
func ConfirmedStatus(paymentMethod string) string {
	return fmt.Sprintf("Confirmed (%s)", paymentMethod)
}
