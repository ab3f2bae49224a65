package models

import "time"

// PlaceOrderRequest набор строк корзины, оформляемых одной транзакцией.
type PlaceOrderRequest struct {
	Username      string
	PaymentMethod string
	Lines         []CartLine
}

// PlacedLine успешно оформленная строка.
type PlacedLine struct {
	Order       Order  `json:"order"`
	ProductName string `json:"product_name"`
}

// RejectedLine строка, для которой не хватило остатка.
type RejectedLine struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// CheckoutResult итог оформления заказа.
// Skipped содержит товары, отсутствующие в каталоге.
type CheckoutResult struct {
	Placed   []PlacedLine   `json:"placed"`
	Skipped  []string       `json:"skipped,omitempty"`
	Rejected []RejectedLine `json:"rejected,omitempty"`
}

// OrderConfirmationLine позиция в уведомлении.
type OrderConfirmationLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// OrderConfirmation сообщение брокеру о подтверждённом заказе.
type OrderConfirmation struct {
	Username      string                  `json:"username"`
	PaymentMethod string                  `json:"payment_method"`
	Lines         []OrderConfirmationLine `json:"lines"`
	CreatedAt     time.Time               `json:"created_at"`
}
