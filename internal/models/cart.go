package models

import "github.com/shopspring/decimal"

// CartLine строка корзины: товар и запрошенное количество.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartItem строка корзины с актуальными данными товара.
type CartItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartView содержимое корзины для показа пользователю.
// Dropped перечисляет товары, которых больше нет в каталоге.
type CartView struct {
	Items   []CartItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Dropped []string        `json:"dropped,omitempty"`
}
