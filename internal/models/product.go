package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultProductImage используется, если при создании товара картинка не указана.
const DefaultProductImage = "/static/images/pickle1.jpg"

// Product товар каталога с текущим остатком на складе.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate проверяет запись, прочитанную из хранилища.
func (p *Product) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("product id is empty")
	case p.Name == "":
		return errors.New("product name is empty")
	case !p.Price.IsPositive():
		return errors.New("product price must be positive")
	case p.Quantity < 0:
		return errors.New("product quantity is negative")
	}
	return nil
}

// ProductInput данные нового товара из админки. Цена приходит строкой.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Price    string `json:"price" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
	Image    string `json:"image,omitempty" validate:"omitempty,max=500"`
}
