// Package models содержит доменные модели витрины: пользователей, товары,
// заказы, корзину и заявки на обслуживание.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    `json:"uid"`           // Уникальный идентификатор пользователя
	Username     string    `json:"username"`      // Имя пользователя (уникальное)
	PasswordHash string    `json:"password_hash"` // Хэш пароля пользователя
	Role         string    `json:"role"`          // Роль пользователя, admin или user
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
