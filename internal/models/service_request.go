package models

import "time"

// ServiceRequestPending статус новой заявки.
const ServiceRequestPending = "Pending"

// ServiceRequest заявка пользователя на обслуживание.
type ServiceRequest struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
