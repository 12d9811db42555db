package domain

import "time"

// Notification is an in-app notification row written by the order engine on
// confirmation, cancellation and refund settlement. Delivery channels (email,
// SMS) live outside this service.
type Notification struct {
	ID         int32             `json:"id"`
	CustomerID int32             `json:"customer_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}
