package models

import "time"

// Product event types published after a successful write.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent notifies downstream consumers that a product changed.
// Product is nil for deletions.
type ProductEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  uint      `json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
