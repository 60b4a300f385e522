package models

import "time"

// OrderItem is one line of an order placed by the checkout service.
type OrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderPlaced is the message consumed from the orders queue. The catalog
// only cares about it to keep purchase_count current.
type OrderPlaced struct {
	OrderID   string      `json:"order_id"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}
