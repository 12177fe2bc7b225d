package domain

import "time"

type BasketStatus string

const (
	BasketStatusActive    BasketStatus = "active"
	BasketStatusCompleted BasketStatus = "completed"
	BasketStatusAbandoned BasketStatus = "abandoned"
)

type Basket struct {
	ID        string
	UserID    string
	Status    BasketStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LineItem struct {
	ID        string
	BasketID  string
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// LineItemView is the serialized form of a line item. Subtotal is computed
// from the product's current price at read time, never stored.
type LineItemView struct {
	ID       string      `json:"id"`
	Product  ProductView `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal float64     `json:"subtotal"`
	AddedAt  time.Time   `json:"added_at"`
}

type BasketView struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Status     BasketStatus   `json:"status"`
	Items      []LineItemView `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
