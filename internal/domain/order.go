package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSubmission is the snapshot handed to the order service at checkout
// time. It is a copy of the cart, decoupled from further live mutation.
type OrderSubmission struct {
	RestaurantID    string          `json:"restaurantId"`
	Lines           []CartLine      `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DeliveryAddress string          `json:"deliveryAddress"`
	DeliveryNotes   string          `json:"deliveryNotes,omitempty"`
	IdempotencyKey  string          `json:"idempotencyKey"`
}

// Order is the canonical shape of a recorded order. The backend drifted
// across revisions (snake_case vs camelCase fields, "order" vs "data"
// envelopes), so every response is normalized into this type at the API
// boundary and ambiguous shapes never propagate inward.
type Order struct {
	ID              string
	RestaurantID    string
	RestaurantName  string
	Lines           []CartLine
	TotalAmount     decimal.Decimal
	Status          string
	DeliveryAddress string
	CreatedAt       time.Time
}
