package domain

import "time"

// Order is the fulfillment record for an interaction. The pickup code is
// generated at creation and is unique across all orders.
type Order struct {
	ID            string
	InteractionID string
	Status        Status
	PickupStart   time.Time
	PickupEnd     time.Time
	PickupCode    string
	CreatedAt     time.Time
}
