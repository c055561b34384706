package domain

import "time"

// Payment records the synchronously-resolved payment for a purchase
// interaction. Donations carry no payment.
type Payment struct {
	ID            string
	InteractionID string
	Method        string
	AmountCents   int64
	Status        Status
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}
