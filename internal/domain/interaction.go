package domain

import "time"

type InteractionType string

const (
	InteractionTypePurchase InteractionType = "purchase"
	InteractionTypeDonation InteractionType = "donation"
)

// Interaction is the aggregate root for one purchase or donation between a
// requester and a provider. Its payment, order, items and status history are
// owned exclusively by it.
type Interaction struct {
	ID                  string
	Type                InteractionType
	Status              Status
	ActorID             string
	ActorRole           string
	ProviderID          string
	Quantity            int
	TotalCents          int64
	SpecialInstructions string
	MotivationMessage   string
	RejectionReason     string
	// ReservationID is set for donations once the provider accepts; the
	// reservation is the inventory debit the acceptance performed.
	ReservationID *string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// InteractionItem is a priced line snapshot taken when the interaction is
// created.
type InteractionItem struct {
	ID                string
	InteractionID     string
	ListingID         string
	Name              string
	Quantity          int
	PricePerItemCents int64
	TotalPriceCents   int64
	ListingExpiresAt  time.Time
}
