package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusCommitted ReservationStatus = "committed"
)

// Reservation is a temporary hold against a listing's available quantity.
// The counter is debited when the reservation is created; Release credits it
// back, Commit makes the debit permanent without touching the counter again.
type Reservation struct {
	ID        string
	ListingID string
	Quantity  int
	Status    ReservationStatus
	CreatedAt time.Time
}

// CheckoutSession links a snapshot of cart lines to the reservations taken
// for them. It must be completed or expired; expiry releases every held
// reservation.
type CheckoutSession struct {
	ID          string
	CustomerID  string
	ExpiresAt   time.Time
	IsActive    bool
	CreatedAt   time.Time
	CompletedAt *time.Time
	Lines       []SessionLine
}

// SessionLine snapshots the listing at reservation time so later pricing is
// immune to catalog edits.
type SessionLine struct {
	ID                   string
	SessionID            string
	ListingID            string
	ReservationID        string
	ProviderID           string
	ListingName          string
	Quantity             int
	UnitPriceCents       int64
	DiscountedPriceCents int64
	ListingExpiresAt     time.Time
	PickupStart          time.Time
	PickupEnd            time.Time
}

func (s CheckoutSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
