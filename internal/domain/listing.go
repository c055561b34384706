package domain

import "time"

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSoldOut  ListingStatus = "sold_out"
	ListingStatusExpired  ListingStatus = "expired"
	ListingStatusInactive ListingStatus = "inactive"
)

// Listing represents a surplus-food offer. AvailableQuantity is the shared
// counter every reservation debits; it is only ever mutated through the
// inventory ledger, never by direct assignment.
type Listing struct {
	ID                   string
	ProviderID           string
	Name                 string
	Description          string
	UnitPriceCents       int64
	DiscountedPriceCents int64
	TotalQuantity        int
	AvailableQuantity    int
	Status               ListingStatus
	ExpiresAt            time.Time
	PickupStart          time.Time
	PickupEnd            time.Time
	CreatedAt            time.Time
}

// Purchasable reports whether the listing can be added to a cart or reserved
// at the given instant.
func (l Listing) Purchasable(now time.Time) error {
	switch l.Status {
	case ListingStatusInactive:
		return ErrListingInactive
	case ListingStatusExpired:
		return ErrListingExpired
	}
	if !l.ExpiresAt.After(now) {
		return ErrListingExpired
	}
	return nil
}
