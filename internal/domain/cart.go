package domain

import "time"

// Cart is a per-customer staging area. Lines never hold inventory by
// themselves; only a checkout session does.
type Cart struct {
	ID         string
	CustomerID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Lines      []CartLine
}

// CartLine joins a cart entry with the listing fields needed to price and
// validate it. The price columns reflect the listing at read time, not a
// stored snapshot.
type CartLine struct {
	ID                   string
	ListingID            string
	ListingName          string
	Quantity             int
	UnitPriceCents       int64
	DiscountedPriceCents int64
	ListingExpiresAt     time.Time
}

func (c Cart) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// SubtotalCents prices the cart at the discounted rate.
func (c Cart) SubtotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.DiscountedPriceCents * int64(l.Quantity)
	}
	return total
}

func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}
