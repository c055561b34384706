package app

import (
	"crypto/rand"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

const pickupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const pickupCodeLength = 6

// newPickupCode returns a short code matching ^[A-Z0-9]{6}$. Uniqueness is
// enforced by the orders table; callers retry on conflict.
func newPickupCode() string {
	b := make([]byte, pickupCodeLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID-derived code rather than panic.
		id := uuid.New()
		copy(b, id[:pickupCodeLength])
	}
	for i := range b {
		b[i] = pickupCodeAlphabet[int(b[i])%len(pickupCodeAlphabet)]
	}
	return string(b)
}
