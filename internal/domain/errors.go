package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound         = errors.New("listing not found")
	ErrListingExpired          = errors.New("listing expired")
	ErrListingInactive         = errors.New("listing inactive")
	ErrInsufficientQuantity    = errors.New("insufficient quantity")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidTotalQuantity    = errors.New("invalid total quantity")
	ErrInvalidPrice            = errors.New("invalid price")
	ErrListingNameRequired     = errors.New("listing name required")
	ErrCartNotFound            = errors.New("cart not found")
	ErrCartLineNotFound        = errors.New("cart line not found")
	ErrCartLimitExceeded       = errors.New("cart item limit exceeded")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrSessionNotFound         = errors.New("checkout session not found")
	ErrSessionAlreadyActive    = errors.New("checkout session already active")
	ErrSessionExpired          = errors.New("checkout session expired")
	ErrSessionNotActive        = errors.New("checkout session not active")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrReservationReleased     = errors.New("reservation already released")
	ErrPickupCodeMismatch      = errors.New("pickup code mismatch")
	ErrPickupCodeConflict      = errors.New("pickup code conflict")
	ErrInteractionNotFound     = errors.New("interaction not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrIllegalTransition       = errors.New("illegal status transition")
	ErrPaymentFailed           = errors.New("payment failed")
	ErrNotDonation             = errors.New("interaction is not a donation")
	ErrRejectionReasonRequired = errors.New("rejection reason required")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidID               = errors.New("invalid id")
)

// InsufficientQuantityError carries the quantities involved so callers can
// surface how much is actually left.
type InsufficientQuantityError struct {
	ListingID string
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for listing %s: requested %d, available %d",
		e.ListingID, e.Requested, e.Available)
}

func (e *InsufficientQuantityError) Is(target error) bool {
	return target == ErrInsufficientQuantity
}

// IllegalTransitionError reports a status edge missing from the transition
// table, together with the edges that would have been legal.
type IllegalTransitionError struct {
	Kind    EntityKind
	From    Status
	To      Status
	Allowed []Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s (allowed: %v)", e.Kind, e.From, e.To, e.Allowed)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
