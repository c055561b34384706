package app

import (
	"context"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
)

type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error)
	UpdateListingQuantity(ctx context.Context, listingID string, available int, status domain.ListingStatus) error
	CreateReservation(ctx context.Context, r domain.Reservation) error
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error
}

// LedgerService owns every mutation of a listing's available quantity.
// All three operations serialize per listing via a row lock, so concurrent
// reserves against the same listing never both succeed on the last unit.
type LedgerService struct {
	repo    LedgerRepository
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewLedgerService(repo LedgerRepository, clk clock.Clock, m *metrics.Metrics) *LedgerService {
	return &LedgerService{repo: repo, clock: clk, metrics: m}
}

// Reserve atomically debits the listing's available quantity and records a
// held reservation. Fails with InsufficientQuantityError when the listing
// cannot cover the request.
func (s *LedgerService) Reserve(ctx context.Context, listingID string, qty int) (domain.Reservation, error) {
	if qty <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListingForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if err := listing.Purchasable(now); err != nil {
			return err
		}
		if listing.AvailableQuantity < qty {
			return &domain.InsufficientQuantityError{
				ListingID: listingID,
				Available: listing.AvailableQuantity,
				Requested: qty,
			}
		}

		available := listing.AvailableQuantity - qty
		status := listing.Status
		if available == 0 && status == domain.ListingStatusActive {
			status = domain.ListingStatusSoldOut
		}
		if err := s.repo.UpdateListingQuantity(txCtx, listingID, available, status); err != nil {
			return err
		}

		res := domain.Reservation{
			ID:        newID(),
			ListingID: listingID,
			Quantity:  qty,
			Status:    domain.ReservationStatusHeld,
			CreatedAt: now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		s.count("reserve", "error")
		return domain.Reservation{}, err
	}
	s.count("reserve", "ok")
	return result, nil
}

// Release credits the reservation's quantity back to the listing. Releasing
// a reservation that is no longer held is a no-op, not an error.
func (s *LedgerService) Release(ctx context.Context, reservationID string) error {
	now := s.clock.Now()

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusHeld {
			return nil
		}

		listing, err := s.repo.GetListingForUpdate(txCtx, res.ListingID)
		if err != nil {
			return err
		}

		available := listing.AvailableQuantity + res.Quantity
		status := listing.Status
		if status == domain.ListingStatusSoldOut && available > 0 && listing.ExpiresAt.After(now) {
			status = domain.ListingStatusActive
		}
		if err := s.repo.UpdateListingQuantity(txCtx, res.ListingID, available, status); err != nil {
			return err
		}
		return s.repo.UpdateReservationStatus(txCtx, reservationID, domain.ReservationStatusReleased)
	})
	if err != nil {
		s.count("release", "error")
		return err
	}
	s.count("release", "ok")
	return nil
}

// Commit marks a held reservation as permanently consumed. The counter was
// already debited at Reserve time, so this is pure bookkeeping. Committing
// twice is a no-op; committing a released reservation is an error.
func (s *LedgerService) Commit(ctx context.Context, reservationID string) error {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		switch res.Status {
		case domain.ReservationStatusCommitted:
			return nil
		case domain.ReservationStatusReleased:
			return domain.ErrReservationReleased
		}
		return s.repo.UpdateReservationStatus(txCtx, reservationID, domain.ReservationStatusCommitted)
	})
	if err != nil {
		s.count("commit", "error")
		return err
	}
	s.count("commit", "ok")
	return nil
}

func (s *LedgerService) count(op, outcome string) {
	if s.metrics != nil {
		s.metrics.LedgerOps.WithLabelValues(op, outcome).Inc()
	}
}
