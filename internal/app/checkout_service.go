package app

import (
	"context"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
)

type SessionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetActiveSessionByCustomer(ctx context.Context, customerID string) (*domain.CheckoutSession, error)
	GetSessionForUpdate(ctx context.Context, sessionID string) (domain.CheckoutSession, error)
	CreateSession(ctx context.Context, session domain.CheckoutSession) error
	DeactivateSession(ctx context.Context, sessionID string, completedAt *time.Time) error
	ListExpiredActiveSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
}

// CheckoutService turns a cart into a time-boxed set of reservations and
// reclaims them on expiry. Expiration is driven both by the periodic sweeper
// and opportunistically on lookup; both paths are idempotent and safe to
// race with Complete.
type CheckoutService struct {
	repo    SessionRepository
	ledger  *LedgerService
	clock   clock.Clock
	metrics *metrics.Metrics
	holdTTL time.Duration
}

const defaultHoldTTL = 30 * time.Minute

type CheckoutServiceOption func(*CheckoutService)

// WithHoldTTL overrides how long reservations are held for a session.
func WithHoldTTL(d time.Duration) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func NewCheckoutService(repo SessionRepository, ledger *LedgerService, clk clock.Clock, m *metrics.Metrics, opts ...CheckoutServiceOption) *CheckoutService {
	svc := &CheckoutService{
		repo:    repo,
		ledger:  ledger,
		clock:   clk,
		metrics: m,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start reserves every cart line atomically. If any reservation fails the
// transaction rolls back and no quantity is withheld (all-or-nothing).
func (s *CheckoutService) Start(ctx context.Context, customerID string) (domain.CheckoutSession, error) {
	now := s.clock.Now()
	var result domain.CheckoutSession

	// An expired leftover session must not block a new checkout; reclaim it
	// first in its own transaction.
	if active, err := s.peekActive(ctx, customerID); err != nil {
		return domain.CheckoutSession{}, err
	} else if active != nil && active.Expired(now) {
		if err := s.Expire(ctx, active.ID); err != nil {
			return domain.CheckoutSession{}, err
		}
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		active, err := s.repo.GetActiveSessionByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if active != nil && !active.Expired(now) {
			return domain.ErrSessionAlreadyActive
		}

		cart, err := s.repo.GetCartByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if cart == nil || len(cart.Lines) == 0 || cart.Expired(now) {
			return domain.ErrEmptyCart
		}

		session := domain.CheckoutSession{
			ID:         newID(),
			CustomerID: customerID,
			ExpiresAt:  now.Add(s.holdTTL),
			IsActive:   true,
			CreatedAt:  now,
		}

		for _, line := range cart.Lines {
			res, err := s.ledger.Reserve(txCtx, line.ListingID, line.Quantity)
			if err != nil {
				// Rollback releases every reservation taken in this call.
				return err
			}
			listing, err := s.repo.GetListing(txCtx, line.ListingID)
			if err != nil {
				return err
			}
			session.Lines = append(session.Lines, domain.SessionLine{
				ID:                   newID(),
				SessionID:            session.ID,
				ListingID:            line.ListingID,
				ReservationID:        res.ID,
				ProviderID:           listing.ProviderID,
				ListingName:          listing.Name,
				Quantity:             line.Quantity,
				UnitPriceCents:       listing.UnitPriceCents,
				DiscountedPriceCents: listing.DiscountedPriceCents,
				ListingExpiresAt:     listing.ExpiresAt,
				PickupStart:          listing.PickupStart,
				PickupEnd:            listing.PickupEnd,
			})
		}

		if err := s.repo.CreateSession(txCtx, session); err != nil {
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	return result, nil
}

// Get returns the session, expiring it opportunistically when its hold has
// lapsed.
func (s *CheckoutService) Get(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	now := s.clock.Now()

	session, err := s.peek(ctx, sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if session.IsActive && session.Expired(now) {
		if err := s.Expire(ctx, sessionID); err != nil {
			return domain.CheckoutSession{}, err
		}
		session.IsActive = false
	}
	return session, nil
}

// Expire releases every held reservation of a lapsed session and flips it
// inactive. Redundant calls are no-ops.
func (s *CheckoutService) Expire(ctx context.Context, sessionID string) error {
	now := s.clock.Now()

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		session, err := s.repo.GetSessionForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsActive || !session.Expired(now) {
			return nil
		}
		for _, line := range session.Lines {
			if err := s.ledger.Release(txCtx, line.ReservationID); err != nil {
				return err
			}
		}
		return s.repo.DeactivateSession(txCtx, sessionID, nil)
	})
}

// Complete commits the session's reservations for the given lines and
// deactivates it. Called by the purchase flow once downstream records are
// durably created; must run inside the caller's transaction.
func (s *CheckoutService) Complete(ctx context.Context, sessionID string) error {
	now := s.clock.Now()
	return s.repo.DeactivateSession(ctx, sessionID, &now)
}

// SweepExpired expires every active session whose hold has lapsed. Each
// session is handled in its own transaction so one failure does not stall
// the rest of the sweep.
func (s *CheckoutService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	ids, err := s.repo.ListExpiredActiveSessionIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		if err := s.Expire(ctx, id); err != nil {
			return swept, err
		}
		swept++
		if s.metrics != nil {
			s.metrics.SweptSessions.Inc()
		}
	}
	return swept, nil
}

func (s *CheckoutService) peek(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		session, err = s.repo.GetSessionForUpdate(txCtx, sessionID)
		return err
	})
	return session, err
}

func (s *CheckoutService) peekActive(ctx context.Context, customerID string) (*domain.CheckoutSession, error) {
	var session *domain.CheckoutSession
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		session, err = s.repo.GetActiveSessionByCustomer(txCtx, customerID)
		return err
	})
	return session, err
}
