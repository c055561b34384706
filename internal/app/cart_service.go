package app

import (
	"context"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
)

type CartRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart domain.Cart) error
	UpdateCartExpiry(ctx context.Context, cartID string, expiresAt time.Time) error
	AddCartLine(ctx context.Context, cartID string, line domain.CartLine) error
	UpdateCartLineQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteCartLine(ctx context.Context, lineID string) error
	DeleteCartLines(ctx context.Context, cartID string) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	ListExpiredCartIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// CartService manages the per-customer staging area. Cart lines never hold
// inventory; quantity checks at add time are advisory and are re-validated
// atomically when a checkout session reserves.
type CartService struct {
	repo     CartRepository
	clock    clock.Clock
	metrics  *metrics.Metrics
	ttl      time.Duration
	maxItems int
}

const (
	defaultCartTTL      = 30 * time.Minute
	defaultCartMaxItems = 50
	sweepBatchSize      = 100
)

type CartServiceOption func(*CartService)

// WithCartTTL overrides the rolling expiration applied on every mutation.
func WithCartTTL(d time.Duration) CartServiceOption {
	return func(s *CartService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithCartMaxItems overrides the cap on total items per cart.
func WithCartMaxItems(n int) CartServiceOption {
	return func(s *CartService) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

func NewCartService(repo CartRepository, clk clock.Clock, m *metrics.Metrics, opts ...CartServiceOption) *CartService {
	svc := &CartService{
		repo:     repo,
		clock:    clk,
		metrics:  m,
		ttl:      defaultCartTTL,
		maxItems: defaultCartMaxItems,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Get returns the customer's cart, lazily clearing it when its expiration
// has passed. Expiry never touches inventory.
func (s *CartService) Get(ctx context.Context, customerID string) (domain.Cart, error) {
	now := s.clock.Now()
	var result domain.Cart

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetCartByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if cart == nil {
			result = domain.Cart{CustomerID: customerID}
			return nil
		}
		if cart.Expired(now) && len(cart.Lines) > 0 {
			if err := s.repo.DeleteCartLines(txCtx, cart.ID); err != nil {
				return err
			}
			cart.Lines = nil
		}
		result = *cart
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return result, nil
}

type AddCartItemInput struct {
	CustomerID string
	ListingID  string
	Quantity   int
}

// AddItem merges the listing into the cart, re-validating against the
// listing's current availability and expiry, and resets the cart's rolling
// expiration.
func (s *CartService) AddItem(ctx context.Context, in AddCartItemInput) (domain.Cart, error) {
	if in.Quantity <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	var result domain.Cart

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListing(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if err := listing.Purchasable(now); err != nil {
			return err
		}

		cart, err := s.repo.GetCartByCustomer(txCtx, in.CustomerID)
		if err != nil {
			return err
		}
		if cart == nil {
			created := domain.Cart{
				ID:         newID(),
				CustomerID: in.CustomerID,
				ExpiresAt:  expiresAt,
				CreatedAt:  now,
			}
			if err := s.repo.CreateCart(txCtx, created); err != nil {
				return err
			}
			cart = &created
		} else if cart.Expired(now) && len(cart.Lines) > 0 {
			if err := s.repo.DeleteCartLines(txCtx, cart.ID); err != nil {
				return err
			}
			cart.Lines = nil
		}

		merged := in.Quantity
		var existing *domain.CartLine
		for i := range cart.Lines {
			if cart.Lines[i].ListingID == in.ListingID {
				existing = &cart.Lines[i]
				merged += existing.Quantity
				break
			}
		}

		// Advisory check only; the checkout session re-checks atomically.
		if merged > listing.AvailableQuantity {
			return &domain.InsufficientQuantityError{
				ListingID: in.ListingID,
				Available: listing.AvailableQuantity,
				Requested: merged,
			}
		}
		if cart.TotalItems()+in.Quantity > s.maxItems {
			return domain.ErrCartLimitExceeded
		}

		if existing != nil {
			if err := s.repo.UpdateCartLineQuantity(txCtx, existing.ID, merged); err != nil {
				return err
			}
			existing.Quantity = merged
		} else {
			line := domain.CartLine{
				ID:                   newID(),
				ListingID:            in.ListingID,
				ListingName:          listing.Name,
				Quantity:             in.Quantity,
				UnitPriceCents:       listing.UnitPriceCents,
				DiscountedPriceCents: listing.DiscountedPriceCents,
				ListingExpiresAt:     listing.ExpiresAt,
			}
			if err := s.repo.AddCartLine(txCtx, cart.ID, line); err != nil {
				return err
			}
			cart.Lines = append(cart.Lines, line)
		}

		if err := s.repo.UpdateCartExpiry(txCtx, cart.ID, expiresAt); err != nil {
			return err
		}
		cart.ExpiresAt = expiresAt
		result = *cart
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return result, nil
}

// RemoveItem deletes a line from the customer's cart and resets the rolling
// expiration.
func (s *CartService) RemoveItem(ctx context.Context, customerID, lineID string) error {
	now := s.clock.Now()

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetCartByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if cart == nil {
			return domain.ErrCartNotFound
		}

		found := false
		for _, l := range cart.Lines {
			if l.ID == lineID {
				found = true
				break
			}
		}
		if !found {
			return domain.ErrCartLineNotFound
		}

		if err := s.repo.DeleteCartLine(txCtx, lineID); err != nil {
			return err
		}
		return s.repo.UpdateCartExpiry(txCtx, cart.ID, now.Add(s.ttl))
	})
}

// Clear removes every line from the customer's cart.
func (s *CartService) Clear(ctx context.Context, customerID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetCartByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil
		}
		return s.repo.DeleteCartLines(txCtx, cart.ID)
	})
}

// SweepExpired clears lines of carts whose expiration has passed. Safe to
// race with lazy expiry; both paths only delete lines.
func (s *CartService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	ids, err := s.repo.ListExpiredCartIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			return s.repo.DeleteCartLines(txCtx, id)
		})
		if err != nil {
			return swept, err
		}
		swept++
		if s.metrics != nil {
			s.metrics.SweptCarts.Inc()
		}
	}
	return swept, nil
}
