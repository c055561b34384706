package app

import (
	"context"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

type ListingRepositoryPort interface {
	CreateListing(ctx context.Context, l domain.Listing) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	ListListings(ctx context.Context) ([]domain.Listing, error)
}

// ListingService covers the minimal provider surface the engine needs:
// creating listings and advisory availability reads. Full catalog CRUD is an
// external collaborator.
type ListingService struct {
	repo  ListingRepositoryPort
	clock clock.Clock
}

func NewListingService(repo ListingRepositoryPort, clk clock.Clock) *ListingService {
	return &ListingService{repo: repo, clock: clk}
}

type CreateListingInput struct {
	ProviderID           string
	Name                 string
	Description          string
	UnitPriceCents       int64
	DiscountedPriceCents int64
	TotalQuantity        int
	ExpiresAt            time.Time
	PickupStart          time.Time
	PickupEnd            time.Time
}

func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	if in.Name == "" {
		return domain.Listing{}, domain.ErrListingNameRequired
	}
	if in.TotalQuantity <= 0 {
		return domain.Listing{}, domain.ErrInvalidTotalQuantity
	}
	if in.UnitPriceCents < 0 || in.DiscountedPriceCents < 0 || in.DiscountedPriceCents > in.UnitPriceCents {
		return domain.Listing{}, domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	listing := domain.Listing{
		ID:                   newID(),
		ProviderID:           in.ProviderID,
		Name:                 in.Name,
		Description:          in.Description,
		UnitPriceCents:       in.UnitPriceCents,
		DiscountedPriceCents: in.DiscountedPriceCents,
		TotalQuantity:        in.TotalQuantity,
		AvailableQuantity:    in.TotalQuantity,
		Status:               domain.ListingStatusActive,
		ExpiresAt:            in.ExpiresAt,
		PickupStart:          in.PickupStart,
		PickupEnd:            in.PickupEnd,
		CreatedAt:            now,
	}
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// Get returns the listing with its status derived against the clock; an
// active listing past its expiry reads as expired without a write.
func (s *ListingService) Get(ctx context.Context, listingID string) (domain.Listing, error) {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	return s.derive(listing), nil
}

func (s *ListingService) List(ctx context.Context) ([]domain.Listing, error) {
	listings, err := s.repo.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		listings[i] = s.derive(listings[i])
	}
	return listings, nil
}

func (s *ListingService) derive(l domain.Listing) domain.Listing {
	if l.Status == domain.ListingStatusActive && !l.ExpiresAt.After(s.clock.Now()) {
		l.Status = domain.ListingStatusExpired
	}
	return l
}
