package app

import (
	"context"
	"testing"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestListingService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	valid := CreateListingInput{
		ProviderID:           "provider-1",
		Name:                 "Surplus bagels",
		UnitPriceCents:       600,
		DiscountedPriceCents: 250,
		TotalQuantity:        12,
		ExpiresAt:            now.Add(24 * time.Hour),
		PickupStart:          now.Add(2 * time.Hour),
		PickupEnd:            now.Add(6 * time.Hour),
	}

	t.Run("starts active with full availability", func(t *testing.T) {
		store := newFakeStore()
		svc := NewListingService(store, clock.NewFixed(now))

		listing, err := svc.Create(context.Background(), valid)
		require.NoError(t, err)
		require.NotEmpty(t, listing.ID)
		require.Equal(t, domain.ListingStatusActive, listing.Status)
		require.Equal(t, 12, listing.AvailableQuantity)
		require.Equal(t, now, listing.CreatedAt)
	})

	t.Run("validation", func(t *testing.T) {
		store := newFakeStore()
		svc := NewListingService(store, clock.NewFixed(now))

		cases := []struct {
			name   string
			mutate func(*CreateListingInput)
			want   error
		}{
			{"blank name", func(in *CreateListingInput) { in.Name = "" }, domain.ErrListingNameRequired},
			{"zero quantity", func(in *CreateListingInput) { in.TotalQuantity = 0 }, domain.ErrInvalidTotalQuantity},
			{"negative price", func(in *CreateListingInput) { in.UnitPriceCents = -1 }, domain.ErrInvalidPrice},
			{"discount above unit price", func(in *CreateListingInput) { in.DiscountedPriceCents = 700 }, domain.ErrInvalidPrice},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := valid
				tc.mutate(&in)
				_, err := svc.Create(context.Background(), in)
				require.ErrorIs(t, err, tc.want)
			})
		}
	})
}

func TestListingService_DerivedExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.listings["listing-1"] = domain.Listing{
		ID:        "listing-1",
		Name:      "Old stock",
		Status:    domain.ListingStatusActive,
		ExpiresAt: now.Add(-time.Hour),
	}
	store.listings["listing-2"] = domain.Listing{
		ID:        "listing-2",
		Name:      "Fresh stock",
		Status:    domain.ListingStatusActive,
		ExpiresAt: now.Add(time.Hour),
	}
	svc := NewListingService(store, clock.NewFixed(now))

	expired, err := svc.Get(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Equal(t, domain.ListingStatusExpired, expired.Status)

	// Derivation is read-only.
	require.Equal(t, domain.ListingStatusActive, store.listings["listing-1"].Status)

	fresh, err := svc.Get(context.Background(), "listing-2")
	require.NoError(t, err)
	require.Equal(t, domain.ListingStatusActive, fresh.Status)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	statuses := map[string]domain.ListingStatus{}
	for _, l := range all {
		statuses[l.ID] = l.Status
	}
	require.Equal(t, domain.ListingStatusExpired, statuses["listing-1"])
	require.Equal(t, domain.ListingStatusActive, statuses["listing-2"])
}
