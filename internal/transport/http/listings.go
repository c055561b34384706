package http

import (
	"context"
	"net/http"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ListingAPI interface {
	Create(ctx context.Context, in app.CreateListingInput) (domain.Listing, error)
	Get(ctx context.Context, listingID string) (domain.Listing, error)
	List(ctx context.Context) ([]domain.Listing, error)
}

type listingResponse struct {
	ID                   string    `json:"id"`
	ProviderID           string    `json:"provider_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	TotalQuantity        int       `json:"total_quantity"`
	AvailableQuantity    int       `json:"available_quantity"`
	Status               string    `json:"status"`
	ExpiresAt            time.Time `json:"expires_at"`
	PickupStart          time.Time `json:"pickup_start"`
	PickupEnd            time.Time `json:"pickup_end"`
	CreatedAt            time.Time `json:"created_at"`
}

func newListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:                   l.ID,
		ProviderID:           l.ProviderID,
		Name:                 l.Name,
		Description:          l.Description,
		UnitPriceCents:       l.UnitPriceCents,
		DiscountedPriceCents: l.DiscountedPriceCents,
		TotalQuantity:        l.TotalQuantity,
		AvailableQuantity:    l.AvailableQuantity,
		Status:               string(l.Status),
		ExpiresAt:            l.ExpiresAt,
		PickupStart:          l.PickupStart,
		PickupEnd:            l.PickupEnd,
		CreatedAt:            l.CreatedAt,
	}
}

type createListingRequest struct {
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	TotalQuantity        int       `json:"total_quantity"`
	ExpiresAt            time.Time `json:"expires_at"`
	PickupStart          time.Time `json:"pickup_start"`
	PickupEnd            time.Time `json:"pickup_end"`
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.listings.Create(r.Context(), app.CreateListingInput{
		ProviderID:           actor.ID,
		Name:                 req.Name,
		Description:          req.Description,
		UnitPriceCents:       req.UnitPriceCents,
		DiscountedPriceCents: req.DiscountedPriceCents,
		TotalQuantity:        req.TotalQuantity,
		ExpiresAt:            req.ExpiresAt,
		PickupStart:          req.PickupStart,
		PickupEnd:            req.PickupEnd,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newListingResponse(listing))
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Get(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListingResponse(listing))
}

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, newListingResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}
