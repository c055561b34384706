package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CartAPI is the slice of the cart service the handlers need.
type CartAPI interface {
	Get(ctx context.Context, customerID string) (domain.Cart, error)
	AddItem(ctx context.Context, in app.AddCartItemInput) (domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, lineID string) error
	Clear(ctx context.Context, customerID string) error
}

type cartLineResponse struct {
	ID                   string    `json:"id"`
	ListingID            string    `json:"listing_id"`
	ListingName          string    `json:"listing_name"`
	Quantity             int       `json:"quantity"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	ListingExpiresAt     time.Time `json:"listing_expires_at"`
}

type cartResponse struct {
	ID            string             `json:"id,omitempty"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	Lines         []cartLineResponse `json:"lines"`
	SubtotalCents int64              `json:"subtotal_cents"`
	TotalItems    int                `json:"total_items"`
}

func newCartResponse(cart domain.Cart) cartResponse {
	resp := cartResponse{
		ID:            cart.ID,
		Lines:         make([]cartLineResponse, 0, len(cart.Lines)),
		SubtotalCents: cart.SubtotalCents(),
		TotalItems:    cart.TotalItems(),
	}
	if cart.ID != "" {
		expires := cart.ExpiresAt
		resp.ExpiresAt = &expires
	}
	for _, l := range cart.Lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ID:                   l.ID,
			ListingID:            l.ListingID,
			ListingName:          l.ListingName,
			Quantity:             l.Quantity,
			UnitPriceCents:       l.UnitPriceCents,
			DiscountedPriceCents: l.DiscountedPriceCents,
			ListingExpiresAt:     l.ListingExpiresAt,
		})
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	cart, err := h.carts.Get(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

type addCartItemRequest struct {
	ListingID string `json:"listing_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	var req addCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "listing_id is required")
		return
	}

	cart, err := h.carts.AddItem(r.Context(), app.AddCartItemInput{
		CustomerID: actor.ID,
		ListingID:  req.ListingID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	lineID := chi.URLParam(r, "lineID")
	if err := h.carts.RemoveItem(r.Context(), actor.ID, lineID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	if err := h.carts.Clear(r.Context(), actor.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}
