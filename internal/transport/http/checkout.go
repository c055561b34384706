package http

import (
	"context"
	"net/http"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CheckoutAPI covers session lifecycle; PurchaseAPI covers the terminal
// purchase step.
type CheckoutAPI interface {
	Start(ctx context.Context, customerID string) (domain.CheckoutSession, error)
	Get(ctx context.Context, sessionID string) (domain.CheckoutSession, error)
	Expire(ctx context.Context, sessionID string) error
}

type PurchaseAPI interface {
	CompletePurchase(ctx context.Context, in app.CompletePurchaseInput) (app.PurchaseResult, error)
}

type sessionLineResponse struct {
	ID                   string    `json:"id"`
	ListingID            string    `json:"listing_id"`
	ListingName          string    `json:"listing_name"`
	Quantity             int       `json:"quantity"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	PickupStart          time.Time `json:"pickup_start"`
	PickupEnd            time.Time `json:"pickup_end"`
}

type sessionResponse struct {
	ID         string                `json:"id"`
	CustomerID string                `json:"customer_id"`
	ExpiresAt  time.Time             `json:"expires_at"`
	IsActive   bool                  `json:"is_active"`
	Lines      []sessionLineResponse `json:"lines"`
}

func newSessionResponse(s domain.CheckoutSession) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		ExpiresAt:  s.ExpiresAt,
		IsActive:   s.IsActive,
		Lines:      make([]sessionLineResponse, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, sessionLineResponse{
			ID:                   l.ID,
			ListingID:            l.ListingID,
			ListingName:          l.ListingName,
			Quantity:             l.Quantity,
			UnitPriceCents:       l.UnitPriceCents,
			DiscountedPriceCents: l.DiscountedPriceCents,
			PickupStart:          l.PickupStart,
			PickupEnd:            l.PickupEnd,
		})
	}
	return resp
}

func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	session, err := h.checkout.Start(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) getCheckoutSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	session, err := h.checkout.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if session.CustomerID != actor.ID {
		writeError(w, http.StatusForbidden, codeForbidden, "session belongs to another customer")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (h *Handler) cancelCheckoutSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.checkout.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if session.CustomerID != actor.ID {
		writeError(w, http.StatusForbidden, codeForbidden, "session belongs to another customer")
		return
	}
	if err := h.checkout.Expire(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completePurchaseRequest struct {
	PaymentMethod       string `json:"payment_method"`
	SpecialInstructions string `json:"special_instructions"`
}

type purchaseLineResponse struct {
	InteractionID string    `json:"interaction_id"`
	ListingID     string    `json:"listing_id"`
	ListingName   string    `json:"listing_name"`
	Quantity      int       `json:"quantity"`
	TotalCents    int64     `json:"total_cents"`
	Status        string    `json:"status"`
	OrderID       string    `json:"order_id,omitempty"`
	PickupCode    string    `json:"pickup_code,omitempty"`
	PickupStart   time.Time `json:"pickup_start,omitzero"`
	PickupEnd     time.Time `json:"pickup_end,omitzero"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

type purchaseResponse struct {
	SessionID         string                 `json:"session_id"`
	Lines             []purchaseLineResponse `json:"lines"`
	TotalChargedCents int64                  `json:"total_charged_cents"`
}

func (h *Handler) completePurchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleCustomer) {
		return
	}

	var req completePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "payment_method is required")
		return
	}

	result, err := h.purchases.CompletePurchase(r.Context(), app.CompletePurchaseInput{
		CustomerID:          actor.ID,
		SessionID:           chi.URLParam(r, "sessionID"),
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := purchaseResponse{
		SessionID:         result.SessionID,
		Lines:             make([]purchaseLineResponse, 0, len(result.Lines)),
		TotalChargedCents: result.TotalChargedCents,
	}
	for _, l := range result.Lines {
		resp.Lines = append(resp.Lines, purchaseLineResponse{
			InteractionID: l.InteractionID,
			ListingID:     l.ListingID,
			ListingName:   l.ListingName,
			Quantity:      l.Quantity,
			TotalCents:    l.TotalCents,
			Status:        string(l.Status),
			OrderID:       l.OrderID,
			PickupCode:    l.PickupCode,
			PickupStart:   l.PickupStart,
			PickupEnd:     l.PickupEnd,
			FailureReason: l.FailureReason,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
