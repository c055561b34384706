package http

import (
	"context"
	"net/http"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/go-chi/chi/v5"
)

type DonationAPI interface {
	Request(ctx context.Context, in app.RequestDonationInput) (app.DonationResult, error)
	Accept(ctx context.Context, providerID, interactionID string) (app.DonationResult, error)
	Reject(ctx context.Context, providerID, interactionID, reason string) (app.DonationResult, error)
	Cancel(ctx context.Context, requesterID, interactionID string) (app.DonationResult, error)
	Prepare(ctx context.Context, providerID, interactionID string) (app.DonationResult, error)
	Complete(ctx context.Context, providerID, interactionID, pickupCode string) (app.DonationResult, error)
}

type donationResponse struct {
	InteractionID     string `json:"interaction_id"`
	InteractionStatus string `json:"interaction_status"`
	OrderID           string `json:"order_id"`
	OrderStatus       string `json:"order_status"`
	PickupCode        string `json:"pickup_code,omitempty"`
	Quantity          int    `json:"quantity"`
	RejectionReason   string `json:"rejection_reason,omitempty"`
}

func newDonationResponse(res app.DonationResult) donationResponse {
	return donationResponse{
		InteractionID:     res.Interaction.ID,
		InteractionStatus: string(res.Interaction.Status),
		OrderID:           res.Order.ID,
		OrderStatus:       string(res.Order.Status),
		PickupCode:        res.Order.PickupCode,
		Quantity:          res.Interaction.Quantity,
		RejectionReason:   res.Interaction.RejectionReason,
	}
}

type requestDonationRequest struct {
	ListingID           string `json:"listing_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
	MotivationMessage   string `json:"motivation_message"`
}

func (h *Handler) requestDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleNGO) {
		return
	}

	var req requestDonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "listing_id is required")
		return
	}

	result, err := h.donations.Request(r.Context(), app.RequestDonationInput{
		NGOUserID:           actor.ID,
		ListingID:           req.ListingID,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
		MotivationMessage:   req.MotivationMessage,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDonationResponse(result))
}

func (h *Handler) acceptDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	result, err := h.donations.Accept(r.Context(), actor.ID, chi.URLParam(r, "donationID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDonationResponse(result))
}

type rejectDonationRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	var req rejectDonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.donations.Reject(r.Context(), actor.ID, chi.URLParam(r, "donationID"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDonationResponse(result))
}

func (h *Handler) cancelDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleNGO) {
		return
	}

	result, err := h.donations.Cancel(r.Context(), actor.ID, chi.URLParam(r, "donationID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDonationResponse(result))
}

func (h *Handler) prepareDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	result, err := h.donations.Prepare(r.Context(), actor.ID, chi.URLParam(r, "donationID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDonationResponse(result))
}

type completeDonationRequest struct {
	PickupCode string `json:"pickup_code"`
}

func (h *Handler) completeDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	var req completeDonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.donations.Complete(r.Context(), actor.ID, chi.URLParam(r, "donationID"), req.PickupCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDonationResponse(result))
}
