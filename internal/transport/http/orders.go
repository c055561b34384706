package http

import (
	"context"
	"net/http"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrderAPI interface {
	ListForActor(ctx context.Context, actorID string) ([]domain.Order, error)
	ListForProvider(ctx context.Context, providerID string) ([]domain.Order, error)
	Detail(ctx context.Context, callerID, orderID string) (app.OrderDetail, error)
	UpdateStatus(ctx context.Context, in app.UpdateOrderStatusInput) (domain.Order, error)
}

type orderResponse struct {
	ID            string    `json:"id"`
	InteractionID string    `json:"interaction_id"`
	Status        string    `json:"status"`
	PickupStart   time.Time `json:"pickup_start"`
	PickupEnd     time.Time `json:"pickup_end"`
	PickupCode    string    `json:"pickup_code"`
	CreatedAt     time.Time `json:"created_at"`
}

func newOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		InteractionID: o.InteractionID,
		Status:        string(o.Status),
		PickupStart:   o.PickupStart,
		PickupEnd:     o.PickupEnd,
		PickupCode:    o.PickupCode,
		CreatedAt:     o.CreatedAt,
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var (
		orders []domain.Order
		err    error
	)
	if actor.Role == roleProvider {
		orders, err = h.orders.ListForProvider(r.Context(), actor.ID)
	} else {
		orders, err = h.orders.ListForActor(r.Context(), actor.ID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

type orderItemResponse struct {
	ListingID         string `json:"listing_id"`
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	PricePerItemCents int64  `json:"price_per_item_cents"`
	TotalPriceCents   int64  `json:"total_price_cents"`
}

type historyEntryResponse struct {
	Kind      string    `json:"entity"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ActorID   string    `json:"actor_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type orderDetailResponse struct {
	Order             orderResponse          `json:"order"`
	InteractionType   string                 `json:"interaction_type"`
	InteractionStatus string                 `json:"interaction_status"`
	TotalCents        int64                  `json:"total_cents"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	Items             []orderItemResponse    `json:"items"`
	History           []historyEntryResponse `json:"history"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	detail, err := h.orders.Detail(r.Context(), actor.ID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := orderDetailResponse{
		Order:             newOrderResponse(detail.Order),
		InteractionType:   string(detail.Interaction.Type),
		InteractionStatus: string(detail.Interaction.Status),
		TotalCents:        detail.Interaction.TotalCents,
		CompletedAt:       detail.Interaction.CompletedAt,
		Items:             make([]orderItemResponse, 0, len(detail.Items)),
		History:           make([]historyEntryResponse, 0, len(detail.History)),
	}
	for _, it := range detail.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ListingID:         it.ListingID,
			Name:              it.Name,
			Quantity:          it.Quantity,
			PricePerItemCents: it.PricePerItemCents,
			TotalPriceCents:   it.TotalPriceCents,
		})
	}
	for _, e := range detail.History {
		resp.History = append(resp.History, historyEntryResponse{
			Kind:      string(e.Kind),
			OldStatus: string(e.OldStatus),
			NewStatus: string(e.NewStatus),
			ActorID:   e.ActorID,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateOrderStatusRequest struct {
	Status     string `json:"status"`
	PickupCode string `json:"pickup_code"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if !requireRole(w, actor, roleProvider) {
		return
	}

	var req updateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "status is required")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), app.UpdateOrderStatusInput{
		ProviderID: actor.ID,
		OrderID:    chi.URLParam(r, "orderID"),
		NewStatus:  domain.Status(req.Status),
		PickupCode: req.PickupCode,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}
