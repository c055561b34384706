package app

import (
	"context"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

type OrderQueryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetInteraction(ctx context.Context, interactionID string) (domain.Interaction, error)
	GetInteractionForUpdate(ctx context.Context, interactionID string) (domain.Interaction, error)
	GetOrderByInteraction(ctx context.Context, interactionID string) (domain.Order, error)
	GetInteractionItems(ctx context.Context, interactionID string) ([]domain.InteractionItem, error)
	GetStatusHistory(ctx context.Context, interactionID string) ([]domain.StatusHistoryEntry, error)
	ListOrdersByActor(ctx context.Context, actorID string) ([]domain.Order, error)
	ListOrdersByProvider(ctx context.Context, providerID string) ([]domain.Order, error)
}

// OrderService exposes order listing/detail and provider-driven fulfillment
// transitions for purchase orders.
type OrderService struct {
	repo     OrderQueryRepository
	status   *StatusRecorder
	notifier Notifier
	clock    clock.Clock
}

func NewOrderService(repo OrderQueryRepository, status *StatusRecorder, notifier Notifier, clk clock.Clock) *OrderService {
	return &OrderService{repo: repo, status: status, notifier: notifier, clock: clk}
}

// OrderDetail aggregates everything a caller needs to render one order.
type OrderDetail struct {
	Order       domain.Order
	Interaction domain.Interaction
	Items       []domain.InteractionItem
	History     []domain.StatusHistoryEntry
}

// ListForActor returns the orders belonging to the requesting customer or
// NGO user.
func (s *OrderService) ListForActor(ctx context.Context, actorID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByActor(ctx, actorID)
}

// ListForProvider returns the orders against the provider's listings.
func (s *OrderService) ListForProvider(ctx context.Context, providerID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByProvider(ctx, providerID)
}

// Detail returns the order with its interaction, items and status history.
// Only the actor or the counterparty provider may view it.
func (s *OrderService) Detail(ctx context.Context, callerID, orderID string) (OrderDetail, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	interaction, err := s.repo.GetInteraction(ctx, order.InteractionID)
	if err != nil {
		return OrderDetail{}, err
	}
	if interaction.ActorID != callerID && interaction.ProviderID != callerID {
		return OrderDetail{}, domain.ErrForbidden
	}
	items, err := s.repo.GetInteractionItems(ctx, order.InteractionID)
	if err != nil {
		return OrderDetail{}, err
	}
	history, err := s.repo.GetStatusHistory(ctx, order.InteractionID)
	if err != nil {
		return OrderDetail{}, err
	}
	return OrderDetail{Order: order, Interaction: interaction, Items: items, History: history}, nil
}

type UpdateOrderStatusInput struct {
	ProviderID string
	OrderID    string
	NewStatus  domain.Status
	// PickupCode must match the order's code when transitioning to completed.
	PickupCode string
}

// UpdateStatus applies a provider-driven fulfillment transition. Completion
// requires the pickup code and propagates onto the interaction.
func (s *OrderService) UpdateStatus(ctx context.Context, in UpdateOrderStatusInput) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrder(txCtx, in.OrderID)
		if err != nil {
			return err
		}
		interaction, err := s.repo.GetInteractionForUpdate(txCtx, order.InteractionID)
		if err != nil {
			return err
		}
		if interaction.ProviderID != in.ProviderID {
			return domain.ErrForbidden
		}
		if in.NewStatus == domain.StatusCompleted && in.PickupCode != order.PickupCode {
			return domain.ErrPickupCodeMismatch
		}

		if err := s.status.TransitionOrder(txCtx, &interaction, &order, in.NewStatus, in.ProviderID, "order status updated"); err != nil {
			return err
		}

		// Keep the interaction's lifecycle in step with intermediate
		// fulfillment stages; completion is already propagated.
		if in.NewStatus == domain.StatusReady && interaction.Status == domain.StatusConfirmed {
			if err := s.status.TransitionInteraction(txCtx, &interaction, domain.StatusReady, in.ProviderID, "order ready"); err != nil {
				return err
			}
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.notifier.Notify(ctx, result.InteractionID, "order_"+string(in.NewStatus))
	return result, nil
}
