package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
)

type StatusStore interface {
	UpdateInteractionStatus(ctx context.Context, interactionID string, status domain.Status, completedAt *time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status) error
	UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.Status, processedAt *time.Time) error
	AppendStatusHistory(ctx context.Context, entry domain.StatusHistoryEntry) error
}

// StatusRecorder applies validated status transitions to interactions,
// orders and payments, cross-propagates between them, and appends the audit
// trail. History append failures are logged and counted but never roll back
// the business transition.
type StatusRecorder struct {
	store   StatusStore
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewStatusRecorder(store StatusStore, clk clock.Clock, logger *slog.Logger, m *metrics.Metrics) *StatusRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusRecorder{store: store, clock: clk, logger: logger, metrics: m}
}

// TransitionInteraction moves the interaction to the given status, stamping
// CompletedAt when it completes. The passed struct is updated in place on
// success.
func (r *StatusRecorder) TransitionInteraction(ctx context.Context, in *domain.Interaction, to domain.Status, actorID, notes string) error {
	if err := domain.ValidateTransition(domain.KindInteraction, in.Status, to); err != nil {
		return err
	}

	var completedAt *time.Time
	if to == domain.StatusCompleted {
		now := r.clock.Now()
		completedAt = &now
	}
	if err := r.store.UpdateInteractionStatus(ctx, in.ID, to, completedAt); err != nil {
		return err
	}

	r.record(ctx, in.ID, domain.KindInteraction, in.Status, to, actorID, notes)
	in.Status = to
	if completedAt != nil {
		in.CompletedAt = completedAt
	}
	return nil
}

// TransitionPayment resolves the payment and propagates onto the owning
// interaction: completed while pending confirms it, failed fails it,
// refunded cancels it.
func (r *StatusRecorder) TransitionPayment(ctx context.Context, in *domain.Interaction, p *domain.Payment, to domain.Status, actorID, notes string) error {
	if err := domain.ValidateTransition(domain.KindPayment, p.Status, to); err != nil {
		return err
	}

	var processedAt *time.Time
	if to == domain.StatusCompleted || to == domain.StatusFailed {
		now := r.clock.Now()
		processedAt = &now
	}
	if err := r.store.UpdatePaymentStatus(ctx, p.ID, to, processedAt); err != nil {
		return err
	}
	r.record(ctx, in.ID, domain.KindPayment, p.Status, to, actorID, notes)
	p.Status = to
	if processedAt != nil {
		p.ProcessedAt = processedAt
	}

	switch to {
	case domain.StatusCompleted:
		if in.Status == domain.StatusPending {
			return r.TransitionInteraction(ctx, in, domain.StatusConfirmed, actorID, "payment completed")
		}
	case domain.StatusFailed:
		return r.TransitionInteraction(ctx, in, domain.StatusFailed, actorID, "payment failed")
	case domain.StatusRefunded:
		return r.TransitionInteraction(ctx, in, domain.StatusCancelled, actorID, "payment refunded")
	}
	return nil
}

// TransitionOrder moves the order and propagates completion onto the owning
// interaction.
func (r *StatusRecorder) TransitionOrder(ctx context.Context, in *domain.Interaction, o *domain.Order, to domain.Status, actorID, notes string) error {
	if err := domain.ValidateTransition(domain.KindOrder, o.Status, to); err != nil {
		return err
	}
	if err := r.store.UpdateOrderStatus(ctx, o.ID, to); err != nil {
		return err
	}
	r.record(ctx, in.ID, domain.KindOrder, o.Status, to, actorID, notes)
	o.Status = to

	if to == domain.StatusCompleted && in.Status != domain.StatusCompleted {
		return r.TransitionInteraction(ctx, in, domain.StatusCompleted, actorID, "order completed")
	}
	return nil
}

func (r *StatusRecorder) record(ctx context.Context, interactionID string, kind domain.EntityKind, from, to domain.Status, actorID, notes string) {
	entry := domain.StatusHistoryEntry{
		ID:            newID(),
		InteractionID: interactionID,
		Kind:          kind,
		OldStatus:     from,
		NewStatus:     to,
		ActorID:       actorID,
		Notes:         notes,
		CreatedAt:     r.clock.Now(),
	}
	if err := r.store.AppendStatusHistory(ctx, entry); err != nil {
		// Audit completeness is a soft guarantee; the transition stands.
		r.logger.ErrorContext(ctx, "status history append failed",
			"interaction_id", interactionID,
			"kind", string(kind),
			"from", string(from),
			"to", string(to),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.HistoryFailures.Inc()
		}
	}
}
