package app

import (
	"context"
	"testing"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := func(store *fakeStore) (domain.Interaction, domain.Payment, domain.Order) {
		interaction := domain.Interaction{
			ID:     "int-1",
			Type:   domain.InteractionTypePurchase,
			Status: domain.StatusPending,
		}
		payment := domain.Payment{
			ID:            "pay-1",
			InteractionID: "int-1",
			Status:        domain.StatusPending,
		}
		order := domain.Order{
			ID:            "ord-1",
			InteractionID: "int-1",
			Status:        domain.StatusConfirmed,
			PickupCode:    "ABC123",
		}
		store.interactions[interaction.ID] = interaction
		store.payments[payment.ID] = payment
		store.orders[order.ID] = order
		return interaction, payment, order
	}

	t.Run("payment completion confirms a pending interaction", func(t *testing.T) {
		store := newFakeStore()
		interaction, payment, _ := seed(store)
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		err := rec.TransitionPayment(context.Background(), &interaction, &payment, domain.StatusCompleted, "cust-1", "paid")
		require.NoError(t, err)

		require.Equal(t, domain.StatusCompleted, payment.Status)
		require.NotNil(t, payment.ProcessedAt)
		require.Equal(t, domain.StatusConfirmed, interaction.Status)
		require.Equal(t, domain.StatusConfirmed, store.interactions["int-1"].Status)

		history, err := store.GetStatusHistory(context.Background(), "int-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, domain.KindPayment, history[0].Kind)
		require.Equal(t, domain.KindInteraction, history[1].Kind)
	})

	t.Run("payment failure fails the interaction", func(t *testing.T) {
		store := newFakeStore()
		interaction, payment, _ := seed(store)
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		err := rec.TransitionPayment(context.Background(), &interaction, &payment, domain.StatusFailed, "cust-1", "declined")
		require.NoError(t, err)

		require.Equal(t, domain.StatusFailed, payment.Status)
		require.Equal(t, domain.StatusFailed, interaction.Status)
	})

	t.Run("refund cancels a confirmed interaction", func(t *testing.T) {
		store := newFakeStore()
		interaction, payment, _ := seed(store)
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		require.NoError(t, rec.TransitionPayment(context.Background(), &interaction, &payment, domain.StatusCompleted, "cust-1", "paid"))
		require.NoError(t, rec.TransitionPayment(context.Background(), &interaction, &payment, domain.StatusRefunded, "provider-1", "refunded"))

		require.Equal(t, domain.StatusRefunded, payment.Status)
		require.Equal(t, domain.StatusCancelled, interaction.Status)
	})

	t.Run("order completion stamps the interaction", func(t *testing.T) {
		store := newFakeStore()
		interaction, payment, order := seed(store)
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		require.NoError(t, rec.TransitionPayment(context.Background(), &interaction, &payment, domain.StatusCompleted, "cust-1", "paid"))
		require.NoError(t, rec.TransitionOrder(context.Background(), &interaction, &order, domain.StatusCompleted, "provider-1", "picked up"))

		require.Equal(t, domain.StatusCompleted, order.Status)
		require.Equal(t, domain.StatusCompleted, interaction.Status)
		require.NotNil(t, interaction.CompletedAt)
		require.Equal(t, now, *interaction.CompletedAt)
	})

	t.Run("illegal transition is refused with allowed set", func(t *testing.T) {
		store := newFakeStore()
		interaction, _, _ := seed(store)
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		err := rec.TransitionInteraction(context.Background(), &interaction, domain.StatusReady, "cust-1", "")
		require.ErrorIs(t, err, domain.ErrIllegalTransition)

		var illegal *domain.IllegalTransitionError
		require.ErrorAs(t, err, &illegal)
		require.Equal(t, domain.StatusPending, illegal.From)
		require.Equal(t, domain.StatusReady, illegal.To)
		require.Contains(t, illegal.Allowed, domain.StatusConfirmed)

		require.Equal(t, domain.StatusPending, store.interactions["int-1"].Status)
	})

	t.Run("history failure never blocks the transition", func(t *testing.T) {
		store := newFakeStore()
		interaction, _, _ := seed(store)
		store.failAppendHistory = true
		rec := NewStatusRecorder(store, clock.NewFixed(now), nil, nil)

		err := rec.TransitionInteraction(context.Background(), &interaction, domain.StatusConfirmed, "provider-1", "accepted")
		require.NoError(t, err)
		require.Equal(t, domain.StatusConfirmed, store.interactions["int-1"].Status)
		require.Empty(t, store.history)
	})
}
