package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	legal := []struct {
		kind EntityKind
		from Status
		to   Status
	}{
		{KindInteraction, StatusPending, StatusConfirmed},
		{KindInteraction, StatusPending, StatusCancelled},
		{KindInteraction, StatusPending, StatusFailed},
		{KindInteraction, StatusPending, StatusRejected},
		{KindInteraction, StatusConfirmed, StatusReady},
		{KindInteraction, StatusConfirmed, StatusCompleted},
		{KindInteraction, StatusConfirmed, StatusCancelled},
		{KindInteraction, StatusReady, StatusCompleted},
		{KindOrder, StatusPending, StatusConfirmed},
		{KindOrder, StatusConfirmed, StatusReady},
		{KindOrder, StatusReady, StatusCompleted},
		{KindOrder, StatusConfirmed, StatusCancelled},
		{KindPayment, StatusPending, StatusCompleted},
		{KindPayment, StatusPending, StatusFailed},
		{KindPayment, StatusCompleted, StatusRefunded},
	}
	for _, tc := range legal {
		assert.NoError(t, ValidateTransition(tc.kind, tc.from, tc.to),
			"%s %s -> %s should be legal", tc.kind, tc.from, tc.to)
	}

	illegal := []struct {
		kind EntityKind
		from Status
		to   Status
	}{
		{KindInteraction, StatusCompleted, StatusPending},
		{KindInteraction, StatusCancelled, StatusConfirmed},
		{KindInteraction, StatusFailed, StatusConfirmed},
		{KindInteraction, StatusRejected, StatusPending},
		{KindInteraction, StatusPending, StatusReady},
		{KindInteraction, StatusPending, StatusCompleted},
		{KindOrder, StatusPending, StatusReady},
		{KindOrder, StatusPending, StatusCompleted},
		{KindOrder, StatusCompleted, StatusCancelled},
		{KindPayment, StatusPending, StatusRefunded},
		{KindPayment, StatusFailed, StatusCompleted},
		{KindPayment, StatusRefunded, StatusPending},
		{KindPayment, StatusPending, StatusCancelled},
	}
	for _, tc := range illegal {
		err := ValidateTransition(tc.kind, tc.from, tc.to)
		require.Error(t, err, "%s %s -> %s should be illegal", tc.kind, tc.from, tc.to)
		assert.True(t, errors.Is(err, ErrIllegalTransition))

		var ite *IllegalTransitionError
		require.True(t, errors.As(err, &ite))
		assert.Equal(t, tc.kind, ite.Kind)
		assert.Equal(t, tc.from, ite.From)
		assert.Equal(t, tc.to, ite.To)
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusFailed, StatusRejected} {
		assert.True(t, Terminal(KindInteraction, s), "interaction %s should be terminal", s)
	}
	assert.False(t, Terminal(KindInteraction, StatusPending))
	assert.False(t, Terminal(KindPayment, StatusCompleted), "completed payments can still refund")
	assert.True(t, Terminal(KindPayment, StatusRefunded))
}

func TestInsufficientQuantityError(t *testing.T) {
	t.Parallel()

	err := &InsufficientQuantityError{ListingID: "l1", Available: 2, Requested: 5}
	assert.True(t, errors.Is(err, ErrInsufficientQuantity))
	assert.Contains(t, err.Error(), "requested 5")
	assert.Contains(t, err.Error(), "available 2")
}
