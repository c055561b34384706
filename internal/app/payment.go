package app

import (
	"context"
	"fmt"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

// PaymentProcessor resolves a payment synchronously. Implementations must be
// fast and local; a real gateway would be called outside the inventory
// critical section and fed back through a separate status update.
type PaymentProcessor interface {
	Process(ctx context.Context, method string, amountCents int64) error
}

var supportedPaymentMethods = map[string]struct{}{
	"card":           {},
	"cash_on_pickup": {},
	"digital_wallet": {},
}

// LocalPaymentProcessor accepts the supported methods and declines anything
// else. It stands in for gateway integration, which is out of scope.
type LocalPaymentProcessor struct{}

func (LocalPaymentProcessor) Process(_ context.Context, method string, amountCents int64) error {
	if amountCents < 0 {
		return fmt.Errorf("%w: negative amount", domain.ErrPaymentFailed)
	}
	if _, ok := supportedPaymentMethods[method]; !ok {
		return fmt.Errorf("%w: unsupported method %q", domain.ErrPaymentFailed, method)
	}
	return nil
}
