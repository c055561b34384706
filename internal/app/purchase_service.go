package app

import (
	"context"
	"errors"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

type PurchaseRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSessionForUpdate(ctx context.Context, sessionID string) (domain.CheckoutSession, error)
	DeactivateSession(ctx context.Context, sessionID string, completedAt *time.Time) error
	ClearCartByCustomer(ctx context.Context, customerID string) error
	CreateInteraction(ctx context.Context, in domain.Interaction) error
	CreateInteractionItem(ctx context.Context, item domain.InteractionItem) error
	CreatePayment(ctx context.Context, p domain.Payment) error
	CreateOrder(ctx context.Context, o domain.Order) error
}

// PurchaseService drives checkout completion: for every reserved line it
// creates the interaction, its item, a synchronously-resolved payment and,
// on success, a confirmed order. Everything happens in one transaction;
// per-line payment failures release that line's reservation without failing
// the others.
type PurchaseService struct {
	repo     PurchaseRepository
	ledger   *LedgerService
	status   *StatusRecorder
	payments PaymentProcessor
	notifier Notifier
	clock    clock.Clock
}

func NewPurchaseService(repo PurchaseRepository, ledger *LedgerService, status *StatusRecorder, payments PaymentProcessor, notifier Notifier, clk clock.Clock) *PurchaseService {
	return &PurchaseService{
		repo:     repo,
		ledger:   ledger,
		status:   status,
		payments: payments,
		notifier: notifier,
		clock:    clk,
	}
}

type CompletePurchaseInput struct {
	CustomerID          string
	SessionID           string
	PaymentMethod       string
	SpecialInstructions string
}

// PurchaseLineResult reports the outcome of one checkout line. Failed lines
// carry the failure reason instead of an order.
type PurchaseLineResult struct {
	InteractionID string
	ListingID     string
	ListingName   string
	Quantity      int
	TotalCents    int64
	Status        domain.Status
	OrderID       string
	PickupCode    string
	PickupStart   time.Time
	PickupEnd     time.Time
	FailureReason string
}

type PurchaseResult struct {
	SessionID         string
	Lines             []PurchaseLineResult
	TotalChargedCents int64
}

const maxPickupCodeAttempts = 5

// CompletePurchase requires an active, unexpired session owned by the
// customer. Partial failure is reported per line, not as a single pass/fail.
func (s *PurchaseService) CompletePurchase(ctx context.Context, in CompletePurchaseInput) (PurchaseResult, error) {
	now := s.clock.Now()
	var result PurchaseResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		session, err := s.repo.GetSessionForUpdate(txCtx, in.SessionID)
		if err != nil {
			return err
		}
		if session.CustomerID != in.CustomerID {
			return domain.ErrForbidden
		}
		if !session.IsActive {
			return domain.ErrSessionNotActive
		}
		if session.Expired(now) {
			return domain.ErrSessionExpired
		}

		result = PurchaseResult{SessionID: session.ID}
		for _, line := range session.Lines {
			lineResult, err := s.completeLine(txCtx, session, line, in)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, lineResult)
			if lineResult.Status != domain.StatusFailed {
				result.TotalChargedCents += lineResult.TotalCents
			}
		}

		if err := s.repo.DeactivateSession(txCtx, session.ID, &now); err != nil {
			return err
		}
		return s.repo.ClearCartByCustomer(txCtx, in.CustomerID)
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	for _, line := range result.Lines {
		event := "purchase_confirmed"
		if line.Status == domain.StatusFailed {
			event = "purchase_failed"
		}
		s.notifier.Notify(ctx, line.InteractionID, event)
	}
	return result, nil
}

func (s *PurchaseService) completeLine(ctx context.Context, session domain.CheckoutSession, line domain.SessionLine, in CompletePurchaseInput) (PurchaseLineResult, error) {
	now := s.clock.Now()
	total := line.DiscountedPriceCents * int64(line.Quantity)

	interaction := domain.Interaction{
		ID:                  newID(),
		Type:                domain.InteractionTypePurchase,
		Status:              domain.StatusPending,
		ActorID:             session.CustomerID,
		ActorRole:           "customer",
		ProviderID:          line.ProviderID,
		Quantity:            line.Quantity,
		TotalCents:          total,
		SpecialInstructions: in.SpecialInstructions,
		CreatedAt:           now,
	}
	if err := s.repo.CreateInteraction(ctx, interaction); err != nil {
		return PurchaseLineResult{}, err
	}

	item := domain.InteractionItem{
		ID:                newID(),
		InteractionID:     interaction.ID,
		ListingID:         line.ListingID,
		Name:              line.ListingName,
		Quantity:          line.Quantity,
		PricePerItemCents: line.DiscountedPriceCents,
		TotalPriceCents:   total,
		ListingExpiresAt:  line.ListingExpiresAt,
	}
	if err := s.repo.CreateInteractionItem(ctx, item); err != nil {
		return PurchaseLineResult{}, err
	}

	payment := domain.Payment{
		ID:            newID(),
		InteractionID: interaction.ID,
		Method:        in.PaymentMethod,
		AmountCents:   total,
		Status:        domain.StatusPending,
		CreatedAt:     now,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return PurchaseLineResult{}, err
	}

	lineResult := PurchaseLineResult{
		InteractionID: interaction.ID,
		ListingID:     line.ListingID,
		ListingName:   line.ListingName,
		Quantity:      line.Quantity,
		TotalCents:    total,
	}

	payErr := s.payments.Process(ctx, in.PaymentMethod, total)
	if payErr != nil {
		if !errors.Is(payErr, domain.ErrPaymentFailed) {
			return PurchaseLineResult{}, payErr
		}
		// The sale did not happen: fail the line and give the quantity back.
		if err := s.status.TransitionPayment(ctx, &interaction, &payment, domain.StatusFailed, session.CustomerID, payErr.Error()); err != nil {
			return PurchaseLineResult{}, err
		}
		if err := s.ledger.Release(ctx, line.ReservationID); err != nil {
			return PurchaseLineResult{}, err
		}
		lineResult.Status = domain.StatusFailed
		lineResult.FailureReason = payErr.Error()
		return lineResult, nil
	}

	if err := s.status.TransitionPayment(ctx, &interaction, &payment, domain.StatusCompleted, session.CustomerID, "payment processed"); err != nil {
		return PurchaseLineResult{}, err
	}

	order, err := s.createOrder(ctx, interaction.ID, line)
	if err != nil {
		return PurchaseLineResult{}, err
	}
	if err := s.ledger.Commit(ctx, line.ReservationID); err != nil {
		return PurchaseLineResult{}, err
	}

	lineResult.Status = interaction.Status
	lineResult.OrderID = order.ID
	lineResult.PickupCode = order.PickupCode
	lineResult.PickupStart = order.PickupStart
	lineResult.PickupEnd = order.PickupEnd
	return lineResult, nil
}

func (s *PurchaseService) createOrder(ctx context.Context, interactionID string, line domain.SessionLine) (domain.Order, error) {
	now := s.clock.Now()

	var lastErr error
	for attempt := 0; attempt < maxPickupCodeAttempts; attempt++ {
		order := domain.Order{
			ID:            newID(),
			InteractionID: interactionID,
			Status:        domain.StatusConfirmed,
			PickupStart:   line.PickupStart,
			PickupEnd:     line.PickupEnd,
			PickupCode:    newPickupCode(),
			CreatedAt:     now,
		}
		err := s.repo.CreateOrder(ctx, order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrPickupCodeConflict) {
			return domain.Order{}, err
		}
		lastErr = err
	}
	return domain.Order{}, lastErr
}
