package app

import (
	"context"
	"strings"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

type DonationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	GetInteractionForUpdate(ctx context.Context, interactionID string) (domain.Interaction, error)
	GetInteractionItems(ctx context.Context, interactionID string) ([]domain.InteractionItem, error)
	GetOrderByInteraction(ctx context.Context, interactionID string) (domain.Order, error)
	CreateInteraction(ctx context.Context, in domain.Interaction) error
	CreateInteractionItem(ctx context.Context, item domain.InteractionItem) error
	CreateOrder(ctx context.Context, o domain.Order) error
	SetInteractionReservation(ctx context.Context, interactionID, reservationID string) error
	SetRejectionReason(ctx context.Context, interactionID, reason string) error
}

// DonationService layers the donation-specific accept/reject/cancel flow over
// the shared ledger, validator and history machinery. A donation request is
// a request for the provider's discretion: no inventory is held until the
// provider accepts.
type DonationService struct {
	repo     DonationRepository
	ledger   *LedgerService
	status   *StatusRecorder
	notifier Notifier
	clock    clock.Clock
}

func NewDonationService(repo DonationRepository, ledger *LedgerService, status *StatusRecorder, notifier Notifier, clk clock.Clock) *DonationService {
	return &DonationService{
		repo:     repo,
		ledger:   ledger,
		status:   status,
		notifier: notifier,
		clock:    clk,
	}
}

type RequestDonationInput struct {
	NGOUserID           string
	ListingID           string
	Quantity            int
	SpecialInstructions string
	MotivationMessage   string
}

type DonationResult struct {
	Interaction domain.Interaction
	Order       domain.Order
}

// Request creates a pending donation interaction and order. The quantity
// check against the listing is advisory; it is enforced atomically at
// acceptance time.
func (s *DonationService) Request(ctx context.Context, in RequestDonationInput) (DonationResult, error) {
	if in.Quantity < 1 {
		return DonationResult{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListing(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if err := listing.Purchasable(now); err != nil {
			return err
		}
		if in.Quantity > listing.AvailableQuantity {
			return &domain.InsufficientQuantityError{
				ListingID: in.ListingID,
				Available: listing.AvailableQuantity,
				Requested: in.Quantity,
			}
		}

		interaction := domain.Interaction{
			ID:                  newID(),
			Type:                domain.InteractionTypeDonation,
			Status:              domain.StatusPending,
			ActorID:             in.NGOUserID,
			ActorRole:           "ngo",
			ProviderID:          listing.ProviderID,
			Quantity:            in.Quantity,
			TotalCents:          0,
			SpecialInstructions: in.SpecialInstructions,
			MotivationMessage:   in.MotivationMessage,
			CreatedAt:           now,
		}
		if err := s.repo.CreateInteraction(txCtx, interaction); err != nil {
			return err
		}

		item := domain.InteractionItem{
			ID:                newID(),
			InteractionID:     interaction.ID,
			ListingID:         listing.ID,
			Name:              listing.Name,
			Quantity:          in.Quantity,
			PricePerItemCents: 0,
			TotalPriceCents:   0,
			ListingExpiresAt:  listing.ExpiresAt,
		}
		if err := s.repo.CreateInteractionItem(txCtx, item); err != nil {
			return err
		}

		order := domain.Order{
			ID:            newID(),
			InteractionID: interaction.ID,
			Status:        domain.StatusPending,
			PickupStart:   listing.PickupStart,
			PickupEnd:     listing.PickupEnd,
			PickupCode:    newPickupCode(),
			CreatedAt:     now,
		}
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, result.Interaction.ID, "donation_requested")
	return result, nil
}

// Accept is where donation inventory is actually debited: the quantity is
// re-checked atomically via Reserve. If stock ran out while the provider
// deliberated, the request stays pending and the caller sees
// InsufficientQuantity.
func (s *DonationService) Accept(ctx context.Context, providerID, interactionID string) (DonationResult, error) {
	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		interaction, err := s.loadDonation(txCtx, interactionID)
		if err != nil {
			return err
		}
		if interaction.ProviderID != providerID {
			return domain.ErrForbidden
		}
		if err := domain.ValidateTransition(domain.KindInteraction, interaction.Status, domain.StatusConfirmed); err != nil {
			return err
		}

		items, err := s.repo.GetInteractionItems(txCtx, interactionID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrInteractionNotFound
		}

		res, err := s.ledger.Reserve(txCtx, items[0].ListingID, interaction.Quantity)
		if err != nil {
			return err
		}
		if err := s.repo.SetInteractionReservation(txCtx, interactionID, res.ID); err != nil {
			return err
		}
		interaction.ReservationID = &res.ID

		if err := s.status.TransitionInteraction(txCtx, &interaction, domain.StatusConfirmed, providerID, "donation accepted"); err != nil {
			return err
		}
		order, err := s.repo.GetOrderByInteraction(txCtx, interactionID)
		if err != nil {
			return err
		}
		if err := s.status.TransitionOrder(txCtx, &interaction, &order, domain.StatusConfirmed, providerID, "donation accepted"); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, interactionID, "donation_accepted")
	return result, nil
}

// Reject declines a pending donation. No inventory was ever reserved, so
// there is nothing to compensate.
func (s *DonationService) Reject(ctx context.Context, providerID, interactionID, reason string) (DonationResult, error) {
	if strings.TrimSpace(reason) == "" {
		return DonationResult{}, domain.ErrRejectionReasonRequired
	}

	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		interaction, err := s.loadDonation(txCtx, interactionID)
		if err != nil {
			return err
		}
		if interaction.ProviderID != providerID {
			return domain.ErrForbidden
		}

		if err := s.repo.SetRejectionReason(txCtx, interactionID, reason); err != nil {
			return err
		}
		interaction.RejectionReason = reason

		if err := s.status.TransitionInteraction(txCtx, &interaction, domain.StatusRejected, providerID, reason); err != nil {
			return err
		}
		order, err := s.repo.GetOrderByInteraction(txCtx, interactionID)
		if err != nil {
			return err
		}
		if err := s.status.TransitionOrder(txCtx, &interaction, &order, domain.StatusCancelled, providerID, "donation rejected"); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, interactionID, "donation_rejected")
	return result, nil
}

// Cancel lets the requester withdraw. If the provider had already accepted,
// the reservation taken at acceptance is released; that compensating action
// keeps the ledger net-zero for cancelled donations.
func (s *DonationService) Cancel(ctx context.Context, requesterID, interactionID string) (DonationResult, error) {
	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		interaction, err := s.loadDonation(txCtx, interactionID)
		if err != nil {
			return err
		}
		if interaction.ActorID != requesterID {
			return domain.ErrForbidden
		}

		if interaction.ReservationID != nil {
			if err := s.ledger.Release(txCtx, *interaction.ReservationID); err != nil {
				return err
			}
		}

		if err := s.status.TransitionInteraction(txCtx, &interaction, domain.StatusCancelled, requesterID, "cancelled by requester"); err != nil {
			return err
		}
		order, err := s.repo.GetOrderByInteraction(txCtx, interactionID)
		if err != nil {
			return err
		}
		if err := s.status.TransitionOrder(txCtx, &interaction, &order, domain.StatusCancelled, requesterID, "cancelled by requester"); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, interactionID, "donation_cancelled")
	return result, nil
}

// Prepare marks an accepted donation as ready for pickup.
func (s *DonationService) Prepare(ctx context.Context, providerID, interactionID string) (DonationResult, error) {
	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		interaction, err := s.loadDonation(txCtx, interactionID)
		if err != nil {
			return err
		}
		if interaction.ProviderID != providerID {
			return domain.ErrForbidden
		}

		if err := s.status.TransitionInteraction(txCtx, &interaction, domain.StatusReady, providerID, "donation prepared"); err != nil {
			return err
		}
		order, err := s.repo.GetOrderByInteraction(txCtx, interactionID)
		if err != nil {
			return err
		}
		if err := s.status.TransitionOrder(txCtx, &interaction, &order, domain.StatusReady, providerID, "donation prepared"); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, interactionID, "donation_ready")
	return result, nil
}

// Complete finishes the donation after pickup is verified. The inventory was
// debited at acceptance; completing only commits the reservation.
func (s *DonationService) Complete(ctx context.Context, providerID, interactionID, pickupCode string) (DonationResult, error) {
	var result DonationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		interaction, err := s.loadDonation(txCtx, interactionID)
		if err != nil {
			return err
		}
		if interaction.ProviderID != providerID {
			return domain.ErrForbidden
		}

		order, err := s.repo.GetOrderByInteraction(txCtx, interactionID)
		if err != nil {
			return err
		}
		if pickupCode != order.PickupCode {
			return domain.ErrPickupCodeMismatch
		}

		if interaction.ReservationID != nil {
			if err := s.ledger.Commit(txCtx, *interaction.ReservationID); err != nil {
				return err
			}
		}

		// Order completion propagates onto the interaction and stamps
		// CompletedAt.
		if err := s.status.TransitionOrder(txCtx, &interaction, &order, domain.StatusCompleted, providerID, "pickup verified"); err != nil {
			return err
		}

		result = DonationResult{Interaction: interaction, Order: order}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}

	s.notifier.Notify(ctx, interactionID, "donation_completed")
	return result, nil
}

func (s *DonationService) loadDonation(ctx context.Context, interactionID string) (domain.Interaction, error) {
	interaction, err := s.repo.GetInteractionForUpdate(ctx, interactionID)
	if err != nil {
		return domain.Interaction{}, err
	}
	if interaction.Type != domain.InteractionTypeDonation {
		return domain.Interaction{}, domain.ErrNotDonation
	}
	return interaction, nil
}
