package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InteractionRepository persists the interaction aggregate: the interaction
// row plus its items, payment, order and status history. It also carries the
// session/cart writes the purchase flow performs in the same transaction.
type InteractionRepository struct {
	pool *pgxpool.Pool
}

func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{pool: pool}
}

func (r *InteractionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const interactionColumns = `id, type, status, actor_id, actor_role, provider_id, quantity, total_cents,
special_instructions, motivation_message, rejection_reason, reservation_id, created_at, completed_at`

func scanInteraction(row pgx.Row) (domain.Interaction, error) {
	var in domain.Interaction
	err := row.Scan(
		&in.ID, &in.Type, &in.Status, &in.ActorID, &in.ActorRole, &in.ProviderID,
		&in.Quantity, &in.TotalCents, &in.SpecialInstructions, &in.MotivationMessage,
		&in.RejectionReason, &in.ReservationID, &in.CreatedAt, &in.CompletedAt,
	)
	return in, err
}

func (r *InteractionRepository) CreateInteraction(ctx context.Context, in domain.Interaction) error {
	const stmt = `
INSERT INTO interactions (id, type, status, actor_id, actor_role, provider_id, quantity, total_cents,
	special_instructions, motivation_message, rejection_reason, reservation_id, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		in.ID, in.Type, in.Status, in.ActorID, in.ActorRole, in.ProviderID,
		in.Quantity, in.TotalCents, in.SpecialInstructions, in.MotivationMessage,
		in.RejectionReason, in.ReservationID, in.CreatedAt, in.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetInteraction(ctx context.Context, interactionID string) (domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id = $1`
	return r.getInteraction(ctx, query, interactionID)
}

func (r *InteractionRepository) GetInteractionForUpdate(ctx context.Context, interactionID string) (domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id = $1 FOR UPDATE`
	return r.getInteraction(ctx, query, interactionID)
}

func (r *InteractionRepository) getInteraction(ctx context.Context, query, interactionID string) (domain.Interaction, error) {
	in, err := scanInteraction(db(ctx, r.pool).QueryRow(ctx, query, interactionID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Interaction{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Interaction{}, domain.ErrInteractionNotFound
		}
		return domain.Interaction{}, fmt.Errorf("get interaction: %w", err)
	}
	return in, nil
}

func (r *InteractionRepository) UpdateInteractionStatus(ctx context.Context, interactionID string, status domain.Status, completedAt *time.Time) error {
	const stmt = `UPDATE interactions SET status = $2, completed_at = COALESCE($3, completed_at) WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, interactionID, status, completedAt)
	if err != nil {
		return fmt.Errorf("update interaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

func (r *InteractionRepository) SetInteractionReservation(ctx context.Context, interactionID, reservationID string) error {
	const stmt = `UPDATE interactions SET reservation_id = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, interactionID, reservationID)
	if err != nil {
		return fmt.Errorf("set interaction reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

func (r *InteractionRepository) SetRejectionReason(ctx context.Context, interactionID, reason string) error {
	const stmt = `UPDATE interactions SET rejection_reason = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, interactionID, reason)
	if err != nil {
		return fmt.Errorf("set rejection reason: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

func (r *InteractionRepository) CreateInteractionItem(ctx context.Context, item domain.InteractionItem) error {
	const stmt = `
INSERT INTO interaction_items (id, interaction_id, listing_id, name, quantity,
	price_per_item_cents, total_price_cents, listing_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		item.ID, item.InteractionID, item.ListingID, item.Name, item.Quantity,
		item.PricePerItemCents, item.TotalPriceCents, item.ListingExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create interaction item: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetInteractionItems(ctx context.Context, interactionID string) ([]domain.InteractionItem, error) {
	const query = `
SELECT id, interaction_id, listing_id, name, quantity, price_per_item_cents, total_price_cents, listing_expires_at
FROM interaction_items
WHERE interaction_id = $1
ORDER BY id`

	rows, err := db(ctx, r.pool).Query(ctx, query, interactionID)
	if err != nil {
		return nil, fmt.Errorf("get interaction items: %w", err)
	}
	defer rows.Close()

	var items []domain.InteractionItem
	for rows.Next() {
		var it domain.InteractionItem
		if err := rows.Scan(
			&it.ID, &it.InteractionID, &it.ListingID, &it.Name, &it.Quantity,
			&it.PricePerItemCents, &it.TotalPriceCents, &it.ListingExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan interaction item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *InteractionRepository) CreatePayment(ctx context.Context, p domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, interaction_id, method, amount_cents, status, processed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		p.ID, p.InteractionID, p.Method, p.AmountCents, p.Status, p.ProcessedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *InteractionRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.Status, processedAt *time.Time) error {
	const stmt = `UPDATE payments SET status = $2, processed_at = COALESCE($3, processed_at) WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, paymentID, status, processedAt)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

const orderColumns = `id, interaction_id, status, pickup_start, pickup_end, pickup_code, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.InteractionID, &o.Status, &o.PickupStart, &o.PickupEnd, &o.PickupCode, &o.CreatedAt)
	return o, err
}

func (r *InteractionRepository) CreateOrder(ctx context.Context, o domain.Order) error {
	const stmt = `
INSERT INTO orders (id, interaction_id, status, pickup_start, pickup_end, pickup_code, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		o.ID, o.InteractionID, o.Status, o.PickupStart, o.PickupEnd, o.PickupCode, o.CreatedAt,
	)
	if err != nil {
		if uniqueConstraint(err) == "orders_pickup_code_key" {
			return domain.ErrPickupCodeConflict
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(db(ctx, r.pool).QueryRow(ctx, query, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *InteractionRepository) GetOrderByInteraction(ctx context.Context, interactionID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE interaction_id = $1`
	o, err := scanOrder(db(ctx, r.pool).QueryRow(ctx, query, interactionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order by interaction: %w", err)
	}
	return o, nil
}

func (r *InteractionRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *InteractionRepository) ListOrdersByActor(ctx context.Context, actorID string) ([]domain.Order, error) {
	const query = `
SELECT o.id, o.interaction_id, o.status, o.pickup_start, o.pickup_end, o.pickup_code, o.created_at
FROM orders o
JOIN interactions i ON i.id = o.interaction_id
WHERE i.actor_id = $1
ORDER BY o.created_at DESC`

	return r.listOrders(ctx, query, actorID)
}

func (r *InteractionRepository) ListOrdersByProvider(ctx context.Context, providerID string) ([]domain.Order, error) {
	const query = `
SELECT o.id, o.interaction_id, o.status, o.pickup_start, o.pickup_end, o.pickup_code, o.created_at
FROM orders o
JOIN interactions i ON i.id = o.interaction_id
WHERE i.provider_id = $1
ORDER BY o.created_at DESC`

	return r.listOrders(ctx, query, providerID)
}

func (r *InteractionRepository) listOrders(ctx context.Context, query, id string) ([]domain.Order, error) {
	rows, err := db(ctx, r.pool).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// AppendStatusHistory inserts inside a savepoint when a transaction is in
// flight, so a failed append cannot poison the business transaction the
// caller is about to commit.
func (r *InteractionRepository) AppendStatusHistory(ctx context.Context, entry domain.StatusHistoryEntry) error {
	const stmt = `
INSERT INTO status_history (id, interaction_id, entity_kind, old_status, new_status, actor_id, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	args := []any{
		entry.ID, entry.InteractionID, entry.Kind, entry.OldStatus, entry.NewStatus,
		entry.ActorID, entry.Notes, entry.CreatedAt,
	}

	if tx := txFromContext(ctx); tx != nil {
		nested, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin history savepoint: %w", err)
		}
		if _, err := nested.Exec(ctx, stmt, args...); err != nil {
			_ = nested.Rollback(ctx)
			return fmt.Errorf("append status history: %w", err)
		}
		return nested.Commit(ctx)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetStatusHistory(ctx context.Context, interactionID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
SELECT id, interaction_id, entity_kind, old_status, new_status, actor_id, notes, created_at
FROM status_history
WHERE interaction_id = $1
ORDER BY created_at, id`

	rows, err := db(ctx, r.pool).Query(ctx, query, interactionID)
	if err != nil {
		return nil, fmt.Errorf("get status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusHistoryEntry
	for rows.Next() {
		var e domain.StatusHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.InteractionID, &e.Kind, &e.OldStatus, &e.NewStatus,
			&e.ActorID, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Session/cart writes the purchase flow performs inside its transaction.

func (r *InteractionRepository) GetSessionForUpdate(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	return NewSessionRepository(r.pool).GetSessionForUpdate(ctx, sessionID)
}

func (r *InteractionRepository) DeactivateSession(ctx context.Context, sessionID string, completedAt *time.Time) error {
	return NewSessionRepository(r.pool).DeactivateSession(ctx, sessionID, completedAt)
}

func (r *InteractionRepository) ClearCartByCustomer(ctx context.Context, customerID string) error {
	const stmt = `DELETE FROM cart_lines WHERE cart_id IN (SELECT id FROM carts WHERE customer_id = $1)`

	if _, err := db(ctx, r.pool).Exec(ctx, stmt, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	return NewListingRepository(r.pool).GetListing(ctx, listingID)
}
