package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const sessionColumns = `id, customer_id, expires_at, is_active, created_at, completed_at`

func (r *SessionRepository) GetActiveSessionByCustomer(ctx context.Context, customerID string) (*domain.CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE customer_id = $1 AND is_active`

	var s domain.CheckoutSession
	err := db(ctx, r.pool).QueryRow(ctx, query, customerID).
		Scan(&s.ID, &s.CustomerID, &s.ExpiresAt, &s.IsActive, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	if err := r.loadLines(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) GetSessionForUpdate(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id = $1 FOR UPDATE`

	var s domain.CheckoutSession
	err := db(ctx, r.pool).QueryRow(ctx, query, sessionID).
		Scan(&s.ID, &s.CustomerID, &s.ExpiresAt, &s.IsActive, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CheckoutSession{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.CheckoutSession{}, domain.ErrSessionNotFound
		}
		return domain.CheckoutSession{}, fmt.Errorf("get session: %w", err)
	}
	if err := r.loadLines(ctx, &s); err != nil {
		return domain.CheckoutSession{}, err
	}
	return s, nil
}

func (r *SessionRepository) loadLines(ctx context.Context, s *domain.CheckoutSession) error {
	const query = `
SELECT id, session_id, listing_id, reservation_id, provider_id, listing_name, quantity,
	unit_price_cents, discounted_price_cents, listing_expires_at, pickup_start, pickup_end
FROM session_lines
WHERE session_id = $1
ORDER BY id`

	rows, err := db(ctx, r.pool).Query(ctx, query, s.ID)
	if err != nil {
		return fmt.Errorf("get session lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.SessionLine
		if err := rows.Scan(
			&l.ID, &l.SessionID, &l.ListingID, &l.ReservationID, &l.ProviderID,
			&l.ListingName, &l.Quantity, &l.UnitPriceCents, &l.DiscountedPriceCents,
			&l.ListingExpiresAt, &l.PickupStart, &l.PickupEnd,
		); err != nil {
			return fmt.Errorf("scan session line: %w", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return rows.Err()
}

func (r *SessionRepository) CreateSession(ctx context.Context, s domain.CheckoutSession) error {
	const stmt = `
INSERT INTO checkout_sessions (id, customer_id, expires_at, is_active, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt, s.ID, s.CustomerID, s.ExpiresAt, s.IsActive, s.CreatedAt, s.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyActive
		}
		return fmt.Errorf("create session: %w", err)
	}

	const lineStmt = `
INSERT INTO session_lines (id, session_id, listing_id, reservation_id, provider_id, listing_name,
	quantity, unit_price_cents, discounted_price_cents, listing_expires_at, pickup_start, pickup_end)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, l := range s.Lines {
		_, err := db(ctx, r.pool).Exec(ctx, lineStmt,
			l.ID, s.ID, l.ListingID, l.ReservationID, l.ProviderID, l.ListingName,
			l.Quantity, l.UnitPriceCents, l.DiscountedPriceCents,
			l.ListingExpiresAt, l.PickupStart, l.PickupEnd,
		)
		if err != nil {
			return fmt.Errorf("create session line: %w", err)
		}
	}
	return nil
}

func (r *SessionRepository) DeactivateSession(ctx context.Context, sessionID string, completedAt *time.Time) error {
	const stmt = `UPDATE checkout_sessions SET is_active = FALSE, completed_at = COALESCE($2, completed_at) WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, sessionID, completedAt)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) ListExpiredActiveSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `SELECT id FROM checkout_sessions WHERE is_active AND expires_at < $1 LIMIT $2`

	rows, err := db(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SessionRepository) GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	return NewCartRepository(r.pool).GetCartByCustomer(ctx, customerID)
}

func (r *SessionRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	return NewListingRepository(r.pool).GetListing(ctx, listingID)
}
