package postgres

import (
	"context"
	"fmt"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingRepository backs the inventory ledger and the listing surface. The
// available_quantity column is only written through UpdateListingQuantity
// while the row is locked.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const listingColumns = `id, provider_id, name, description, unit_price_cents, discounted_price_cents,
total_quantity, available_quantity, status, expires_at, pickup_start, pickup_end, created_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(
		&l.ID, &l.ProviderID, &l.Name, &l.Description,
		&l.UnitPriceCents, &l.DiscountedPriceCents,
		&l.TotalQuantity, &l.AvailableQuantity, &l.Status,
		&l.ExpiresAt, &l.PickupStart, &l.PickupEnd, &l.CreatedAt,
	)
	return l, err
}

func (r *ListingRepository) CreateListing(ctx context.Context, l domain.Listing) error {
	const stmt = `
INSERT INTO listings (id, provider_id, name, description, unit_price_cents, discounted_price_cents,
	total_quantity, available_quantity, status, expires_at, pickup_start, pickup_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		l.ID, l.ProviderID, l.Name, l.Description,
		l.UnitPriceCents, l.DiscountedPriceCents,
		l.TotalQuantity, l.AvailableQuantity, l.Status,
		l.ExpiresAt, l.PickupStart, l.PickupEnd, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l, err := scanListing(db(ctx, r.pool).QueryRow(ctx, query, listingID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Listing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// GetListingForUpdate takes the per-listing row lock that serializes every
// ledger mutation.
func (r *ListingRepository) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`
	l, err := scanListing(db(ctx, r.pool).QueryRow(ctx, query, listingID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Listing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("get listing for update: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) ListListings(ctx context.Context) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC`
	rows, err := db(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) UpdateListingQuantity(ctx context.Context, listingID string, available int, status domain.ListingStatus) error {
	const stmt = `UPDATE listings SET available_quantity = $2, status = $3 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, listingID, available, status)
	if err != nil {
		return fmt.Errorf("update listing quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, listing_id, quantity, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt, res.ID, res.ListingID, res.Quantity, res.Status, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, listing_id, quantity, status, created_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	var res domain.Reservation
	err := db(ctx, r.pool).QueryRow(ctx, query, reservationID).
		Scan(&res.ID, &res.ListingID, &res.Quantity, &res.Status, &res.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ListingRepository) UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error {
	const stmt = `UPDATE reservations SET status = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, reservationID, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}
