package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetCartByCustomer returns the cart with its lines joined against the
// listings table so callers see current names and prices. Nil when the
// customer has no cart yet.
func (r *CartRepository) GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	const cartQuery = `SELECT id, customer_id, expires_at, created_at FROM carts WHERE customer_id = $1`

	var cart domain.Cart
	err := db(ctx, r.pool).QueryRow(ctx, cartQuery, customerID).
		Scan(&cart.ID, &cart.CustomerID, &cart.ExpiresAt, &cart.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	const lineQuery = `
SELECT cl.id, cl.listing_id, l.name, cl.quantity, l.unit_price_cents, l.discounted_price_cents, l.expires_at
FROM cart_lines cl
JOIN listings l ON l.id = cl.listing_id
WHERE cl.cart_id = $1
ORDER BY cl.id`

	rows, err := db(ctx, r.pool).Query(ctx, lineQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID, &line.ListingID, &line.ListingName, &line.Quantity,
			&line.UnitPriceCents, &line.DiscountedPriceCents, &line.ListingExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) CreateCart(ctx context.Context, cart domain.Cart) error {
	const stmt = `INSERT INTO carts (id, customer_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt, cart.ID, cart.CustomerID, cart.ExpiresAt, cart.CreatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateCartExpiry(ctx context.Context, cartID string, expiresAt time.Time) error {
	const stmt = `UPDATE carts SET expires_at = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, cartID, expiresAt)
	if err != nil {
		return fmt.Errorf("update cart expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

func (r *CartRepository) AddCartLine(ctx context.Context, cartID string, line domain.CartLine) error {
	const stmt = `INSERT INTO cart_lines (id, cart_id, listing_id, quantity) VALUES ($1, $2, $3, $4)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt, line.ID, cartID, line.ListingID, line.Quantity)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateCartLineQuantity(ctx context.Context, lineID string, quantity int) error {
	const stmt = `UPDATE cart_lines SET quantity = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, lineID, quantity)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepository) DeleteCartLine(ctx context.Context, lineID string) error {
	const stmt = `DELETE FROM cart_lines WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, lineID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepository) DeleteCartLines(ctx context.Context, cartID string) error {
	const stmt = `DELETE FROM cart_lines WHERE cart_id = $1`

	if _, err := db(ctx, r.pool).Exec(ctx, stmt, cartID); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}

func (r *CartRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	return NewListingRepository(r.pool).GetListing(ctx, listingID)
}

func (r *CartRepository) ListExpiredCartIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT c.id
FROM carts c
WHERE c.expires_at < $1 AND EXISTS (SELECT 1 FROM cart_lines cl WHERE cl.cart_id = c.id)
LIMIT $2`

	rows, err := db(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired carts: %w", err)
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
