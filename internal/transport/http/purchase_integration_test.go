package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/app"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/clock"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/storage/postgres"
	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func newIntegrationRouter(t *testing.T, pool *pgxpool.Pool) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	clk := clock.NewSystem()
	notifier := app.LogNotifier{Logger: logger}

	listingRepo := postgres.NewListingRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	interactionRepo := postgres.NewInteractionRepository(pool)

	ledgerSvc := app.NewLedgerService(listingRepo, clk, m)
	statusRec := app.NewStatusRecorder(interactionRepo, clk, logger, m)
	listingSvc := app.NewListingService(listingRepo, clk)
	cartSvc := app.NewCartService(cartRepo, clk, m)
	checkoutSvc := app.NewCheckoutService(sessionRepo, ledgerSvc, clk, m)
	purchaseSvc := app.NewPurchaseService(interactionRepo, ledgerSvc, statusRec, app.LocalPaymentProcessor{}, notifier, clk)
	donationSvc := app.NewDonationService(interactionRepo, ledgerSvc, statusRec, notifier, clk)
	orderSvc := app.NewOrderService(interactionRepo, statusRec, notifier, clk)

	h := NewHandler(listingSvc, cartSvc, checkoutSvc, purchaseSvc, donationSvc, orderSvc)
	return NewRouter(h, RouterConfig{Logger: logger, Metrics: m, Registry: registry})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec
}

func TestPurchaseFlow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	router := newIntegrationRouter(t, pool)
	customer := map[string]string{headerUserID: "cust-1", headerUserRole: roleCustomer}

	listingID := testutil.InsertListing(t, ctx, pool, "provider-1", "Surplus box", 5, 250)

	rec := doJSON(t, router, http.MethodPost, "/cart/items",
		`{"listing_id":"`+listingID+`","quantity":2}`, customer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var session sessionResponse
	rec = doJSON(t, router, http.MethodPost, "/checkout", "", customer, &session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start checkout: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(session.Lines) != 1 || session.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}

	// Starting checkout reserved the quantity.
	var available int
	if err := pool.QueryRow(ctx, `SELECT available_quantity FROM listings WHERE id = $1`, listingID).Scan(&available); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if available != 3 {
		t.Fatalf("expected 3 available after reserve, got %d", available)
	}

	var purchase purchaseResponse
	rec = doJSON(t, router, http.MethodPost, "/checkout/"+session.ID+"/complete",
		`{"payment_method":"card"}`, customer, &purchase)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete purchase: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(purchase.Lines) != 1 {
		t.Fatalf("expected 1 purchase line, got %d", len(purchase.Lines))
	}
	line := purchase.Lines[0]
	if line.Status != string(domain.StatusConfirmed) || line.OrderID == "" || line.PickupCode == "" {
		t.Fatalf("unexpected purchase line: %+v", line)
	}
	if purchase.TotalChargedCents != 500 {
		t.Fatalf("expected 500 charged, got %d", purchase.TotalChargedCents)
	}

	// The debit is permanent, the reservation committed, the cart cleared
	// and the session closed.
	if err := pool.QueryRow(ctx, `SELECT available_quantity FROM listings WHERE id = $1`, listingID).Scan(&available); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if available != 3 {
		t.Fatalf("expected 3 available after purchase, got %d", available)
	}

	var reservationStatus string
	if err := pool.QueryRow(ctx, `SELECT status FROM reservations WHERE listing_id = $1`, listingID).Scan(&reservationStatus); err != nil {
		t.Fatalf("query reservation: %v", err)
	}
	if reservationStatus != string(domain.ReservationStatusCommitted) {
		t.Fatalf("expected committed reservation, got %s", reservationStatus)
	}

	var cartLines int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM cart_lines`).Scan(&cartLines); err != nil {
		t.Fatalf("query cart lines: %v", err)
	}
	if cartLines != 0 {
		t.Fatalf("expected cart cleared, got %d lines", cartLines)
	}

	var isActive bool
	if err := pool.QueryRow(ctx, `SELECT is_active FROM checkout_sessions WHERE id = $1`, session.ID).Scan(&isActive); err != nil {
		t.Fatalf("query session: %v", err)
	}
	if isActive {
		t.Fatal("expected session deactivated after purchase")
	}

	// The order is visible to the customer and completable by the provider.
	var detail orderDetailResponse
	rec = doJSON(t, router, http.MethodGet, "/orders/"+line.OrderID, "", customer, &detail)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if detail.Order.Status != string(domain.StatusConfirmed) {
		t.Fatalf("expected confirmed order, got %s", detail.Order.Status)
	}

	provider := map[string]string{headerUserID: "provider-1", headerUserRole: roleProvider}
	rec = doJSON(t, router, http.MethodPatch, "/orders/"+line.OrderID+"/status",
		`{"status":"completed","pickup_code":"`+line.PickupCode+`"}`, provider, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var interactionStatus string
	if err := pool.QueryRow(ctx, `SELECT status FROM interactions WHERE id = $1`, line.InteractionID).Scan(&interactionStatus); err != nil {
		t.Fatalf("query interaction: %v", err)
	}
	if interactionStatus != string(domain.StatusCompleted) {
		t.Fatalf("expected completed interaction, got %s", interactionStatus)
	}
}

func TestDonationFlow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	router := newIntegrationRouter(t, pool)
	ngo := map[string]string{headerUserID: "ngo-1", headerUserRole: roleNGO}
	provider := map[string]string{headerUserID: "provider-1", headerUserRole: roleProvider}

	listingID := testutil.InsertListing(t, ctx, pool, "provider-1", "Soup kitchen batch", 10, 0)

	var donation donationResponse
	rec := doJSON(t, router, http.MethodPost, "/donations",
		`{"listing_id":"`+listingID+`","quantity":4}`, ngo, &donation)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request donation: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if donation.InteractionStatus != string(domain.StatusPending) {
		t.Fatalf("expected pending donation, got %s", donation.InteractionStatus)
	}

	// No inventory is held until the provider accepts.
	var available int
	if err := pool.QueryRow(ctx, `SELECT available_quantity FROM listings WHERE id = $1`, listingID).Scan(&available); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if available != 10 {
		t.Fatalf("expected 10 available before accept, got %d", available)
	}

	rec = doJSON(t, router, http.MethodPost, "/donations/"+donation.InteractionID+"/accept", "", provider, &donation)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept donation: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if donation.InteractionStatus != string(domain.StatusConfirmed) {
		t.Fatalf("expected confirmed after accept, got %s", donation.InteractionStatus)
	}

	if err := pool.QueryRow(ctx, `SELECT available_quantity FROM listings WHERE id = $1`, listingID).Scan(&available); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if available != 6 {
		t.Fatalf("expected 6 available after accept, got %d", available)
	}

	rec = doJSON(t, router, http.MethodPost, "/donations/"+donation.InteractionID+"/prepare", "", provider, &donation)
	if rec.Code != http.StatusOK {
		t.Fatalf("prepare donation: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/donations/"+donation.InteractionID+"/complete",
		`{"pickup_code":"`+donation.PickupCode+`"}`, provider, &donation)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete donation: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if donation.InteractionStatus != string(domain.StatusCompleted) {
		t.Fatalf("expected completed donation, got %s", donation.InteractionStatus)
	}

	// The debit stays permanent after completion.
	if err := pool.QueryRow(ctx, `SELECT available_quantity FROM listings WHERE id = $1`, listingID).Scan(&available); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if available != 6 {
		t.Fatalf("expected 6 available after completion, got %d", available)
	}
}
