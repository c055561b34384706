package http

import (
	"log/slog"
	"net/http"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Handler bundles the service surfaces the HTTP layer exposes.
type Handler struct {
	listings  ListingAPI
	carts     CartAPI
	checkout  CheckoutAPI
	purchases PurchaseAPI
	donations DonationAPI
	orders    OrderAPI
}

func NewHandler(
	listings ListingAPI,
	carts CartAPI,
	checkout CheckoutAPI,
	purchases PurchaseAPI,
	donations DonationAPI,
	orders OrderAPI,
) *Handler {
	return &Handler{
		listings:  listings,
		carts:     carts,
		checkout:  checkout,
		purchases: purchases,
		donations: donations,
		orders:    orders,
	}
}

// RouterConfig carries the cross-cutting pieces the router needs.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	AllowedOrigins []string
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger, cfg.Metrics))
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Registry))

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", h.listListings)
		r.Post("/", h.createListing)
		r.Get("/{listingID}", h.getListing)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addCartItem)
		r.Delete("/items/{lineID}", h.removeCartItem)
		r.Delete("/", h.clearCart)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", h.startCheckout)
		r.Get("/{sessionID}", h.getCheckoutSession)
		r.Delete("/{sessionID}", h.cancelCheckoutSession)
		r.Post("/{sessionID}/complete", h.completePurchase)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Patch("/{orderID}/status", h.updateOrderStatus)
	})

	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.requestDonation)
		r.Post("/{donationID}/accept", h.acceptDonation)
		r.Post("/{donationID}/reject", h.rejectDonation)
		r.Post("/{donationID}/cancel", h.cancelDonation)
		r.Post("/{donationID}/prepare", h.prepareDonation)
		r.Post("/{donationID}/complete", h.completeDonation)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	return r
}
