package app

import (
	"context"
	"sync"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

// fakeStore is an in-memory stand-in for the postgres repositories. WithTx
// snapshots all state on the outermost call and restores it when the
// function returns an error, so rollback behaves like a real transaction.
// Nested WithTx calls join the outer one, matching the production layer.
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	listings     map[string]domain.Listing
	reservations map[string]domain.Reservation
	carts        map[string]domain.Cart
	sessions     map[string]domain.CheckoutSession
	interactions map[string]domain.Interaction
	items        map[string][]domain.InteractionItem
	payments     map[string]domain.Payment
	orders       map[string]domain.Order
	history      []domain.StatusHistoryEntry

	failAppendHistory bool
	failCreateOrder   error
	createOrderCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:     map[string]domain.Listing{},
		reservations: map[string]domain.Reservation{},
		carts:        map[string]domain.Cart{},
		sessions:     map[string]domain.CheckoutSession{},
		interactions: map[string]domain.Interaction{},
		items:        map[string][]domain.InteractionItem{},
		payments:     map[string]domain.Payment{},
		orders:       map[string]domain.Order{},
	}
}

type fakeTxKey struct{}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the existing transaction, like the postgres layer.
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snap := f.snapshot()
	f.mu.Unlock()

	err := fn(context.WithValue(ctx, fakeTxKey{}, struct{}{}))
	if err != nil {
		f.mu.Lock()
		f.restore(snap)
		f.mu.Unlock()
	}
	return err
}

func (f *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for k, v := range f.listings {
		snap.listings[k] = v
	}
	for k, v := range f.reservations {
		snap.reservations[k] = v
	}
	for k, v := range f.carts {
		v.Lines = append([]domain.CartLine(nil), v.Lines...)
		snap.carts[k] = v
	}
	for k, v := range f.sessions {
		v.Lines = append([]domain.SessionLine(nil), v.Lines...)
		snap.sessions[k] = v
	}
	for k, v := range f.interactions {
		snap.interactions[k] = v
	}
	for k, v := range f.items {
		snap.items[k] = append([]domain.InteractionItem(nil), v...)
	}
	for k, v := range f.payments {
		snap.payments[k] = v
	}
	for k, v := range f.orders {
		snap.orders[k] = v
	}
	snap.history = append([]domain.StatusHistoryEntry(nil), f.history...)
	return snap
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.listings = snap.listings
	f.reservations = snap.reservations
	f.carts = snap.carts
	f.sessions = snap.sessions
	f.interactions = snap.interactions
	f.items = snap.items
	f.payments = snap.payments
	f.orders = snap.orders
	f.history = snap.history
}

// ledger

func (f *fakeStore) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	return f.GetListing(ctx, listingID)
}

func (f *fakeStore) GetListing(_ context.Context, listingID string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeStore) UpdateListingQuantity(_ context.Context, listingID string, available int, status domain.ListingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.AvailableQuantity = available
	l.Status = status
	f.listings[listingID] = l
	return nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeStore) GetReservationForUpdate(_ context.Context, reservationID string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeStore) UpdateReservationStatus(_ context.Context, reservationID string, status domain.ReservationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	r.Status = status
	f.reservations[reservationID] = r
	return nil
}

// carts

func (f *fakeStore) GetCartByCustomer(_ context.Context, customerID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		if c.CustomerID == customerID {
			cart := c
			cart.Lines = append([]domain.CartLine(nil), c.Lines...)
			return &cart, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateCart(_ context.Context, cart domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.ID] = cart
	return nil
}

func (f *fakeStore) UpdateCartExpiry(_ context.Context, cartID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	c.ExpiresAt = expiresAt
	f.carts[cartID] = c
	return nil
}

func (f *fakeStore) AddCartLine(_ context.Context, cartID string, line domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	c.Lines = append(c.Lines, line)
	f.carts[cartID] = c
	return nil
}

func (f *fakeStore) UpdateCartLineQuantity(_ context.Context, lineID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.carts {
		for i := range c.Lines {
			if c.Lines[i].ID == lineID {
				c.Lines[i].Quantity = quantity
				f.carts[id] = c
				return nil
			}
		}
	}
	return domain.ErrCartLineNotFound
}

func (f *fakeStore) DeleteCartLine(_ context.Context, lineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.carts {
		for i := range c.Lines {
			if c.Lines[i].ID == lineID {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
				f.carts[id] = c
				return nil
			}
		}
	}
	return domain.ErrCartLineNotFound
}

func (f *fakeStore) DeleteCartLines(_ context.Context, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil
	}
	c.Lines = nil
	f.carts[cartID] = c
	return nil
}

func (f *fakeStore) ClearCartByCustomer(ctx context.Context, customerID string) error {
	cart, err := f.GetCartByCustomer(ctx, customerID)
	if err != nil || cart == nil {
		return err
	}
	return f.DeleteCartLines(ctx, cart.ID)
}

func (f *fakeStore) ListExpiredCartIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, c := range f.carts {
		if now.After(c.ExpiresAt) && len(c.Lines) > 0 && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// sessions

func (f *fakeStore) GetActiveSessionByCustomer(_ context.Context, customerID string) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.CustomerID == customerID && s.IsActive {
			session := s
			session.Lines = append([]domain.SessionLine(nil), s.Lines...)
			return &session, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSessionForUpdate(_ context.Context, sessionID string) (domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return domain.CheckoutSession{}, domain.ErrSessionNotFound
	}
	s.Lines = append([]domain.SessionLine(nil), s.Lines...)
	return s, nil
}

func (f *fakeStore) CreateSession(_ context.Context, session domain.CheckoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.CustomerID == session.CustomerID && s.IsActive {
			return domain.ErrSessionAlreadyActive
		}
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeStore) DeactivateSession(_ context.Context, sessionID string, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.IsActive = false
	if completedAt != nil {
		s.CompletedAt = completedAt
	}
	f.sessions[sessionID] = s
	return nil
}

func (f *fakeStore) ListExpiredActiveSessionIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, s := range f.sessions {
		if s.IsActive && now.After(s.ExpiresAt) && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// interactions

func (f *fakeStore) CreateInteraction(_ context.Context, in domain.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions[in.ID] = in
	return nil
}

func (f *fakeStore) GetInteraction(_ context.Context, interactionID string) (domain.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.interactions[interactionID]
	if !ok {
		return domain.Interaction{}, domain.ErrInteractionNotFound
	}
	return in, nil
}

func (f *fakeStore) GetInteractionForUpdate(ctx context.Context, interactionID string) (domain.Interaction, error) {
	return f.GetInteraction(ctx, interactionID)
}

func (f *fakeStore) UpdateInteractionStatus(_ context.Context, interactionID string, status domain.Status, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.interactions[interactionID]
	if !ok {
		return domain.ErrInteractionNotFound
	}
	in.Status = status
	if completedAt != nil {
		in.CompletedAt = completedAt
	}
	f.interactions[interactionID] = in
	return nil
}

func (f *fakeStore) SetInteractionReservation(_ context.Context, interactionID, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.interactions[interactionID]
	if !ok {
		return domain.ErrInteractionNotFound
	}
	in.ReservationID = &reservationID
	f.interactions[interactionID] = in
	return nil
}

func (f *fakeStore) SetRejectionReason(_ context.Context, interactionID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.interactions[interactionID]
	if !ok {
		return domain.ErrInteractionNotFound
	}
	in.RejectionReason = reason
	f.interactions[interactionID] = in
	return nil
}

func (f *fakeStore) CreateInteractionItem(_ context.Context, item domain.InteractionItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.InteractionID] = append(f.items[item.InteractionID], item)
	return nil
}

func (f *fakeStore) GetInteractionItems(_ context.Context, interactionID string) ([]domain.InteractionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.InteractionItem(nil), f.items[interactionID]...), nil
}

// payments

func (f *fakeStore) CreatePayment(_ context.Context, p domain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
	return nil
}

func (f *fakeStore) UpdatePaymentStatus(_ context.Context, paymentID string, status domain.Status, processedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return domain.ErrInteractionNotFound
	}
	p.Status = status
	if processedAt != nil {
		p.ProcessedAt = processedAt
	}
	f.payments[paymentID] = p
	return nil
}

// orders

func (f *fakeStore) CreateOrder(_ context.Context, o domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createOrderCalls++
	if f.failCreateOrder != nil {
		return f.failCreateOrder
	}
	for _, existing := range f.orders {
		if existing.PickupCode == o.PickupCode {
			return domain.ErrPickupCodeConflict
		}
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) GetOrderByInteraction(_ context.Context, interactionID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.InteractionID == interactionID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) ListOrdersByActor(_ context.Context, actorID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if in, ok := f.interactions[o.InteractionID]; ok && in.ActorID == actorID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrdersByProvider(_ context.Context, providerID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if in, ok := f.interactions[o.InteractionID]; ok && in.ProviderID == providerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// history

func (f *fakeStore) AppendStatusHistory(_ context.Context, entry domain.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppendHistory {
		return context.DeadlineExceeded
	}
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeStore) GetStatusHistory(_ context.Context, interactionID string) ([]domain.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StatusHistoryEntry
	for _, e := range f.history {
		if e.InteractionID == interactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// listings (admin surface)

func (f *fakeStore) CreateListing(_ context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[l.ID] = l
	return nil
}

func (f *fakeStore) ListListings(_ context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}
