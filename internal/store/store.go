// Package store is the client-side cart & order state manager. It owns
// cart line items, the locally cached order history, session identity and
// the cart-drawer flag, persists each slice to durable local storage as
// part of every mutation, and notifies subscribers synchronously after
// the in-memory state changes.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	log     *zap.Logger
	storage storage.Storage

	cart     []CartLineItem
	orders   []Order // newest first
	session  Session
	cartOpen bool

	subs    map[int]func(Change)
	nextSub int
}

// New loads persisted state and returns a ready store. Each state slice
// is read independently: a missing or unreadable slice falls back to its
// default without blocking the others.
func New(st storage.Storage, log *zap.Logger) *Store {
	s := &Store{
		log:     log,
		storage: st,
		subs:    make(map[int]func(Change)),
	}
	s.load()
	return s
}

func (s *Store) load() {
	s.cart = loadSlice[CartLineItem](s, storage.KeyCart)
	s.orders = loadSlice[Order](s, storage.KeyOrders)

	var user json.RawMessage
	if b, err := s.storage.Get(storage.KeySessionUser); err == nil {
		if json.Valid(b) {
			user = append(json.RawMessage(nil), b...)
		} else {
			s.log.Warn("discarding unreadable session user")
		}
	} else if err != storage.ErrNotFound {
		s.log.Warn("reading session user", zap.Error(err))
	}

	role := RoleAnonymous
	if b, err := s.storage.Get(storage.KeySessionRole); err == nil {
		role = Role(strings.TrimSpace(string(b)))
	} else if err != storage.ErrNotFound {
		s.log.Warn("reading session role", zap.Error(err))
	}

	// a user without a valid role (or the reverse) is treated as anonymous
	if len(user) == 0 || (role != RoleAdmin && role != RoleCustomer) {
		s.session = Session{}
		return
	}
	s.session = Session{User: user, Role: role}
}

func loadSlice[T any](s *Store, key string) []T {
	b, err := s.storage.Get(key)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		s.log.Warn("reading persisted state", zap.String("key", key), zap.Error(err))
		return nil
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		s.log.Warn("discarding unreadable state", zap.String("key", key), zap.Error(err))
		return nil
	}
	return out
}

/* ================= SUBSCRIPTIONS ================= */

// Subscribe registers fn to be called synchronously after each mutation.
// The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs must be called with the lock held. Subscribers run after
// the lock is released so they may call back into the store.
func (s *Store) snapshotSubs() []func(Change) {
	out := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func emit(subs []func(Change), changes ...Change) {
	for _, fn := range subs {
		for _, ch := range changes {
			fn(ch)
		}
	}
}

/* ================= READS ================= */

func (s *Store) Items() []CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cart)
}

func (s *Store) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) CartOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartOpen
}

/* ================= CART ================= */

// AddToCart merges the product into the cart. An existing line item for
// the same id gets its quantity incremented and keeps the name, price and
// image from its first add; a new product is appended with the given
// quantity.
func (s *Store) AddToCart(p Product, qty int, openCart bool) error {
	if p.ID == "" {
		return fmt.Errorf("%w: product has no id", ErrInvalidArgument)
	}
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	}

	s.mu.Lock()
	next := cloneItems(s.cart)
	found := false
	for i := range next {
		if next[i].ID == p.ID {
			next[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		next = append(next, CartLineItem{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Image:    p.Image,
			Price:    p.Price.clone(),
			Quantity: qty,
		})
	}
	if err := s.persistCart(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	changes := []Change{ChangeCart}
	if openCart && !s.cartOpen {
		s.cartOpen = true
		changes = append(changes, ChangeUI)
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, changes...)
	return nil
}

// UpdateQuantity adjusts a line item by delta, never below 1. Removing an
// item entirely goes through RemoveFromCart. An unknown id is a no-op.
func (s *Store) UpdateQuantity(id ProductID, delta int) error {
	s.mu.Lock()
	idx := -1
	for i := range s.cart {
		if s.cart[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	next := cloneItems(s.cart)
	q := next[idx].Quantity + delta
	if q < 1 {
		q = 1
	}
	next[idx].Quantity = q
	if err := s.persistCart(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeCart)
	return nil
}

// RemoveFromCart deletes the line item with the given id; unknown ids are
// a no-op.
func (s *Store) RemoveFromCart(id ProductID) error {
	s.mu.Lock()
	next := make([]CartLineItem, 0, len(s.cart))
	for _, it := range s.cart {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(s.cart) {
		s.mu.Unlock()
		return nil
	}
	if err := s.persistCart(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeCart)
	return nil
}

// ToggleCart flips the drawer flag. Ephemeral UI state, never persisted.
func (s *Store) ToggleCart() bool {
	s.mu.Lock()
	s.cartOpen = !s.cartOpen
	open := s.cartOpen
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeUI)
	return open
}

/* ================= ORDERS ================= */

// PlaceOrder creates a Pending order from caller-assembled data, prepends
// it to the history and clears the cart, as one transaction: if any
// persistence step fails the cart is retained and no order is added.
func (s *Store) PlaceOrder(data OrderData) (Order, error) {
	if len(data.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order has no items", ErrInvalidArgument)
	}

	ord := Order{
		ID:       newOrderID(),
		Items:    cloneItems(data.Items),
		Total:    data.Total.clone(),
		Shipping: append(json.RawMessage(nil), data.Shipping...),
		Payment:  append(json.RawMessage(nil), data.Payment...),
		Customer: append(json.RawMessage(nil), data.Customer...),
		Status:   StatusPending,
		Date:     time.Now().UTC(),
	}

	s.mu.Lock()
	nextOrders := make([]Order, 0, len(s.orders)+1)
	nextOrders = append(nextOrders, ord)
	nextOrders = append(nextOrders, s.orders...)

	if err := s.persistOrders(nextOrders); err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	if err := s.storage.Delete(storage.KeyCart); err != nil {
		// restore the previous orders value so the failure is never
		// observable as a half-applied order
		if rbErr := s.persistOrders(s.orders); rbErr != nil {
			s.log.Error("rollback of orders failed", zap.Error(rbErr))
		}
		s.mu.Unlock()
		return Order{}, fmt.Errorf("%w: clear cart: %v", ErrPersistence, err)
	}
	s.orders = nextOrders
	s.cart = nil
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeOrders, ChangeCart)
	return ord, nil
}

// UpdateOrderStatus replaces only the status of the matching order. An
// unknown id is a no-op; an unrecognized status is rejected.
func (s *Store) UpdateOrderStatus(orderID string, status OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	idx := -1
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	next := make([]Order, len(s.orders))
	copy(next, s.orders)
	next[idx].Status = status
	if err := s.persistOrders(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.orders = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeOrders)
	return nil
}

// newOrderID is unique even for two orders placed within the same
// millisecond; the uuid suffix makes the timestamp alone not load-bearing.
func newOrderID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

/* ================= SESSION ================= */

// Login sets user and role together and persists both; on a persistence
// failure neither is applied.
func (s *Store) Login(role Role, user json.RawMessage) error {
	if role != RoleAdmin && role != RoleCustomer {
		return fmt.Errorf("%w: unrecognized role %q", ErrInvalidArgument, role)
	}
	if len(user) == 0 || !json.Valid(user) {
		return fmt.Errorf("%w: user record required", ErrInvalidArgument)
	}

	s.mu.Lock()
	prevUser, prevUserErr := s.storage.Get(storage.KeySessionUser)
	if err := s.storage.Set(storage.KeySessionUser, user); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: session user: %v", ErrPersistence, err)
	}
	if err := s.storage.Set(storage.KeySessionRole, []byte(role)); err != nil {
		if prevUserErr == storage.ErrNotFound {
			_ = s.storage.Delete(storage.KeySessionUser)
		} else if prevUserErr == nil {
			_ = s.storage.Set(storage.KeySessionUser, prevUser)
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: session role: %v", ErrPersistence, err)
	}
	s.session = Session{User: append(json.RawMessage(nil), user...), Role: role}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeSession)
	return nil
}

// Logout clears user, role and the cached auth token together.
func (s *Store) Logout() error {
	s.mu.Lock()
	var firstErr error
	for _, key := range []string{storage.KeySessionUser, storage.KeySessionRole, storage.KeyToken} {
		if err := s.storage.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: clear session: %v", ErrPersistence, firstErr)
	}
	s.session = Session{}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	emit(subs, ChangeSession)
	return nil
}

// SetAuthToken caches the token issued by the remote auth service.
func (s *Store) SetAuthToken(token string) error {
	if err := s.storage.Set(storage.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("%w: auth token: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) AuthToken() string {
	b, err := s.storage.Get(storage.KeyToken)
	if err != nil {
		return ""
	}
	return string(b)
}

/* ================= PERSISTENCE ================= */

func (s *Store) persistCart(items []CartLineItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode cart: %v", ErrPersistence, err)
	}
	if err := s.storage.Set(storage.KeyCart, b); err != nil {
		return fmt.Errorf("%w: write cart: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) persistOrders(orders []Order) error {
	b, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("%w: encode orders: %v", ErrPersistence, err)
	}
	if err := s.storage.Set(storage.KeyOrders, b); err != nil {
		return fmt.Errorf("%w: write orders: %v", ErrPersistence, err)
	}
	return nil
}

// cloneItems deep-copies line items so order snapshots never alias the
// live cart.
func cloneItems(items []CartLineItem) []CartLineItem {
	out := make([]CartLineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Price = out[i].Price.clone()
	}
	return out
}
