// Package store is the session-wide cache of known orders and menu items:
// the single state container every view reads from. Mutations come either
// from gateway-confirmed actions or from realtime events; views observe
// changes through Subscribe and re-read the selectors.
package store

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/beanbar-pos/client/internal/catalog"
	"github.com/beanbar-pos/client/internal/enum"
	"github.com/beanbar-pos/client/internal/order"
	"github.com/beanbar-pos/client/internal/status"
)

// Change kinds published to subscribers.
const (
	ChangeOrders  = "orders"
	ChangeStatus  = "status"
	ChangeCatalog = "catalog"
)

// Change tells subscribers what moved; OrderID is set for status changes.
type Change struct {
	Kind    string
	OrderID int64
}

// Store is an observable in-memory cache. It is safe for concurrent use:
// realtime events land on the channel's read goroutine while views read
// from their own.
type Store struct {
	mu     sync.RWMutex
	orders []order.Order
	menu   []catalog.MenuItem

	// seq counts confirmed mutations; BeginFetch snapshots it so a
	// response from a fetch that raced a mutation can be discarded.
	seq uint64

	subs map[chan Change]struct{}
	log  zerolog.Logger
}

// New creates an empty store.
func New(log zerolog.Logger) *Store {
	return &Store{
		subs: make(map[chan Change]struct{}),
		log:  log,
	}
}

// ── Mutations ──

// SetOrders replaces the full order list unconditionally. Use at
// bootstrap; refresh paths should pair BeginFetch with SetOrdersAt so a
// stale response never overwrites confirmed local state.
func (s *Store) SetOrders(list []order.Order) {
	s.mu.Lock()
	s.orders = cloneOrders(list)
	s.seq++
	s.mu.Unlock()
	s.publish(Change{Kind: ChangeOrders})
}

// BeginFetch marks the start of an order fetch. Pass the returned token
// to SetOrdersAt with the response.
func (s *Store) BeginFetch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// SetOrdersAt replaces the order list only if no mutation was confirmed
// since the fetch began. Returns false when the snapshot was discarded as
// stale; the caller may refetch.
func (s *Store) SetOrdersAt(begun uint64, list []order.Order) bool {
	s.mu.Lock()
	if s.seq != begun {
		s.mu.Unlock()
		s.log.Debug().Uint64("begun", begun).Uint64("seq", s.seq).Msg("discarding stale order fetch")
		return false
	}
	s.orders = cloneOrders(list)
	s.seq++
	s.mu.Unlock()
	s.publish(Change{Kind: ChangeOrders})
	return true
}

// ApplyStatusUpdate replaces one order's status in place, leaving every
// other field untouched. Unknown order ids are a silent no-op (the order
// will arrive on the next fetch); statuses outside the taxonomy are
// rejected.
func (s *Store) ApplyStatusUpdate(orderID int64, newStatus string) bool {
	if !status.IsValid(newStatus) {
		s.log.Debug().Int64("order_id", orderID).Str("status", newStatus).Msg("ignoring unknown status")
		return false
	}

	s.mu.Lock()
	applied := false
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = newStatus
			applied = true
			break
		}
	}
	if applied {
		s.seq++
	}
	s.mu.Unlock()

	if applied {
		s.publish(Change{Kind: ChangeStatus, OrderID: orderID})
	}
	return applied
}

// UpsertCatalog replaces the known menu. An empty list falls back to the
// built-in default menu so the terminal stays usable when the catalog
// fetch fails; that fallback is a resilience policy, not an error path.
func (s *Store) UpsertCatalog(items []catalog.MenuItem) {
	if len(items) == 0 {
		items = catalog.Default()
		s.log.Info().Msg("catalog empty, using built-in default menu")
	}
	s.mu.Lock()
	s.menu = append([]catalog.MenuItem(nil), items...)
	s.mu.Unlock()
	s.publish(Change{Kind: ChangeCatalog})
}

// ── Selectors (pure reads, never trigger network activity) ──

// Orders returns a copy of every known order.
func (s *Store) Orders() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders)
}

// OrdersByStatus filters orders by exact status.
func (s *Store) OrdersByStatus(st string) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []order.Order
	for _, o := range s.orders {
		if o.Status == st {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

// ActiveOrders returns everything still in the fulfillment pipeline:
// pending, preparing, or ready.
func (s *Store) ActiveOrders() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []order.Order
	for _, o := range s.orders {
		switch o.Status {
		case enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady:
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

// OrderByID looks up one order.
func (s *Store) OrderByID(id int64) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return cloneOrder(o), true
		}
	}
	return order.Order{}, false
}

// MenuItems returns a copy of the known menu.
func (s *Store) MenuItems() []catalog.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.MenuItem(nil), s.menu...)
}

// MenuItemByID looks up one menu item.
func (s *Store) MenuItemByID(id string) (catalog.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.menu {
		if m.ID == id {
			return m, true
		}
	}
	return catalog.MenuItem{}, false
}

// PriceFor resolves a menu item's unit price; feeds cart.Total.
func (s *Store) PriceFor(menuItemID string) (decimal.Decimal, bool) {
	m, ok := s.MenuItemByID(menuItemID)
	if !ok {
		return decimal.Zero, false
	}
	return m.Price, true
}

// ── Subscriptions ──

// Subscribe returns a change feed and a cancel func. Slow subscribers
// lose intermediate changes rather than blocking mutations; selectors
// always serve the latest state.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) publish(c Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.LineItem(nil), o.Items...)
	return o
}

func cloneOrders(list []order.Order) []order.Order {
	out := make([]order.Order, len(list))
	for i, o := range list {
		out[i] = cloneOrder(o)
	}
	return out
}
