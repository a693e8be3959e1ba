package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
	applog "whatsstore/internal/log"
)

// CartPersister stores one opaque cart snapshot per session.
// LoadCart returns nil when nothing was saved.
type CartPersister interface {
	LoadCart(ctx context.Context, sessionID string) ([]byte, error)
	SaveCart(ctx context.Context, sessionID string, snapshot []byte) error
}

// CartStore is one session's cart as seen by one request. Every mutation
// reloads the persisted snapshot, applies the change and only swaps the new
// item sequence in after it was saved, so stores on other instances sharing
// the persister see each other's writes.
type CartStore struct {
	mu      sync.Mutex
	sid     string
	items   []domain.CartItem
	persist CartPersister
	locks   *sessionLocks
}

// NewCartStore restores the session's snapshot. Unreadable snapshots give an empty cart.
func NewCartStore(ctx context.Context, sid string, p CartPersister) (*CartStore, error) {
	s := &CartStore{sid: sid, persist: p}
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *CartStore) load(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := s.persist.LoadCart(ctx, s.sid)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil || !wellFormed(items) {
		applog.Error(nil, "cart_snapshot_reset", err, map[string]any{"session": s.sid})
		return nil, nil
	}
	return items, nil
}

func wellFormed(items []domain.CartItem) bool {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || seen[it.ID] {
			return false
		}
		seen[it.ID] = true
	}
	return true
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Add increments the line for p or appends a new one. Quantities below 1 count as 1.
func (s *CartStore) Add(ctx context.Context, p domain.Product, qty int) error {
	qty = atLeastOne(qty)
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == p.ID {
				items[i].Quantity += qty
				return items
			}
		}
		return append(items, domain.CartItem{Product: p, Quantity: qty})
	})
}

// Remove drops the whole line; unknown ids are a no-op.
func (s *CartStore) Remove(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		return out
	})
}

// UpdateQuantity sets a line's quantity, clamped to at least 1; unknown ids are a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, n int) error {
	n = atLeastOne(n)
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == productID {
				items[i].Quantity = n
			}
		}
		return items
	})
}

func (s *CartStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]domain.CartItem) []domain.CartItem { return nil })
}

// Items returns a copy of the current lines in insertion order.
func (s *CartStore) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.items...)
}

// Total is recomputed from the lines on every call.
func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Total(s.items)
}

func (s *CartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// mutate applies f to the freshly loaded snapshot, persists the result and
// only then swaps it in.
func (s *CartStore) mutate(ctx context.Context, f func([]domain.CartItem) []domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks != nil {
		defer s.locks.lock(s.sid)()
	}
	cur, err := s.load(ctx)
	if err != nil {
		return err
	}
	next := f(cur)
	if next == nil {
		next = []domain.CartItem{}
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.persist.SaveCart(ctx, s.sid, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.items = next
	return nil
}

// sessionLocks serializes cart writes per session within this process.
// Entries are dropped once nobody holds or waits for them.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func (l *sessionLocks) lock(sid string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.held[sid]
	if !ok {
		e = &sessionLock{}
		l.held[sid] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, sid)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// CartService opens session carts on the shared persister. It keeps no cart
// state of its own, so any number of instances may share one persister.
type CartService struct {
	Persist CartPersister

	locks sessionLocks
}

func NewCartService(p CartPersister) *CartService {
	return &CartService{Persist: p, locks: sessionLocks{held: map[string]*sessionLock{}}}
}

// Store loads the session's cart from the persister.
func (s *CartService) Store(ctx context.Context, sid string) (*CartStore, error) {
	st, err := NewCartStore(ctx, sid, s.Persist)
	if err != nil {
		return nil, err
	}
	st.locks = &s.locks
	return st, nil
}

// Pending reports how many sessions have a cart write in flight.
func (s *CartService) Pending() int { return s.locks.len() }
