package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/kv"
	"github.com/xenking/furniture-kart/internal/domain/locale"
)

// Store is the mutable cart of one session. All mutation goes through its
// methods; every mutation writes the cart to storage and then notifies
// subscribers. Storage failures are logged and never undo the in-memory
// change, which stays authoritative for the rest of the session.
type Store struct {
	lg      *zap.Logger
	storage kv.Store
	key     string

	mu    sync.Mutex
	items []LineItem

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// Open creates a Store and rehydrates it from storage under key. Missing or
// malformed stored data yields an empty cart.
func Open(ctx context.Context, lg *zap.Logger, storage kv.Store, key string) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &Store{
		lg:      lg,
		storage: storage,
		key:     key,
		subs:    make(map[int]func(Change)),
	}

	data, err := storage.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		lg.Warn("Load cart failed, starting empty", zap.String("key", key), zap.Error(err))
	default:
		items, err := UnmarshalItems(data)
		if err != nil {
			lg.Warn("Discarding malformed cart", zap.String("key", key), zap.Error(err))
			break
		}
		s.items = items
	}
	return s
}

// AddItem increments the quantity of the line whose id equals p.ID, or
// appends a new line with quantity 1 and the product labels as of now.
func (s *Store) AddItem(ctx context.Context, p catalog.Product) {
	s.mutate(ctx, OpAdd, func() {
		if i := s.find(p.ID); i >= 0 {
			s.items[i].Quantity++
			return
		}
		s.items = append(s.items, LineItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Image:    p.Image,
			Quantity: 1,
		})
	})
}

// RemoveItem deletes the line with id. Absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mutate(ctx, OpRemove, func() {
		s.remove(id)
	})
}

// SetQuantity sets the quantity of the line with id. A quantity of zero or
// less removes the line. Absent ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) {
	op := OpSetQuantity
	if quantity <= 0 {
		op = OpRemove
	}
	s.mutate(ctx, op, func() {
		if quantity <= 0 {
			s.remove(id)
			return
		}
		if i := s.find(id); i >= 0 {
			s.items[i].Quantity = quantity
		}
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, OpClear, func() {
		s.items = nil
	})
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Snapshot returns a copy of the cart together with its aggregates.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TotalItemCount returns the sum of quantities, not the number of lines.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

// TotalPrice returns the sum of quantity × unit price over all lines, with
// each unit price parsed back from its snapshotted label.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.lg, s.items)
}

// FormattedTotal renders TotalPrice with the decoration of l, regardless of
// the locale each line was added in.
func (s *Store) FormattedTotal(l locale.Locale) string {
	return locale.FormatPrice(l, s.TotalPrice())
}

// Subscribe registers fn to receive every subsequent change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) mutate(ctx context.Context, op Op, fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.persistLocked(ctx, snap.Items)
	s.mu.Unlock()

	s.notify(Change{Op: op, Snapshot: snap})
}

// persistLocked writes items while s.mu is held so that writes reach
// storage in mutation order.
func (s *Store) persistLocked(ctx context.Context, items []LineItem) {
	if err := s.storage.Set(ctx, s.key, MarshalItems(items)); err != nil {
		s.lg.Warn("Persist cart failed", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:      slices.Clone(s.items),
		TotalItems: totalItems(s.items),
		TotalPrice: totalPrice(s.lg, s.items),
	}
}

func (s *Store) find(id string) int {
	return slices.IndexFunc(s.items, func(it LineItem) bool { return it.ID == id })
}

func (s *Store) remove(id string) {
	s.items = slices.DeleteFunc(s.items, func(it LineItem) bool { return it.ID == id })
}
