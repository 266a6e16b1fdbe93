package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/kv"
	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/storage/memory"
)

// --- Fakes ---

type failingStorage struct {
	getErr error
	setErr error

	mu   sync.Mutex
	sets int
}

func (f *failingStorage) Get(context.Context, string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, kv.ErrNotFound
}

func (f *failingStorage) Set(context.Context, string, []byte) error {
	f.mu.Lock()
	f.sets++
	f.mu.Unlock()
	return f.setErr
}

func (f *failingStorage) Delete(context.Context, string) error { return nil }
func (f *failingStorage) Ping(context.Context) error           { return nil }

// --- Helpers ---

const cartKey = "session:test:cart"

func product(id, price string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Item " + id,
		Price:    price,
		Category: "Test",
		Image:    "/image/" + id + ".jpg",
	}
}

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	storage := memory.New()
	return Open(context.Background(), nil, storage, cartKey), storage
}

// --- Tests ---

func TestAddItem_MergesByID(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.AddItem(ctx, product("x", "$100"))
	s.AddItem(ctx, product("x", "$100"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 2, s.TotalItemCount())
}

func TestAddItem_KeepsSnapshotLabels(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.AddItem(ctx, catalog.Product{ID: "office-3", Name: "Office - Item 4", Price: "$1,299", Category: "Office"})
	s.AddItem(ctx, catalog.Product{ID: "office-3", Name: "المكتب - قطعة 4", Price: "١٬٢٩٩ ر.س", Category: "المكتب"})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Office - Item 4", items[0].Name)
	assert.Equal(t, "$1,299", items[0].Price)
	assert.Equal(t, "Office", items[0].Category)
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.AddItem(ctx, product("a", "$1"))
	s.AddItem(ctx, product("b", "$1"))
	s.AddItem(ctx, product("a", "$1"))
	s.AddItem(ctx, product("c", "$1"))

	var ids []string
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestTotals_Scenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.AddItem(ctx, product("x", "$100"))
	s.AddItem(ctx, product("x", "$100"))
	s.AddItem(ctx, product("y", "$50"))

	assert.Equal(t, 3, s.TotalItemCount())
	assert.True(t, decimal.NewFromInt(250).Equal(s.TotalPrice()), "got %s", s.TotalPrice())
	assert.Equal(t, "$250", s.FormattedTotal(locale.EN))
	assert.Equal(t, "٢٥٠ ر.س", s.FormattedTotal(locale.AR))
}

func TestTotals_MixedLocalePrices(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.AddItem(ctx, product("a", "$1,299"))
	s.AddItem(ctx, product("b", "١٬٢٩٩ ر.س"))
	s.AddItem(ctx, product("c", "no price"))

	assert.Equal(t, 3, s.TotalItemCount())
	assert.True(t, decimal.NewFromInt(2598).Equal(s.TotalPrice()), "got %s", s.TotalPrice())
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.AddItem(ctx, product("x", "$10"))

	s.SetQuantity(ctx, "x", 7)
	assert.Equal(t, 7, s.TotalItemCount())

	s.SetQuantity(ctx, "x", 1000)
	assert.Equal(t, 1000, s.TotalItemCount(), "no upper bound")

	s.SetQuantity(ctx, "missing", 3)
	assert.Len(t, s.Items(), 1)

	s.SetQuantity(ctx, "x", 0)
	assert.Empty(t, s.Items())

	assert.NotPanics(t, func() { s.RemoveItem(ctx, "x") })
	assert.Empty(t, s.Items())
}

func TestSetQuantity_NegativeRemoves(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.AddItem(ctx, product("x", "$10"))
	s.AddItem(ctx, product("y", "$10"))

	s.SetQuantity(ctx, "x", -1)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "y", items[0].ID)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.AddItem(ctx, product("x", "$10"))
	s.AddItem(ctx, product("y", "$20"))

	s.RemoveItem(ctx, "x")
	s.RemoveItem(ctx, "absent")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "y", items[0].ID)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.AddItem(ctx, product("x", "$10"))
	s.AddItem(ctx, product("y", "$20"))

	s.Clear(ctx)

	assert.Equal(t, 0, s.TotalItemCount())
	assert.True(t, s.TotalPrice().IsZero())
	assert.Empty(t, s.Items())
}

func TestItems_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.AddItem(ctx, product("x", "$10"))

	items := s.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, s.TotalItemCount())
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, storage := newStore(t)

	s.AddItem(ctx, product("a", "$100"))
	s.AddItem(ctx, product("b", "١٬٢٩٩ ر.س"))
	s.AddItem(ctx, product("b", "١٬٢٩٩ ر.س"))
	s.AddItem(ctx, product("c", "$5"))

	restored := Open(ctx, nil, storage, cartKey)
	assert.Equal(t, s.Items(), restored.Items())
	assert.Equal(t, 4, restored.TotalItemCount())
}

func TestOpen_CorruptOrAbsentStorage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage", data: []byte("{not json")},
		{name: "object", data: []byte(`{"id":"x"}`)},
		{name: "wrong types", data: []byte(`[{"id":"x","quantity":"lots"}]`)},
		{name: "empty", data: []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := memory.New()
			require.NoError(t, storage.Set(ctx, cartKey, tt.data))

			s := Open(ctx, nil, storage, cartKey)
			assert.Empty(t, s.Items())
			assert.Equal(t, 0, s.TotalItemCount())
		})
	}

	t.Run("absent", func(t *testing.T) {
		s := Open(ctx, nil, memory.New(), cartKey)
		assert.Empty(t, s.Items())
	})

	t.Run("storage error", func(t *testing.T) {
		s := Open(ctx, nil, &failingStorage{getErr: errors.New("boom")}, cartKey)
		assert.Empty(t, s.Items())
	})
}

func TestPersistFailure_KeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{setErr: errors.New("quota exceeded")}
	s := Open(ctx, nil, storage, cartKey)

	assert.NotPanics(t, func() {
		s.AddItem(ctx, product("x", "$10"))
		s.AddItem(ctx, product("x", "$10"))
	})

	assert.Equal(t, 2, s.TotalItemCount())
	assert.Equal(t, 2, storage.sets, "every mutation attempts a write")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	s.AddItem(ctx, product("x", "$10"))
	s.SetQuantity(ctx, "x", 3)
	s.SetQuantity(ctx, "x", 0)
	s.Clear(ctx)

	require.Len(t, changes, 4)
	assert.Equal(t, OpAdd, changes[0].Op)
	assert.Equal(t, 1, changes[0].Snapshot.TotalItems)
	assert.Equal(t, OpSetQuantity, changes[1].Op)
	assert.Equal(t, 3, changes[1].Snapshot.TotalItems)
	assert.True(t, decimal.NewFromInt(30).Equal(changes[1].Snapshot.TotalPrice))
	assert.Equal(t, OpRemove, changes[2].Op)
	assert.Empty(t, changes[2].Snapshot.Items)
	assert.Equal(t, OpClear, changes[3].Op)

	unsubscribe()
	s.AddItem(ctx, product("y", "$10"))
	assert.Len(t, changes, 4)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(ctx, product("x", "$1"))
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}
