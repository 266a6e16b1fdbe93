package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/furniture-kart/internal/domain/cart"
	"github.com/xenking/furniture-kart/internal/domain/kv"
	"github.com/xenking/furniture-kart/internal/domain/locale"
)

// Config controls session caching.
type Config struct {
	// IdleTTL is how long an untouched session stays cached in memory. Its
	// state remains in storage after eviction.
	IdleTTL time.Duration
	// Meter records cart and session metrics. Nil disables metrics.
	Meter metric.Meter
}

// Manager hands out sessions by id, loading each from storage at most once
// while it stays cached.
type Manager struct {
	lg      *zap.Logger
	storage kv.Store
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session

	mutations metric.Int64Counter
	active    metric.Int64UpDownCounter
}

// NewManager creates a Manager over storage.
func NewManager(lg *zap.Logger, storage kv.Store, cfg Config) (*Manager, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	meter := cfg.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	mutations, err := meter.Int64Counter("furniture.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mutations counter")
	}
	active, err := meter.Int64UpDownCounter("furniture.sessions.active",
		metric.WithDescription("Sessions cached in memory"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create sessions counter")
	}

	return &Manager{
		lg:        lg,
		storage:   storage,
		ttl:       cfg.IdleTTL,
		now:       time.Now,
		sessions:  make(map[string]*Session),
		mutations: mutations,
		active:    active,
	}, nil
}

// Get returns the session with id, rehydrating it on first use. fallback is
// the locale assigned when storage holds no valid locale for the session.
// Loading is best-effort and never fails.
func (m *Manager) Get(ctx context.Context, id string, fallback locale.Locale) *Session {
	if s := m.cached(id); s != nil {
		return s
	}

	// A cancelled request must not leave a half-loaded session cached.
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := m.group.Do(id, func() (any, error) {
		if s := m.cached(id); s != nil {
			return s, nil
		}
		s := m.load(loadCtx, id, fallback)

		m.mu.Lock()
		m.sessions[id] = s
		m.mu.Unlock()
		m.active.Add(loadCtx, 1)
		return s, nil
	})
	return v.(*Session)
}

// Len returns the number of cached sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) cached(id string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.touch(m.now())
	return s
}

func (m *Manager) load(ctx context.Context, id string, fallback locale.Locale) *Session {
	lg := m.lg.With(zap.String("session", id))

	s := &Session{
		ID:      id,
		Cart:    cart.Open(ctx, lg, m.storage, CartKey(id)),
		lg:      lg,
		storage: m.storage,
		locale:  m.loadLocale(ctx, lg, id, fallback),
	}
	s.touch(m.now())
	s.unsubscribe = s.Cart.Subscribe(func(c cart.Change) {
		m.mutations.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("op", string(c.Op))),
		)
	})
	return s
}

func (m *Manager) loadLocale(ctx context.Context, lg *zap.Logger, id string, fallback locale.Locale) locale.Locale {
	if !fallback.Valid() {
		fallback = locale.Default
	}
	data, err := m.storage.Get(ctx, LocaleKey(id))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			lg.Warn("Load locale failed", zap.Error(err))
		}
		return fallback
	}
	l, err := locale.Parse(string(data))
	if err != nil {
		lg.Warn("Discarding stored locale", zap.ByteString("value", data), zap.Error(err))
		return fallback
	}
	return l
}

// Evict drops sessions idle for longer than the configured TTL and returns
// how many were removed.
func (m *Manager) Evict() int {
	now := m.now()

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.unsubscribe()
	}
	if len(evicted) > 0 {
		m.active.Add(context.Background(), -int64(len(evicted)))
		m.lg.Debug("Evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// StartJanitor evicts idle sessions every interval until ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Evict()
			}
		}
	}()
}
