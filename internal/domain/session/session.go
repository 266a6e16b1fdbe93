// Package session binds a browser profile to its cart and locale, both
// rehydrated from and written back to a kv.Store.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/furniture-kart/internal/domain/cart"
	"github.com/xenking/furniture-kart/internal/domain/kv"
	"github.com/xenking/furniture-kart/internal/domain/locale"
)

// CartKey returns the storage key of a session's serialized line items.
func CartKey(id string) string {
	return "session:" + id + ":cart"
}

// LocaleKey returns the storage key of a session's selected locale.
func LocaleKey(id string) string {
	return "session:" + id + ":language"
}

// Session is the state of one browser profile.
type Session struct {
	ID   string
	Cart *cart.Store

	lg      *zap.Logger
	storage kv.Store

	mu     sync.RWMutex
	locale locale.Locale

	lastSeen    atomic.Int64
	unsubscribe func()
}

// Locale returns the currently selected locale.
func (s *Session) Locale() locale.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// SetLocale selects l and persists the choice. Existing cart lines keep
// the labels they were added with. A failed write is logged and ignored.
func (s *Session) SetLocale(ctx context.Context, l locale.Locale) {
	s.mu.Lock()
	s.locale = l
	s.mu.Unlock()

	s.persistLocale(ctx, l)
}

// ToggleLocale flips between English and Arabic and returns the new locale.
func (s *Session) ToggleLocale(ctx context.Context) locale.Locale {
	s.mu.Lock()
	s.locale = locale.Toggle(s.locale)
	next := s.locale
	s.mu.Unlock()

	s.persistLocale(ctx, next)
	return next
}

func (s *Session) persistLocale(ctx context.Context, l locale.Locale) {
	if err := s.storage.Set(ctx, LocaleKey(s.ID), []byte(l)); err != nil {
		s.lg.Warn("Persist locale failed", zap.Error(err))
	}
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}
