package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestLiveEndpoint(t *testing.T) {
	h := New(zaptest.NewLogger(t))
	h.Add(Liveness, "goroutines", time.Second, GoroutineCheck(1_000_000))

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, w).Status)
}

func TestCheck_FailureThreshold(t *testing.T) {
	h := New(zaptest.NewLogger(t))
	h.Add(Readiness, "store", time.Second, PingCheck(pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	})))
	h.SetReady(true)
	c := h.checks[0]
	ctx := context.Background()

	for range FailureThreshold - 1 {
		c.poll(ctx, h.lg)
		assert.True(t, h.IsReady(), "below threshold")
	}
	c.poll(ctx, h.lg)
	assert.False(t, h.IsReady())

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["store"], "connection refused")

	// Liveness is unaffected by readiness failures.
	w = httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheck_Recovers(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	h := New(nil)
	h.Add(Readiness, "store", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	})
	h.SetReady(true)
	c := h.checks[0]

	for range FailureThreshold {
		c.poll(context.Background(), h.lg)
	}
	require.False(t, h.IsReady())

	failing.Store(false)
	c.poll(context.Background(), h.lg)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_NotReady(t *testing.T) {
	h := New(nil)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "service is not ready", decode(t, w).Checks["_readiness"])

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	h := New(zaptest.NewLogger(t))
	h.Add(Liveness, "counter", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()
	h.Stop()

	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), stopped+1)
}

func TestGoroutineCheck(t *testing.T) {
	require.NoError(t, GoroutineCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCheck(0)(context.Background()))
}
