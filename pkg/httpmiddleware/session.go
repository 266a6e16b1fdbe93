package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "sid"

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Secure bool
	MaxAge time.Duration
}

type sessionKey struct{}

// SessionIDFromContext returns the session id assigned by Session.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// WithSessionID returns a copy of ctx carrying the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// Session makes sure every request has a session id. A missing or
// malformed sid cookie is replaced with a fresh UUID. The cookie is
// refreshed on each response so its expiry slides with activity.
func Session(cfg SessionConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			cookie := &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if cfg.MaxAge > 0 {
				cookie.MaxAge = int(cfg.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)

			ctx := WithSessionID(r.Context(), id)
			ctx = zctx.With(ctx, zap.String("session", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
