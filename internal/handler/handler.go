// Package handler exposes the catalog, cart and locale over HTTP. It plays
// the role of the storefront's navigation binder: unknown collections and
// out-of-range product indices redirect instead of failing.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/domain/session"
	"github.com/xenking/furniture-kart/pkg/httpmiddleware"
)

// Catalog is the read side of the catalog index used by the handlers.
type Catalog interface {
	Categories(l locale.Locale) []catalog.Category
	Collection(l locale.Locale, key string) (catalog.Category, error)
	List(l locale.Locale, filter string) ([]catalog.Product, error)
	FilterName(l locale.Locale, filter string) (string, error)
	Product(l locale.Locale, key string, index int) (catalog.Product, error)
	NextIndex(key string, current int) (int, error)
	PrevIndex(key string, current int) (int, error)
	Resolve(l locale.Locale, id string) (catalog.Product, error)
}

// Sessions returns the session of a browser profile.
type Sessions interface {
	Get(ctx context.Context, id string, fallback locale.Locale) *session.Session
}

var _ Catalog = (*catalog.Index)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to image paths in responses. When empty,
	// paths are returned as stored in the catalog.
	ImageBaseURL string
	// ThumbnailCount is the size of the strip returned with a product.
	ThumbnailCount int
}

// Handler serves the /api routes.
type Handler struct {
	catalog      Catalog
	sessions     Sessions
	tracer       trace.Tracer
	imageBaseURL string
	thumbnails   int
}

// New constructs a Handler. A nil tp disables handler spans.
func New(cfg Config, cat Catalog, sessions Sessions, tp trace.TracerProvider) *Handler {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	if cfg.ThumbnailCount <= 0 {
		cfg.ThumbnailCount = 6
	}
	return &Handler{
		catalog:      cat,
		sessions:     sessions,
		tracer:       tp.Tracer("github.com/xenking/furniture-kart/internal/handler"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		thumbnails:   cfg.ThumbnailCount,
	}
}

// Routes returns the API router. Middlewares are installed with chi's Use,
// so they observe the matched route pattern.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/collections", h.listCollections)
		r.Get("/collections/{category}", h.getCollection)
		r.Get("/products", h.listProducts)
		r.Get("/products/{category}/{index}", h.getProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addItem)
			r.Put("/items/{id}", h.setQuantity)
			r.Delete("/items/{id}", h.removeItem)
		})

		r.Get("/locale", h.getLocale)
		r.Put("/locale", h.setLocale)
		r.Post("/locale/toggle", h.toggleLocale)
	})
	return r
}

// session returns the caller's session. The first request of a profile
// seeds its locale from Accept-Language.
func (h *Handler) session(r *http.Request) (*session.Session, bool) {
	id, ok := httpmiddleware.SessionIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	fallback := locale.Negotiate(r.Header.Get("Accept-Language"))
	return h.sessions.Get(r.Context(), id, fallback), true
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" {
		return path
	}
	return h.imageBaseURL + path
}
