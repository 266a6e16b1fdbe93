package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xenking/furniture-kart/internal/domain/cart"
	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/domain/session"
)

type cartResponse struct {
	Items          []cart.LineItem `json:"items"`
	TotalItems     int             `json:"totalItems"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	FormattedTotal string          `json:"formattedTotal"`
	Locale         locale.Locale   `json:"locale"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "session required")
	}
	return s, ok
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, s *session.Session) {
	l := s.Locale()
	snap := s.Cart.Snapshot()
	items := snap.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	for i := range items {
		items[i].Image = h.imageURL(items[i].Image)
	}
	writeJSON(w, status, cartResponse{
		Items:          items,
		TotalItems:     snap.TotalItems,
		TotalPrice:     snap.TotalPrice,
		FormattedTotal: locale.FormatPrice(l, snap.TotalPrice),
		Locale:         l,
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

// addItem adds the product named by productId, which may be a composite id
// ("office-18") or a sequence number ("42"). The line is priced from the
// product detail record, the fixed list price, and not from the listing a
// client may have shown: listing prices are redrawn on every list build.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "cart.AddItem")
	defer span.End()

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	span.SetAttributes(attribute.String("product.id", req.ProductID))

	p, err := h.catalog.Resolve(s.Locale(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	s.Cart.AddItem(ctx, p)
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "cart.SetQuantity")
	defer span.End()

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("product.id", id), attribute.Int("quantity", *req.Quantity))

	s.Cart.SetQuantity(ctx, id, *req.Quantity)
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "cart.RemoveItem")
	defer span.End()

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	s.Cart.RemoveItem(ctx, chi.URLParam(r, "id"))
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "cart.Clear")
	defer span.End()

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	s.Cart.Clear(ctx)
	h.writeCart(w, http.StatusOK, s)
}
