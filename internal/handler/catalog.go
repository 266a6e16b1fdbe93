package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/locale"
)

type collectionsResponse struct {
	Locale      locale.Locale      `json:"locale"`
	Dir         string             `json:"dir"`
	Collections []catalog.Category `json:"collections"`
}

type productsResponse struct {
	Locale   locale.Locale     `json:"locale"`
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Products []catalog.Product `json:"products"`
}

type productResponse struct {
	Product    catalog.Product `json:"product"`
	Next       int             `json:"next"`
	Prev       int             `json:"prev"`
	Thumbnails []string        `json:"thumbnails"`
}

func (h *Handler) requestLocale(w http.ResponseWriter, r *http.Request) (locale.Locale, bool) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return "", false
	}
	return s.Locale(), true
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	l, ok := h.requestLocale(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, collectionsResponse{
		Locale:      l,
		Dir:         locale.Dir(l),
		Collections: h.catalog.Categories(l),
	})
}

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	l, ok := h.requestLocale(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.Collection(l, chi.URLParam(r, "category"))
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		redirect(w, r, "/api/collections")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	for i, img := range c.Images {
		c.Images[i] = h.imageURL(img)
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	l, ok := h.requestLocale(w, r)
	if !ok {
		return
	}
	filter := r.URL.Query().Get("category")
	if filter == "" {
		filter = catalog.FilterAll
	}
	title, err := h.catalog.FilterName(l, filter)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		redirect(w, r, "/api/products?category="+url.QueryEscape(catalog.FilterAll))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	products, err := h.catalog.List(l, filter)
	if err != nil {
		internalError(w, r, err)
		return
	}
	for i := range products {
		products[i].Image = h.imageURL(products[i].Image)
	}
	writeJSON(w, http.StatusOK, productsResponse{
		Locale:   l,
		Category: filter,
		Title:    title,
		Products: products,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	l, ok := h.requestLocale(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "category")
	index := parseIndex(chi.URLParam(r, "index"))

	p, err := h.catalog.Product(l, key, index)
	if errors.Is(err, catalog.ErrCategoryNotFound) || errors.Is(err, catalog.ErrIndexOutOfRange) {
		redirect(w, r, "/api/collections")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	next, err := h.catalog.NextIndex(key, index)
	if err != nil {
		internalError(w, r, err)
		return
	}
	prev, err := h.catalog.PrevIndex(key, index)
	if err != nil {
		internalError(w, r, err)
		return
	}
	c, err := h.catalog.Collection(l, key)
	if err != nil {
		internalError(w, r, err)
		return
	}
	thumbs := c.Images[:min(h.thumbnails, len(c.Images))]
	for i, img := range thumbs {
		thumbs[i] = h.imageURL(img)
	}

	p.Image = h.imageURL(p.Image)
	writeJSON(w, http.StatusOK, productResponse{
		Product:    p,
		Next:       next,
		Prev:       prev,
		Thumbnails: thumbs,
	})
}

// parseIndex reads the leading decimal digits of s, so "3-armchair" is 3.
// Input without leading digits selects the first image; digits too large
// for an int yield -1, which no collection accepts.
func parseIndex(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return -1
	}
	return n
}
