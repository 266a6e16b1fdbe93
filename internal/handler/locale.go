package handler

import (
	"net/http"

	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/domain/session"
)

type localeResponse struct {
	Locale    locale.Locale   `json:"locale"`
	Dir       string          `json:"dir"`
	Available []locale.Locale `json:"available"`
}

type setLocaleRequest struct {
	Locale string `json:"locale"`
}

func writeLocale(w http.ResponseWriter, s *session.Session) {
	l := s.Locale()
	writeJSON(w, http.StatusOK, localeResponse{
		Locale:    l,
		Dir:       locale.Dir(l),
		Available: locale.All(),
	})
}

func (h *Handler) getLocale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	writeLocale(w, s)
}

func (h *Handler) setLocale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	var req setLocaleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := locale.Parse(req.Locale)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.SetLocale(r.Context(), l)
	writeLocale(w, s)
}

func (h *Handler) toggleLocale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	s.ToggleLocale(r.Context())
	writeLocale(w, s)
}
