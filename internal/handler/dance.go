package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// SessionHeader ties successive dance searches from one picker together so
// a newer keystroke cancels the older query.
const SessionHeader = "X-Search-Session"

// SearchDances handles GET /dances?q=
func (h *Handler) SearchDances(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get(SessionHeader)
	if session == "" {
		session = r.URL.Query().Get("session")
	}
	dances, err := h.svc.Dances.Search(r.Context(), session, r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dances)
}

// GetDance handles GET /dances/{id}
func (h *Handler) GetDance(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dances.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDance handles POST /dances
func (h *Handler) CreateDance(w http.ResponseWriter, r *http.Request) {
	var req model.DanceRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	d, err := h.svc.Dances.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}
