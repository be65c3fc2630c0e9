package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// ─── Venues ───────────────────────────────────────────────────────────────────

// CreateVenue handles POST /venues
func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req model.VenueRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	v, err := h.svc.Catalog.CreateVenue(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ListVenues handles GET /venues
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.svc.Catalog.ListVenues(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

// GetVenue handles GET /venues/{id}
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Catalog.GetVenue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVenue handles PUT /venues/{id}
func (h *Handler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	var req model.VenueRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	v, err := h.svc.Catalog.UpdateVenue(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ─── Event types ──────────────────────────────────────────────────────────────

// CreateEventType handles POST /event-types
func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var req model.EventTypeRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	t, err := h.svc.Catalog.CreateEventType(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListEventTypes handles GET /event-types?activeOnly=true
func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "activeOnly")
	if err != nil {
		respondError(w, r, err)
		return
	}
	types, err := h.svc.Catalog.ListEventTypes(r.Context(), activeOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if types == nil {
		types = []model.EventType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// GetEventType handles GET /event-types/{id}
func (h *Handler) GetEventType(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Catalog.GetEventType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateEventType handles PUT /event-types/{id}
func (h *Handler) UpdateEventType(w http.ResponseWriter, r *http.Request) {
	var req model.EventTypeRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	t, err := h.svc.Catalog.UpdateEventType(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ─── Frequencies ──────────────────────────────────────────────────────────────

// CreateFrequency handles POST /frequencies
func (h *Handler) CreateFrequency(w http.ResponseWriter, r *http.Request) {
	var req model.FrequencyRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	f, err := h.svc.Catalog.CreateFrequency(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// ListFrequencies handles GET /frequencies?eventTypeId=
func (h *Handler) ListFrequencies(w http.ResponseWriter, r *http.Request) {
	fs, err := h.svc.Catalog.ListFrequencies(r.Context(), r.URL.Query().Get("eventTypeId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if fs == nil {
		fs = []model.Frequency{}
	}
	writeJSON(w, http.StatusOK, fs)
}

// GetFrequency handles GET /frequencies/{id}
func (h *Handler) GetFrequency(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Catalog.GetFrequency(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// UpdateFrequency handles PUT /frequencies/{id}
func (h *Handler) UpdateFrequency(w http.ResponseWriter, r *http.Request) {
	var req model.FrequencyRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	f, err := h.svc.Catalog.UpdateFrequency(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFrequency handles DELETE /frequencies/{id}
func (h *Handler) DeleteFrequency(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteFrequency(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
