package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/service"
)

func occurrenceQuery(r *http.Request) (service.OccurrenceQuery, error) {
	q := service.OccurrenceQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	var err error
	if q.OnlyUnplanned, err = queryBool(r, "onlyUnplanned"); err != nil {
		return q, err
	}
	if q.IncludeOneOff, err = queryBool(r, "includeOneOff"); err != nil {
		return q, err
	}
	return q, nil
}

// ListOccurrences handles GET /occurrences?from=&to=&onlyUnplanned=&includeOneOff=
// Returns rule-generated and persisted occurrences merged by identity key.
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	q, err := occurrenceQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	occs, err := h.svc.Occurrences.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occs)
}

// OccurrencesCalendar handles GET /occurrences.ics
func (h *Handler) OccurrencesCalendar(w http.ResponseWriter, r *http.Request) {
	q, err := occurrenceQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ics, err := h.svc.Occurrences.Calendar(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

// Materialize handles POST /events
// Creates the Event behind an occurrence, or returns the existing one.
// Replies 201 when this call created it and 200 otherwise.
func (h *Handler) Materialize(w http.ResponseWriter, r *http.Request) {
	var req model.MaterializeRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.Events.Materialize(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// CreateOneOff handles POST /admin/one-off-events
func (h *Handler) CreateOneOff(w http.ResponseWriter, r *http.Request) {
	var req model.OneOffEventRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.Events.CreateOneOff(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// ListEvents handles GET /events?from=&to=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events.List(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Events.GetDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PatchEvent handles PATCH /events/{id}
// Only the keys present in the body change.
func (h *Handler) PatchEvent(w http.ResponseWriter, r *http.Request) {
	var p model.EventPatch
	if !decodeOrFail(w, r, &p) {
		return
	}
	e, err := h.svc.Events.Patch(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// LessonOverview handles GET /lesson-overview?from=&to=&includeCancelled=
func (h *Handler) LessonOverview(w http.ResponseWriter, r *http.Request) {
	includeCancelled, err := queryBool(r, "includeCancelled")
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := h.svc.Events.Overview(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"), includeCancelled)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
