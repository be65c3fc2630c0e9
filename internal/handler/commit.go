package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/service"
)

// CommitQueue handles GET /admin/lesson-commit-queue?countOnly=
// Lists lesson slots whose time has passed without being reconciled.
func (h *Handler) CommitQueue(w http.ResponseWriter, r *http.Request) {
	countOnly, err := queryBool(r, "countOnly")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if countOnly {
		n, err := h.svc.Commits.Count(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
		return
	}
	due, err := h.svc.Commits.Queue(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

// Commit handles POST /admin/lesson-commit
// A repeat commit of the same slot replies 200 with alreadyCommitted=true.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var req model.CommitRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.Commits.Commit(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CommitBatch handles POST /admin/lesson-commit-batch
func (h *Handler) CommitBatch(w http.ResponseWriter, r *http.Request) {
	var req model.BatchCommitRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.Commits.CommitBatch(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListLessonFacts handles GET /lesson-facts?eventId=&from=&to=&limit=
func (h *Handler) ListLessonFacts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, err)
		return
	}
	facts, err := h.svc.Commits.ListFacts(r.Context(), service.FactQuery{
		EventID: r.URL.Query().Get("eventId"),
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
		Limit:   limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facts)
}
