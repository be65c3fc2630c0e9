package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/metrics"
)

// RouterOptions carries the cross-cutting pieces of the router.
type RouterOptions struct {
	CORSOrigin string
	// Metrics is optional; nil disables both the middleware and /metrics.
	Metrics *metrics.Metrics
}

// NewRouter builds the full HTTP surface.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	h := New(svc)
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS(opts.CORSOrigin))
	r.Use(opts.Metrics.Middleware)

	r.Get("/health", HealthCheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/occurrences", h.ListOccurrences)
	r.Get("/occurrences.ics", h.OccurrencesCalendar)
	r.Get("/lesson-overview", h.LessonOverview)
	r.Get("/lesson-facts", h.ListLessonFacts)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.Materialize)
		r.Get("/{id}", h.GetEvent)
		r.Patch("/{id}", h.PatchEvent)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/one-off-events", h.CreateOneOff)
		r.Get("/lesson-commit-queue", h.CommitQueue)
		r.Post("/lesson-commit", h.Commit)
		r.Post("/lesson-commit-batch", h.CommitBatch)
	})

	r.Route("/venues", func(r chi.Router) {
		r.Get("/", h.ListVenues)
		r.Post("/", h.CreateVenue)
		r.Get("/{id}", h.GetVenue)
		r.Put("/{id}", h.UpdateVenue)
	})

	r.Route("/event-types", func(r chi.Router) {
		r.Get("/", h.ListEventTypes)
		r.Post("/", h.CreateEventType)
		r.Get("/{id}", h.GetEventType)
		r.Put("/{id}", h.UpdateEventType)
	})

	r.Route("/frequencies", func(r chi.Router) {
		r.Get("/", h.ListFrequencies)
		r.Post("/", h.CreateFrequency)
		r.Get("/{id}", h.GetFrequency)
		r.Put("/{id}", h.UpdateFrequency)
		r.Delete("/{id}", h.DeleteFrequency)
	})

	r.Route("/dances", func(r chi.Router) {
		r.Get("/", h.SearchDances)
		r.Post("/", h.CreateDance)
		r.Get("/{id}", h.GetDance)
	})

	return r
}
