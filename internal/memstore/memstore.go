// Package memstore is an in-process implementation of every store the
// service layer needs. It backs the "memory" storage driver and the service
// and handler tests. All methods are safe for concurrent use.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/schedule"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// Store holds every table in maps guarded by a single mutex. One lock makes
// ModifyEvent trivially atomic with respect to every other write.
type Store struct {
	mu          sync.Mutex
	venues      map[string]model.Venue
	eventTypes  map[string]model.EventType
	frequencies map[string]model.Frequency
	events      map[string]model.Event
	eventKeys   map[schedule.Key]string
	facts       []model.LessonFact
	dances      map[string]model.Dance
	now         func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		venues:      make(map[string]model.Venue),
		eventTypes:  make(map[string]model.EventType),
		frequencies: make(map[string]model.Frequency),
		events:      make(map[string]model.Event),
		eventKeys:   make(map[schedule.Key]string),
		dances:      make(map[string]model.Dance),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func newID() string { return uuid.New().String() }

// ── venues ──────────────────────────────────────────────────────────────────

func (s *Store) CreateVenue(_ context.Context, v *model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = newID()
	v.CreatedAt = s.now()
	s.venues[v.ID] = *v
	return nil
}

func (s *Store) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (s *Store) ListVenues(_ context.Context) ([]model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b model.Venue) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) UpdateVenue(_ context.Context, v *model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.venues[v.ID]
	if !ok {
		return repository.ErrNotFound
	}
	v.CreatedAt = old.CreatedAt
	s.venues[v.ID] = *v
	return nil
}

// ── event types ─────────────────────────────────────────────────────────────

func (s *Store) CreateEventType(_ context.Context, t *model.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID()
	t.CreatedAt = s.now()
	s.eventTypes[t.ID] = *t
	return nil
}

func (s *Store) GetEventType(_ context.Context, id string) (*model.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.eventTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *Store) ListEventTypes(_ context.Context, activeOnly bool) ([]model.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventType, 0, len(s.eventTypes))
	for _, t := range s.eventTypes {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.EventType) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UpdateEventType(_ context.Context, t *model.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.eventTypes[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	s.eventTypes[t.ID] = *t
	return nil
}

// ── frequencies ─────────────────────────────────────────────────────────────

func (s *Store) CreateFrequency(_ context.Context, f *model.Frequency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = newID()
	f.CreatedAt = s.now()
	s.frequencies[f.ID] = *f
	return nil
}

func (s *Store) GetFrequency(_ context.Context, id string) (*model.Frequency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.frequencies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (s *Store) ListFrequencies(_ context.Context, filter repository.FrequencyFilter) ([]model.Frequency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Frequency, 0, len(s.frequencies))
	for _, f := range s.frequencies {
		if filter.EventTypeID != "" && f.EventTypeID != filter.EventTypeID {
			continue
		}
		if filter.ActiveOnly && !f.IsActive {
			continue
		}
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b model.Frequency) int {
		return cmp.Or(
			cmp.Compare(a.EventTypeID, b.EventTypeID),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// UpdateFrequency matches the SQL store: a row whose kind differs from f's
// is treated as missing.
func (s *Store) UpdateFrequency(_ context.Context, f *model.Frequency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.frequencies[f.ID]
	if !ok || old.Rule.Kind() != f.Rule.Kind() {
		return repository.ErrNotFound
	}
	f.CreatedAt = old.CreatedAt
	s.frequencies[f.ID] = *f
	return nil
}

func (s *Store) DeleteFrequency(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frequencies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.frequencies, id)
	return nil
}

// ── events ──────────────────────────────────────────────────────────────────

func (s *Store) UpsertEvent(_ context.Context, e *model.Event) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := schedule.EventKey(*e)
	if id, ok := s.eventKeys[key]; ok {
		stored := s.events[id]
		stored.UpdatedAt = s.now()
		s.events[id] = stored
		return id, false, nil
	}
	row := e.Clone()
	row.ID = newID()
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	if row.Lessons == nil {
		row.Lessons = []model.LessonSlot{}
	}
	s.events[row.ID] = row
	s.eventKeys[key] = row.ID
	return row.ID, true, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := e.Clone()
	return &out, nil
}

func (s *Store) ListEvents(_ context.Context, from, to wallclock.Date) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(func(e model.Event) bool {
		return !e.Date.Before(from) && !e.Date.After(to)
	}), nil
}

func (s *Store) ListOpenEvents(_ context.Context, through wallclock.Date) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(func(e model.Event) bool {
		if e.IsCancelled || e.Date.After(through) {
			return false
		}
		return slices.ContainsFunc(e.Lessons, func(l model.LessonSlot) bool { return !l.Committed })
	}), nil
}

func (s *Store) sortedEvents(keep func(model.Event) bool) []model.Event {
	var out []model.Event
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b model.Event) int {
		return cmp.Or(a.Date.Compare(b.Date), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ModifyEvent runs fn on a private copy while holding the store lock, so
// concurrent commits for the same event serialize exactly as they do behind
// a row lock in PostgreSQL.
func (s *Store) ModifyEvent(_ context.Context, id string, fn repository.EventMutation) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e := stored.Clone()
	facts, err := fn(&e)
	if err != nil {
		return nil, err
	}

	oldKey, newKey := schedule.EventKey(stored), schedule.EventKey(e)
	if newKey != oldKey {
		if _, taken := s.eventKeys[newKey]; taken {
			return nil, repository.ErrConflict
		}
	}

	now := s.now()
	for i := range facts {
		if facts[i].ID == "" {
			facts[i].ID = newID()
		}
		facts[i].CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Lessons == nil {
		e.Lessons = []model.LessonSlot{}
	}

	delete(s.eventKeys, oldKey)
	s.eventKeys[newKey] = e.ID
	s.events[e.ID] = e.Clone()
	s.facts = append(s.facts, facts...)
	return &e, nil
}

// ── lesson facts ────────────────────────────────────────────────────────────

// ListLessonFacts returns facts newest first.
func (s *Store) ListLessonFacts(_ context.Context, filter repository.LessonFactFilter) ([]model.LessonFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LessonFact
	for i := len(s.facts) - 1; i >= 0; i-- {
		f := s.facts[i]
		if filter.EventID != "" && f.EventID != filter.EventID {
			continue
		}
		if day := taughtDay(f.TaughtAt); (!filter.From.IsZero() && day < filter.From.String()) ||
			(!filter.To.IsZero() && day > filter.To.String()) {
			continue
		}
		out = append(out, f)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func taughtDay(ts string) string {
	if len(ts) < len(wallclock.DateLayout) {
		return ts
	}
	return ts[:len(wallclock.DateLayout)]
}

// ── dances ──────────────────────────────────────────────────────────────────

func (s *Store) CreateDance(_ context.Context, d *model.Dance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = newID()
	s.dances[d.ID] = *d
	return nil
}

func (s *Store) GetDance(_ context.Context, id string) (*model.Dance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

// SearchDances does a case-insensitive contains match on name.
func (s *Store) SearchDances(_ context.Context, query string, limit int) ([]model.Dance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.Dance
	for _, d := range s.dances {
		if strings.Contains(strings.ToLower(d.Name), q) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b model.Dance) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
