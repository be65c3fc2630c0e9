package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/logging"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
)

const (
	minSearchLen  = 2
	searchResults = 12
)

// DanceCache holds recent search results. Implementations must treat a
// miss as (nil, false, nil).
type DanceCache interface {
	Get(ctx context.Context, query string) ([]model.Dance, bool, error)
	Set(ctx context.Context, query string, dances []model.Dance) error
	Invalidate(ctx context.Context) error
}

type searchTicket struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// DanceService serves the dance catalog to the lesson planner.
type DanceService struct {
	dances DanceStore
	cache  DanceCache

	mu       sync.Mutex
	seq      uint64
	sessions map[string]searchTicket
}

// NewDanceService constructs a DanceService. cache may be nil.
func NewDanceService(dances DanceStore, cache DanceCache) *DanceService {
	return &DanceService{dances: dances, cache: cache, sessions: make(map[string]searchTicket)}
}

// begin registers a search for session and cancels the one it replaces.
func (s *DanceService) begin(ctx context.Context, session string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if session == "" {
		return ctx, func() { cancel(nil) }
	}

	s.mu.Lock()
	s.seq++
	mine := s.seq
	if prev, ok := s.sessions[session]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.sessions[session] = searchTicket{seq: mine, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.sessions[session]; ok && cur.seq == mine {
			delete(s.sessions, session)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

// Search returns up to 12 dances whose name contains q. Queries shorter
// than two characters return nothing. When session is set, a newer search
// on the same session cancels this one, which then fails with
// ErrSuperseded instead of returning stale results.
func (s *DanceService) Search(ctx context.Context, session, q string) ([]model.Dance, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSearchLen {
		return []model.Dance{}, nil
	}

	ctx, done := s.begin(ctx, session)
	defer done()

	if s.cache != nil {
		hit, ok, err := s.cache.Get(ctx, q)
		if err != nil {
			logging.Warn("dance cache read failed", "err", err)
		}
		if ok {
			return s.result(ctx, hit)
		}
	}

	dances, err := s.dances.SearchDances(ctx, q, searchResults)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("search dances: %w", err)
	}
	if dances == nil {
		dances = []model.Dance{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, q, dances); err != nil {
			logging.Warn("dance cache write failed", "err", err)
		}
	}
	return s.result(ctx, dances)
}

func (s *DanceService) result(ctx context.Context, dances []model.Dance) ([]model.Dance, error) {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return nil, ErrSuperseded
	}
	return dances, nil
}

// Get returns one dance.
func (s *DanceService) Get(ctx context.Context, id string) (*model.Dance, error) {
	d, err := s.dances.GetDance(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("dance")
	}
	return d, err
}

// Create adds a dance to the catalog and drops cached searches.
func (s *DanceService) Create(ctx context.Context, req model.DanceRequest) (*model.Dance, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Link = blankToNil(req.Link)
	req.Difficulty = blankToNil(req.Difficulty)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Link, validation.Length(0, 2048)),
	); err != nil {
		return nil, err
	}

	d := &model.Dance{Name: req.Name, Link: req.Link, Difficulty: req.Difficulty}
	if err := s.dances.CreateDance(ctx, d); err != nil {
		return nil, fmt.Errorf("create dance: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logging.Warn("dance cache invalidate failed", "err", err)
		}
	}
	return d, nil
}
