package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/broker"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/logging"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/metrics"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/schedule"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// errAlreadyCommitted aborts a mutation whose slot was committed by an
// earlier call. It never leaves this package.
var errAlreadyCommitted = errors.New("lesson already committed")

const defaultFactLimit = 200

// CommitService reconciles planned lessons with what was actually taught.
type CommitService struct {
	stores    Stores
	loc       *time.Location
	clock     wallclock.Clock
	publisher broker.Publisher
	metrics   *metrics.Metrics
}

// NewCommitService constructs a CommitService. A nil publisher discards
// taught notifications.
func NewCommitService(st Stores, loc *time.Location, clock wallclock.Clock, pub broker.Publisher, m *metrics.Metrics) *CommitService {
	if pub == nil {
		pub = broker.Noop{}
	}
	return &CommitService{stores: st, loc: loc, clock: clock, publisher: pub, metrics: m}
}

// ─── Queue ───────────────────────────────────────────────────────────────────

// Queue lists every uncommitted slot whose lesson time has passed in the
// business zone, oldest first.
func (s *CommitService) Queue(ctx context.Context) ([]model.DueLesson, error) {
	now := wallclock.At(s.clock.Now(), s.loc)
	events, err := s.stores.Events.ListOpenEvents(ctx, now.Date)
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}
	due := schedule.DueSlots(events, now)
	if len(due) == 0 {
		return []model.DueLesson{}, nil
	}

	types, venues, err := loadCatalogMaps(ctx, s.stores)
	if err != nil {
		return nil, err
	}
	out := make([]model.DueLesson, 0, len(due))
	for _, d := range due {
		t := types[d.Event.EventTypeID]
		out = append(out, model.DueLesson{
			EventID:          d.Event.ID,
			EventTypeTitle:   t.Title,
			VenueName:        venueName(venues, t.VenueID),
			LessonDate:       d.Date,
			LessonTime:       wallclock.FormatTime(d.Minutes),
			LessonID:         d.Slot.ID,
			LessonIndex:      d.Index,
			PlannedDanceID:   d.Slot.DanceID,
			PlannedDanceName: d.Slot.Dance,
			Level:            d.Slot.Level,
			Link:             d.Slot.Link,
			SuggestedAction:  schedule.SuggestedAction(d.Slot.DanceName()),
		})
	}
	return out, nil
}

// Count returns the number of due slots.
func (s *CommitService) Count(ctx context.Context) (int, error) {
	now := wallclock.At(s.clock.Now(), s.loc)
	events, err := s.stores.Events.ListOpenEvents(ctx, now.Date)
	if err != nil {
		return 0, fmt.Errorf("list open events: %w", err)
	}
	return len(schedule.DueSlots(events, now)), nil
}

func venueName(venues map[string]model.Venue, id string) string {
	if v, ok := venues[id]; ok && v.Name != "" {
		return v.Name
	}
	return model.UnknownVenue
}

// eventVenue resolves the display venue for an event outside of any lock.
func (s *CommitService) eventVenue(ctx context.Context, e *model.Event) (string, error) {
	t, err := s.stores.EventTypes.GetEventType(ctx, e.EventTypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.UnknownVenue, nil
	}
	if err != nil {
		return "", fmt.Errorf("get event type: %w", err)
	}
	v, err := s.stores.Venues.GetVenue(ctx, t.VenueID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.UnknownVenue, nil
	}
	if err != nil {
		return "", fmt.Errorf("get venue: %w", err)
	}
	if v.Name == "" {
		return model.UnknownVenue, nil
	}
	return v.Name, nil
}

// findSlot addresses a slot by id, falling back to its index.
func findSlot(e *model.Event, id string, index *int) (int, error) {
	if id != "" {
		if i := e.SlotIndex(id); i >= 0 {
			return i, nil
		}
		return -1, notFound("lesson")
	}
	if index != nil && *index >= 0 && *index < len(e.Lessons) {
		return *index, nil
	}
	return -1, notFound("lesson")
}

var isoRule = validation.Match(isoWithOffset).Error("must be an ISO-8601 timestamp with an offset")

// ─── Single commit ───────────────────────────────────────────────────────────

func validateCommit(req *model.CommitRequest) error {
	req.EventID = strings.TrimSpace(req.EventID)
	req.CommitDate = strings.TrimSpace(req.CommitDate)
	taught := req.Action == model.ActionTaught
	return validation.ValidateStruct(req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.LessonIndex,
			validation.When(req.LessonID == "", validation.NotNil.Error("lessonId or lessonIndex is required")),
			validation.Min(0),
		),
		validation.Field(&req.Action, validation.Required,
			validation.In(model.ActionTaught, model.ActionClear, model.ActionSkip)),
		validation.Field(&req.CommitDate, validation.When(taught, validation.Required, isoRule)),
	)
}

// Commit applies one reconciliation action to one slot. Deciding whether
// the slot is still open and flipping it happen in one atomic step, so of
// two racing calls exactly one writes and the other reports
// alreadyCommitted. A TAUGHT commit records its fact in the same step.
func (s *CommitService) Commit(ctx context.Context, req model.CommitRequest) (*model.CommitResult, error) {
	res, err := s.commit(ctx, req)
	switch {
	case err != nil:
		s.metrics.TrackCommit(string(req.Action), "error")
	case res.AlreadyCommitted:
		s.metrics.TrackCommit(string(req.Action), "already_committed")
	default:
		s.metrics.TrackCommit(string(req.Action), "ok")
	}
	return res, err
}

func (s *CommitService) commit(ctx context.Context, req model.CommitRequest) (*model.CommitResult, error) {
	if err := validateCommit(&req); err != nil {
		return nil, err
	}
	e, err := s.stores.Events.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// A committed slot never flips back, so a repeat call is answered from
	// the pre-read without validating the override.
	if i, err := findSlot(e, req.LessonID, req.LessonIndex); err == nil && e.Lessons[i].Committed {
		return &model.CommitResult{OK: true, AlreadyCommitted: true}, nil
	}
	venue, err := s.eventVenue(ctx, e)
	if err != nil {
		return nil, err
	}

	override := blankToNil(req.DanceID)
	var overrideName *string
	if req.Action == model.ActionTaught && override != nil {
		d, err := s.stores.Dances.GetDance(ctx, *override)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("danceId", "dance does not exist")
		}
		if err != nil {
			return nil, fmt.Errorf("get dance: %w", err)
		}
		overrideName = &d.Name
	}

	var facts []model.LessonFact
	_, err = s.stores.Events.ModifyEvent(ctx, e.ID, func(e *model.Event) ([]model.LessonFact, error) {
		i, err := findSlot(e, req.LessonID, req.LessonIndex)
		if err != nil {
			return nil, err
		}
		slot := &e.Lessons[i]
		if slot.Committed {
			return nil, errAlreadyCommitted
		}

		switch req.Action {
		case model.ActionTaught:
			danceID := override
			if danceID == nil {
				danceID = blankToNil(slot.DanceID)
			}
			if danceID == nil {
				return nil, fieldError("danceId", "required for TAUGHT when the lesson has no planned dance")
			}
			if override != nil && (slot.DanceID == nil || *slot.DanceID != *override) {
				slot.DanceID = override
				slot.Dance = overrideName
			}
			facts = []model.LessonFact{{
				ID:       uuid.New().String(),
				EventID:  e.ID,
				LessonID: slot.ID,
				DanceID:  danceID,
				Venue:    venue,
				TaughtAt: req.CommitDate,
			}}
		case model.ActionClear:
			slot.ClearPlan()
		case model.ActionSkip:
		}
		slot.Committed = true
		return facts, nil
	})
	switch {
	case errors.Is(err, errAlreadyCommitted):
		return &model.CommitResult{OK: true, AlreadyCommitted: true}, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("event")
	case err != nil:
		return nil, err
	}

	res := &model.CommitResult{OK: true}
	if len(facts) > 0 {
		res.Fact = &facts[0]
		s.publish(ctx, facts)
	}
	return res, nil
}

// ─── Batch commit ────────────────────────────────────────────────────────────

func validateBatchItem(value interface{}) error {
	item, ok := value.(model.BatchItem)
	if !ok {
		return nil
	}
	name := blankToNil(item.DanceName)
	return validation.Errors{
		"commitDate": validation.Validate(strings.TrimSpace(item.CommitDate), validation.Required, isoRule),
		"danceId": validation.Validate(blankToNil(item.DanceID),
			validation.When(name == nil, validation.NotNil.Error("danceId or danceName is required")),
		),
	}.Filter()
}

func validateBatch(req *model.BatchCommitRequest) error {
	req.EventID = strings.TrimSpace(req.EventID)
	if req.Finalize == "" {
		req.Finalize = model.FinalizeNone
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.SourceLessonIndex,
			validation.When(req.SourceLessonID == "", validation.NotNil.Error("sourceLessonId or sourceLessonIndex is required")),
			validation.Min(0),
		),
		validation.Field(&req.Finalize,
			validation.In(model.FinalizeNone, model.FinalizeCommitSource, model.FinalizeClearSource)),
		validation.Field(&req.Items, validation.Required, validation.Each(validation.By(validateBatchItem))),
	)
}

// CommitBatch records several taught dances against one source slot, for a
// lesson that covered more than the plan. Every fact lands together with the
// optional finalize of the source slot, or nothing does.
func (s *CommitService) CommitBatch(ctx context.Context, req model.BatchCommitRequest) (*model.BatchCommitResult, error) {
	if err := validateBatch(&req); err != nil {
		s.metrics.TrackCommit("BATCH", "error")
		return nil, err
	}
	e, err := s.stores.Events.GetEvent(ctx, req.EventID)
	if err != nil {
		s.metrics.TrackCommit("BATCH", "error")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	venue, err := s.eventVenue(ctx, e)
	if err != nil {
		return nil, err
	}

	var facts []model.LessonFact
	_, err = s.stores.Events.ModifyEvent(ctx, e.ID, func(e *model.Event) ([]model.LessonFact, error) {
		i, err := findSlot(e, req.SourceLessonID, req.SourceLessonIndex)
		if err != nil {
			return nil, err
		}
		slot := &e.Lessons[i]
		facts = make([]model.LessonFact, 0, len(req.Items))
		for _, item := range req.Items {
			// A catalog id wins; the name is only kept for free-text dances.
			id, name := blankToNil(item.DanceID), blankToNil(item.DanceName)
			if id != nil {
				name = nil
			}
			facts = append(facts, model.LessonFact{
				ID:        uuid.New().String(),
				EventID:   e.ID,
				LessonID:  slot.ID,
				DanceID:   id,
				DanceName: name,
				Venue:     venue,
				TaughtAt:  strings.TrimSpace(item.CommitDate),
			})
		}
		switch req.Finalize {
		case model.FinalizeCommitSource:
			slot.Committed = true
		case model.FinalizeClearSource:
			slot.ClearPlan()
			slot.Committed = true
		}
		return facts, nil
	})
	if err != nil {
		s.metrics.TrackCommit("BATCH", "error")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event")
		}
		return nil, err
	}

	s.metrics.TrackCommit("BATCH", "ok")
	s.publish(ctx, facts)
	return &model.BatchCommitResult{OK: true, Inserted: len(facts)}, nil
}

func (s *CommitService) publish(ctx context.Context, facts []model.LessonFact) {
	if err := s.publisher.PublishTaught(ctx, facts); err != nil {
		logging.Warn("publish taught lessons", "err", err, "facts", len(facts))
	}
}

// ─── Ledger ──────────────────────────────────────────────────────────────────

// FactQuery filters the taught-lesson ledger. Dates are YYYY-MM-DD strings.
type FactQuery struct {
	EventID string
	From    string
	To      string
	Limit   int
}

// ListFacts returns recorded lesson facts, newest first.
func (s *CommitService) ListFacts(ctx context.Context, q FactQuery) ([]model.LessonFact, error) {
	errs := validation.Errors{
		"from":  validation.Validate(q.From, dateRule),
		"to":    validation.Validate(q.To, dateRule),
		"limit": validation.Validate(q.Limit, validation.Min(0), validation.Max(1000)),
	}
	if err := errs.Filter(); err != nil {
		return nil, err
	}
	filter := repository.LessonFactFilter{EventID: q.EventID, Limit: q.Limit}
	if filter.Limit == 0 {
		filter.Limit = defaultFactLimit
	}
	if q.From != "" {
		filter.From = wallclock.MustDate(q.From)
	}
	if q.To != "" {
		filter.To = wallclock.MustDate(q.To)
	}
	facts, err := s.stores.Facts.ListLessonFacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list lesson facts: %w", err)
	}
	if facts == nil {
		facts = []model.LessonFact{}
	}
	return facts, nil
}
