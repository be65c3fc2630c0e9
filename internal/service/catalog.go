package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// CatalogService manages venues, event types and their recurrence rules.
type CatalogService struct {
	venues      VenueStore
	eventTypes  EventTypeStore
	frequencies FrequencyStore
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(st Stores) *CatalogService {
	return &CatalogService{venues: st.Venues, eventTypes: st.EventTypes, frequencies: st.Frequencies}
}

// ─── Venues ──────────────────────────────────────────────────────────────────

func validateVenue(req *model.VenueRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
	)
}

// CreateVenue validates and stores a new venue.
func (s *CatalogService) CreateVenue(ctx context.Context, req model.VenueRequest) (*model.Venue, error) {
	if err := validateVenue(&req); err != nil {
		return nil, err
	}
	v := &model.Venue{Name: req.Name, Address: req.Address, City: req.City, State: req.State}
	if err := s.venues.CreateVenue(ctx, v); err != nil {
		return nil, fmt.Errorf("create venue: %w", err)
	}
	return v, nil
}

// ListVenues returns every venue.
func (s *CatalogService) ListVenues(ctx context.Context) ([]model.Venue, error) {
	return s.venues.ListVenues(ctx)
}

// GetVenue returns one venue.
func (s *CatalogService) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	v, err := s.venues.GetVenue(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("venue")
	}
	return v, err
}

// UpdateVenue replaces the editable fields of a venue.
func (s *CatalogService) UpdateVenue(ctx context.Context, id string, req model.VenueRequest) (*model.Venue, error) {
	if err := validateVenue(&req); err != nil {
		return nil, err
	}
	v := &model.Venue{ID: id, Name: req.Name, Address: req.Address, City: req.City, State: req.State}
	if err := s.venues.UpdateVenue(ctx, v); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("venue")
		}
		return nil, fmt.Errorf("update venue: %w", err)
	}
	return s.GetVenue(ctx, id)
}

// ─── Event types ─────────────────────────────────────────────────────────────

func validateEventType(req *model.EventTypeRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Level = strings.TrimSpace(req.Level)
	req.Price = strings.TrimSpace(req.Price)
	req.DefaultStartTime = strings.TrimSpace(req.DefaultStartTime)
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.VenueID, validation.Required),
		validation.Field(&req.DefaultStartTime, validation.Required, timeRule),
		validation.Field(&req.DefaultDurationMinutes, validation.Required, validation.Min(1), validation.Max(wallclock.MinutesPerDay)),
		validation.Field(&req.EndDayOffset, validation.In(0, 1)),
	)
}

// eventTypeFrom builds the stored form; the venue must exist.
func (s *CatalogService) eventTypeFrom(ctx context.Context, req model.EventTypeRequest) (*model.EventType, error) {
	if err := validateEventType(&req); err != nil {
		return nil, err
	}
	if _, err := s.venues.GetVenue(ctx, req.VenueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("venueId", "venue does not exist")
		}
		return nil, fmt.Errorf("check venue: %w", err)
	}
	start, _ := wallclock.NormalizeTime(req.DefaultStartTime)
	return &model.EventType{
		Title:                  req.Title,
		Level:                  req.Level,
		Price:                  req.Price,
		VenueID:                req.VenueID,
		DefaultStartTime:       start,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		IsActive:               deref(req.IsActive, true),
		EndDayOffset:           req.EndDayOffset,
	}, nil
}

// CreateEventType validates and stores a new event type. New types are
// active unless the request says otherwise.
func (s *CatalogService) CreateEventType(ctx context.Context, req model.EventTypeRequest) (*model.EventType, error) {
	t, err := s.eventTypeFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.eventTypes.CreateEventType(ctx, t); err != nil {
		return nil, fmt.Errorf("create event type: %w", err)
	}
	return t, nil
}

// ListEventTypes returns event types, optionally only active ones.
func (s *CatalogService) ListEventTypes(ctx context.Context, activeOnly bool) ([]model.EventType, error) {
	return s.eventTypes.ListEventTypes(ctx, activeOnly)
}

// GetEventType returns one event type.
func (s *CatalogService) GetEventType(ctx context.Context, id string) (*model.EventType, error) {
	t, err := s.eventTypes.GetEventType(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("event type")
	}
	return t, err
}

// UpdateEventType replaces the editable fields. Setting isActive=false is
// how a type is retired; there is no delete.
func (s *CatalogService) UpdateEventType(ctx context.Context, id string, req model.EventTypeRequest) (*model.EventType, error) {
	current, err := s.GetEventType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsActive == nil {
		req.IsActive = &current.IsActive
	}
	t, err := s.eventTypeFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	if err := s.eventTypes.UpdateEventType(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event type")
		}
		return nil, fmt.Errorf("update event type: %w", err)
	}
	return s.GetEventType(ctx, id)
}

// ─── Frequencies ─────────────────────────────────────────────────────────────

func validateFrequency(req *model.FrequencyRequest) error {
	req.StartTime = strings.TrimSpace(req.StartTime)
	errs := validation.Errors{
		"eventTypeId":     validation.Validate(req.EventTypeID, validation.Required),
		"startTime":       validation.Validate(req.StartTime, validation.Required, timeRule),
		"durationMinutes": validation.Validate(req.DurationMinutes, validation.Required, validation.Min(1), validation.Max(wallclock.MinutesPerDay)),
		"startDate":       validation.Validate(req.StartDate, dateRule),
		"endDate":         validation.Validate(req.EndDate, dateRule),
	}
	if _, err := req.Fields.Rule(); err != nil {
		errs["rule"] = err
	}
	if err := errs.Filter(); err != nil {
		return err
	}

	start, _ := optionalDate(req.StartDate)
	end, _ := optionalDate(req.EndDate)
	if start != nil && end != nil && end.Before(*start) {
		return fieldError("endDate", "must not be before startDate")
	}
	return nil
}

func frequencyFrom(req model.FrequencyRequest) (*model.Frequency, error) {
	if err := validateFrequency(&req); err != nil {
		return nil, err
	}
	rule, _ := req.Fields.Rule()
	start, _ := wallclock.NormalizeTime(req.StartTime)
	startDate, _ := optionalDate(req.StartDate)
	endDate, _ := optionalDate(req.EndDate)
	return &model.Frequency{
		EventTypeID:     req.EventTypeID,
		Rule:            rule,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		StartDate:       startDate,
		EndDate:         endDate,
		IsActive:        deref(req.IsActive, true),
	}, nil
}

// CreateFrequency validates and stores a new rule for an existing type.
func (s *CatalogService) CreateFrequency(ctx context.Context, req model.FrequencyRequest) (*model.Frequency, error) {
	f, err := frequencyFrom(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.eventTypes.GetEventType(ctx, f.EventTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event type")
		}
		return nil, fmt.Errorf("check event type: %w", err)
	}
	if err := s.frequencies.CreateFrequency(ctx, f); err != nil {
		return nil, fmt.Errorf("create frequency: %w", err)
	}
	return f, nil
}

// ListFrequencies returns the rules, optionally for one event type.
func (s *CatalogService) ListFrequencies(ctx context.Context, eventTypeID string) ([]model.Frequency, error) {
	return s.frequencies.ListFrequencies(ctx, repository.FrequencyFilter{EventTypeID: eventTypeID})
}

// GetFrequency returns one rule.
func (s *CatalogService) GetFrequency(ctx context.Context, id string) (*model.Frequency, error) {
	f, err := s.frequencies.GetFrequency(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("frequency")
	}
	return f, err
}

// UpdateFrequency replaces a rule's fields. The kind and owning event type
// are fixed at creation.
func (s *CatalogService) UpdateFrequency(ctx context.Context, id string, req model.FrequencyRequest) (*model.Frequency, error) {
	current, err := s.GetFrequency(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EventTypeID == "" {
		req.EventTypeID = current.EventTypeID
	}
	if req.IsActive == nil {
		req.IsActive = &current.IsActive
	}
	f, err := frequencyFrom(req)
	if err != nil {
		return nil, err
	}
	if f.EventTypeID != current.EventTypeID {
		return nil, fieldError("eventTypeId", "cannot be changed")
	}
	if f.Rule.Kind() != current.Rule.Kind() {
		return nil, fieldError("kind", "cannot be changed")
	}
	f.ID = id
	if err := s.frequencies.UpdateFrequency(ctx, f); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("frequency")
		}
		return nil, fmt.Errorf("update frequency: %w", err)
	}
	return s.GetFrequency(ctx, id)
}

// DeleteFrequency removes a rule. Events it already produced stay.
func (s *CatalogService) DeleteFrequency(ctx context.Context, id string) error {
	if err := s.frequencies.DeleteFrequency(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("frequency")
		}
		return fmt.Errorf("delete frequency: %w", err)
	}
	return nil
}
