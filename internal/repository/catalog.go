package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// VenueRepository handles persistence for venues.
type VenueRepository struct {
	db *pgxpool.Pool
}

// NewVenueRepository constructs a VenueRepository.
func NewVenueRepository(db *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{db: db}
}

const venueColumns = `id, name, address, city, state, created_at`

func scanVenue(row rowScanner) (model.Venue, error) {
	var v model.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.CreatedAt)
	return v, err
}

// CreateVenue inserts v, assigning its id and creation time.
func (r *VenueRepository) CreateVenue(ctx context.Context, v *model.Venue) error {
	v.ID = uuid.New().String()
	v.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO venues (`+venueColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Name, v.Address, v.City, v.State, v.CreatedAt,
	)
	if err != nil {
		return classify("insert venue", err)
	}
	return nil
}

// GetVenue returns a single venue or ErrNotFound.
func (r *VenueRepository) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	v, err := scanVenue(r.db.QueryRow(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get venue", err)
	}
	return &v, nil
}

// ListVenues returns all venues ordered by name.
func (r *VenueRepository) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.Query(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// UpdateVenue overwrites the editable fields of v.
func (r *VenueRepository) UpdateVenue(ctx context.Context, v *model.Venue) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE venues SET name = $2, address = $3, city = $4, state = $5 WHERE id = $1`,
		v.ID, v.Name, v.Address, v.City, v.State,
	)
	if err != nil {
		return classify("update venue", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EventTypeRepository handles persistence for event types.
type EventTypeRepository struct {
	db *pgxpool.Pool
}

// NewEventTypeRepository constructs an EventTypeRepository.
func NewEventTypeRepository(db *pgxpool.Pool) *EventTypeRepository {
	return &EventTypeRepository{db: db}
}

const eventTypeColumns = `id, title, level, price, venue_id, default_start_time,
	default_duration_minutes, is_active, end_day_offset, created_at`

func scanEventType(row rowScanner) (model.EventType, error) {
	var t model.EventType
	err := row.Scan(&t.ID, &t.Title, &t.Level, &t.Price, &t.VenueID, &t.DefaultStartTime,
		&t.DefaultDurationMinutes, &t.IsActive, &t.EndDayOffset, &t.CreatedAt)
	return t, err
}

// CreateEventType inserts t, assigning its id and creation time.
func (r *EventTypeRepository) CreateEventType(ctx context.Context, t *model.EventType) error {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_types (`+eventTypeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, t.Level, t.Price, t.VenueID, t.DefaultStartTime,
		t.DefaultDurationMinutes, t.IsActive, t.EndDayOffset, t.CreatedAt,
	)
	if err != nil {
		return classify("insert event type", err)
	}
	return nil
}

// GetEventType returns a single event type or ErrNotFound.
func (r *EventTypeRepository) GetEventType(ctx context.Context, id string) (*model.EventType, error) {
	t, err := scanEventType(r.db.QueryRow(ctx,
		`SELECT `+eventTypeColumns+` FROM event_types WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get event type", err)
	}
	return &t, nil
}

// ListEventTypes returns event types ordered by title.
func (r *EventTypeRepository) ListEventTypes(ctx context.Context, activeOnly bool) ([]model.EventType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventTypeColumns+` FROM event_types
		 WHERE (NOT $1::bool OR is_active)
		 ORDER BY title`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var types []model.EventType
	for rows.Next() {
		t, err := scanEventType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpdateEventType overwrites the editable fields of t.
func (r *EventTypeRepository) UpdateEventType(ctx context.Context, t *model.EventType) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE event_types
		 SET title = $2, level = $3, price = $4, venue_id = $5, default_start_time = $6,
		     default_duration_minutes = $7, is_active = $8, end_day_offset = $9
		 WHERE id = $1`,
		t.ID, t.Title, t.Level, t.Price, t.VenueID, t.DefaultStartTime,
		t.DefaultDurationMinutes, t.IsActive, t.EndDayOffset,
	)
	if err != nil {
		return classify("update event type", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
