package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// FrequencyRepository handles persistence for recurrence rules. The rule is
// stored flat (kind, by_day, weekday, nth) and rebuilt on read.
type FrequencyRepository struct {
	db *pgxpool.Pool
}

// NewFrequencyRepository constructs a FrequencyRepository.
func NewFrequencyRepository(db *pgxpool.Pool) *FrequencyRepository {
	return &FrequencyRepository{db: db}
}

const frequencyColumns = `id, event_type_id, kind, by_day, weekday, nth, start_time,
	duration_minutes, start_date, end_date, is_active, created_at`

func scanFrequency(row rowScanner) (model.Frequency, error) {
	var (
		f          model.Frequency
		kind       string
		byDay      []string
		weekday    *string
		nth        *int
		start, end *time.Time
	)
	err := row.Scan(&f.ID, &f.EventTypeID, &kind, &byDay, &weekday, &nth, &f.StartTime,
		&f.DurationMinutes, &start, &end, &f.IsActive, &f.CreatedAt)
	if err != nil {
		return f, err
	}
	fields := recurrence.Fields{Kind: recurrence.Kind(kind), ByDay: byDay}
	if weekday != nil {
		fields.Weekday = *weekday
	}
	if nth != nil {
		fields.Nth = *nth
	}
	if f.Rule, err = fields.Rule(); err != nil {
		return f, fmt.Errorf("frequency %s: %w", f.ID, err)
	}
	f.StartDate = datePtr(start)
	f.EndDate = datePtr(end)
	return f, nil
}

func datePtr(t *time.Time) *wallclock.Date {
	if t == nil {
		return nil
	}
	d := wallclock.DateOf(*t)
	return &d
}

func timePtr(d *wallclock.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

// frequencyArgs returns the kind-dependent columns, leaving the other
// branch NULL so the table CHECK holds.
func frequencyArgs(f *model.Frequency) (kind string, byDay []string, weekday *string, nth *int) {
	fields := recurrence.FieldsOf(f.Rule)
	kind = string(fields.Kind)
	switch fields.Kind {
	case recurrence.Weekly:
		byDay = fields.ByDay
	case recurrence.MonthlyNthWeekday:
		weekday, nth = &fields.Weekday, &fields.Nth
	}
	return kind, byDay, weekday, nth
}

// CreateFrequency inserts f, assigning its id and creation time.
func (r *FrequencyRepository) CreateFrequency(ctx context.Context, f *model.Frequency) error {
	f.ID = uuid.New().String()
	f.CreatedAt = time.Now().UTC()
	kind, byDay, weekday, nth := frequencyArgs(f)
	_, err := r.db.Exec(ctx,
		`INSERT INTO frequencies (`+frequencyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID, f.EventTypeID, kind, byDay, weekday, nth, f.StartTime,
		f.DurationMinutes, timePtr(f.StartDate), timePtr(f.EndDate), f.IsActive, f.CreatedAt,
	)
	if err != nil {
		return classify("insert frequency", err)
	}
	return nil
}

// GetFrequency returns a single frequency or ErrNotFound.
func (r *FrequencyRepository) GetFrequency(ctx context.Context, id string) (*model.Frequency, error) {
	f, err := scanFrequency(r.db.QueryRow(ctx,
		`SELECT `+frequencyColumns+` FROM frequencies WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get frequency", err)
	}
	return &f, nil
}

// ListFrequencies returns the frequencies matching filter.
func (r *FrequencyRepository) ListFrequencies(ctx context.Context, filter FrequencyFilter) ([]model.Frequency, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+frequencyColumns+` FROM frequencies
		 WHERE ($1::text = '' OR event_type_id = $1)
		   AND (NOT $2::bool OR is_active)
		 ORDER BY event_type_id, created_at`,
		filter.EventTypeID, filter.ActiveOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list frequencies: %w", err)
	}
	defer rows.Close()

	var freqs []model.Frequency
	for rows.Next() {
		f, err := scanFrequency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		freqs = append(freqs, f)
	}
	return freqs, rows.Err()
}

// UpdateFrequency overwrites the editable fields of f. The kind column is
// never rewritten.
func (r *FrequencyRepository) UpdateFrequency(ctx context.Context, f *model.Frequency) error {
	kind, byDay, weekday, nth := frequencyArgs(f)
	tag, err := r.db.Exec(ctx,
		`UPDATE frequencies
		 SET by_day = $3, weekday = $4, nth = $5, start_time = $6, duration_minutes = $7,
		     start_date = $8, end_date = $9, is_active = $10
		 WHERE id = $1 AND kind = $2`,
		f.ID, kind, byDay, weekday, nth, f.StartTime, f.DurationMinutes,
		timePtr(f.StartDate), timePtr(f.EndDate), f.IsActive,
	)
	if err != nil {
		return classify("update frequency", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFrequency removes a rule. Events it produced are unaffected.
func (r *FrequencyRepository) DeleteFrequency(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM frequencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete frequency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
