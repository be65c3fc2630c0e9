package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// EventRepository handles persistence for events and the lesson facts
// written alongside them.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, event_type_id, date, start_time, end_time, duration_minutes,
	end_day_offset, is_cancelled, cancel_note, substitute, lessons, created_at, updated_at`

func scanEvent(row rowScanner) (model.Event, error) {
	var (
		e    model.Event
		date time.Time
	)
	err := row.Scan(&e.ID, &e.EventTypeID, &date, &e.StartTime, &e.EndTime, &e.DurationMinutes,
		&e.EndDayOffset, &e.IsCancelled, &e.CancelNote, &e.Substitute, &e.Lessons,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Date = wallclock.DateOf(date)
	if e.Lessons == nil {
		e.Lessons = []model.LessonSlot{}
	}
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func lessonsArg(ls []model.LessonSlot) []model.LessonSlot {
	if ls == nil {
		return []model.LessonSlot{}
	}
	return ls
}

// UpsertEvent inserts e keyed on (event_type_id, date, start_time).
//
// The key is enforced by a UNIQUE constraint, and the insert and the
// conflict check happen in one statement, so two concurrent requests for the
// same occurrence converge on a single row. On conflict only updated_at is
// touched: planning data already on the row is never overwritten. xmax is
// zero only for a freshly inserted tuple, which tells us who created it.
func (r *EventRepository) UpsertEvent(ctx context.Context, e *model.Event) (string, bool, error) {
	now := time.Now().UTC()
	var (
		id      string
		created bool
	)
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		 ON CONFLICT (event_type_id, date, start_time)
		 DO UPDATE SET updated_at = EXCLUDED.updated_at
		 RETURNING id, (xmax = 0) AS inserted`,
		uuid.New().String(), e.EventTypeID, e.Date.Time(), e.StartTime, e.EndTime, e.DurationMinutes,
		e.EndDayOffset, e.IsCancelled, e.CancelNote, e.Substitute, lessonsArg(e.Lessons), now,
	).Scan(&id, &created)
	if err != nil {
		return "", false, classify("upsert event", err)
	}
	return id, created, nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get event", err)
	}
	return &e, nil
}

// ListEvents returns events dated within [from, to].
func (r *EventRepository) ListEvents(ctx context.Context, from, to wallclock.Date) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE date BETWEEN $1 AND $2
		 ORDER BY date, created_at`,
		from.Time(), to.Time(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectEvents(rows)
}

// ListOpenEvents returns non-cancelled events up to through that still have
// an uncommitted lesson slot.
func (r *EventRepository) ListOpenEvents(ctx context.Context, through wallclock.Date) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE NOT is_cancelled
		   AND date <= $1
		   AND jsonb_path_exists(lessons, '$[*] ? (@.committed == false)')
		 ORDER BY date`,
		through.Time(),
	)
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}
	return collectEvents(rows)
}

// ModifyEvent applies fn to an event under a row lock and writes the result
// together with any lesson facts fn returns.
//
// ─────────────────────────────────────────────────────────────────────────────
// WHY THE LOCK
// ─────────────────────────────────────────────────────────────────────────────
//
// Committing a lesson is read-then-write: read the slot, check committed,
// append a fact, flip committed. Without a lock two requests for the same
// slot both read committed=false and both append a fact, so the ledger
// records the lesson twice.
//
// SELECT … FOR UPDATE takes a row-level lock inside the transaction. A
// second commit for the same event blocks on that SELECT until the first
// transaction ends, then reads the committed=true written by the winner and
// becomes a no-op. The facts are inserted in the same transaction, so either
// the slot flips and every fact lands, or nothing does.
//
// ─────────────────────────────────────────────────────────────────────────────
func (r *EventRepository) ModifyEvent(ctx context.Context, id string, fn EventMutation) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	e, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, classify("lock event row", err)
	}

	facts, err := fn(&e)
	if err != nil {
		return nil, err
	}

	e.UpdatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET start_time = $2, end_time = $3, duration_minutes = $4, end_day_offset = $5,
		     is_cancelled = $6, cancel_note = $7, substitute = $8, lessons = $9, updated_at = $10
		 WHERE id = $1`,
		e.ID, e.StartTime, e.EndTime, e.DurationMinutes, e.EndDayOffset,
		e.IsCancelled, e.CancelNote, e.Substitute, lessonsArg(e.Lessons), e.UpdatedAt,
	)
	if err != nil {
		return nil, classify("update event", err)
	}

	if len(facts) > 0 {
		if err := insertFacts(ctx, tx, facts); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &e, nil
}

func insertFacts(ctx context.Context, tx pgx.Tx, facts []model.LessonFact) error {
	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i := range facts {
		f := &facts[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		f.CreatedAt = now
		batch.Queue(
			`INSERT INTO lesson_facts (id, event_id, lesson_id, dance_id, dance_name, venue, taught_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			f.ID, f.EventID, f.LessonID, f.DanceID, f.DanceName, f.Venue, f.TaughtAt, f.CreatedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range facts {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert lesson fact: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert lesson facts: %w", err)
	}
	return nil
}

// LessonFactRepository reads the taught-lesson ledger.
type LessonFactRepository struct {
	db *pgxpool.Pool
}

// NewLessonFactRepository constructs a LessonFactRepository.
func NewLessonFactRepository(db *pgxpool.Pool) *LessonFactRepository {
	return &LessonFactRepository{db: db}
}

// ListLessonFacts returns facts newest first.
func (r *LessonFactRepository) ListLessonFacts(ctx context.Context, filter LessonFactFilter) ([]model.LessonFact, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, lesson_id, dance_id, dance_name, venue, taught_at, created_at
		 FROM lesson_facts
		 WHERE ($1::text = '' OR event_id = $1)
		   AND ($3::text = '' OR left(taught_at, 10) >= $3)
		   AND ($4::text = '' OR left(taught_at, 10) <= $4)
		 ORDER BY created_at DESC, id
		 LIMIT NULLIF($2::int, -1)`,
		filter.EventID, limit, filter.From.String(), filter.To.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list lesson facts: %w", err)
	}
	defer rows.Close()

	var facts []model.LessonFact
	for rows.Next() {
		var f model.LessonFact
		if err := rows.Scan(&f.ID, &f.EventID, &f.LessonID, &f.DanceID, &f.DanceName,
			&f.Venue, &f.TaughtAt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
