package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// DanceRepository handles the dance catalog.
type DanceRepository struct {
	db *pgxpool.Pool
}

// NewDanceRepository constructs a DanceRepository.
func NewDanceRepository(db *pgxpool.Pool) *DanceRepository {
	return &DanceRepository{db: db}
}

// CreateDance inserts d, assigning its id.
func (r *DanceRepository) CreateDance(ctx context.Context, d *model.Dance) error {
	d.ID = uuid.New().String()
	_, err := r.db.Exec(ctx,
		`INSERT INTO dances (id, name, link, difficulty) VALUES ($1, $2, $3, $4)`,
		d.ID, d.Name, d.Link, d.Difficulty,
	)
	if err != nil {
		return classify("insert dance", err)
	}
	return nil
}

// GetDance returns a single dance or ErrNotFound.
func (r *DanceRepository) GetDance(ctx context.Context, id string) (*model.Dance, error) {
	var d model.Dance
	err := r.db.QueryRow(ctx,
		`SELECT id, name, link, difficulty FROM dances WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Link, &d.Difficulty)
	if err != nil {
		return nil, classify("get dance", err)
	}
	return &d, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchDances returns up to limit dances whose name contains query,
// case-insensitively. LIKE wildcards in query match literally.
func (r *DanceRepository) SearchDances(ctx context.Context, query string, limit int) ([]model.Dance, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, link, difficulty FROM dances
		 WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY name
		 LIMIT $2`,
		likeEscaper.Replace(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search dances: %w", err)
	}
	defer rows.Close()

	var dances []model.Dance
	for rows.Next() {
		var d model.Dance
		if err := rows.Scan(&d.ID, &d.Name, &d.Link, &d.Difficulty); err != nil {
			return nil, fmt.Errorf("scan dance: %w", err)
		}
		dances = append(dances, d)
	}
	return dances, rows.Err()
}
