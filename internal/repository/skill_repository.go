package repository

import (
	"context"
	"time"

	"volunteer-match/internal/database"

	"github.com/google/uuid"
)

type Skill struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Description string
	CreatedAt   time.Time
}

type SkillRepository interface {
	ListAll(ctx context.Context) ([]Skill, error)
	EnsureByName(ctx context.Context, s Skill) (uuid.UUID, error)
}

type PostgresSkillRepository struct {
	db database.DB
}

func NewPostgresSkillRepository(db database.DB) *PostgresSkillRepository {
	return &PostgresSkillRepository{db: db}
}

func (r *PostgresSkillRepository) ListAll(ctx context.Context) ([]Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, category, description, created_at
		 FROM skills
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Skill, 0)
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureByName inserts the skill if the name is new and returns the id of
// whichever row owns the name afterwards.
func (r *PostgresSkillRepository) EnsureByName(ctx context.Context, s Skill) (uuid.UUID, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO skills (id, name, category, description)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING`,
		s.ID, s.Name, s.Category, s.Description,
	)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	row := r.db.QueryRow(ctx, `SELECT id FROM skills WHERE name = $1 LIMIT 1`, s.Name)
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
