package repository

import (
	"context"

	"volunteer-match/internal/database"

	"github.com/google/uuid"
)

// SkillDemand is one skill a task asks for with its demand weight.
type SkillDemand struct {
	TaskID    uuid.UUID
	SkillID   uuid.UUID
	SkillName string
	Required  bool
	Weight    float64
}

type SkillDemandRepository interface {
	ListAll(ctx context.Context) ([]SkillDemand, error)
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]SkillDemand, error)
}

type PostgresSkillDemandRepository struct {
	db database.DB
}

func NewPostgresSkillDemandRepository(db database.DB) *PostgresSkillDemandRepository {
	return &PostgresSkillDemandRepository{db: db}
}

func (r *PostgresSkillDemandRepository) ListAll(ctx context.Context) ([]SkillDemand, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ts.task_id, ts.skill_id, s.name, ts.required, ts.weight
		 FROM task_skills ts
		 JOIN skills s ON s.id = ts.skill_id
		 ORDER BY ts.task_id, s.name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDemands(rows)
}

func (r *PostgresSkillDemandRepository) FindByTask(ctx context.Context, taskID uuid.UUID) ([]SkillDemand, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ts.task_id, ts.skill_id, s.name, ts.required, ts.weight
		 FROM task_skills ts
		 JOIN skills s ON s.id = ts.skill_id
		 WHERE ts.task_id = $1
		 ORDER BY s.name ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDemands(rows)
}

func scanDemands(rows database.Rows) ([]SkillDemand, error) {
	out := make([]SkillDemand, 0)
	for rows.Next() {
		var d SkillDemand
		if err := rows.Scan(&d.TaskID, &d.SkillID, &d.SkillName, &d.Required, &d.Weight); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
