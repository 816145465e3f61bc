package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"volunteer-match/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTaskNotFound = errors.New("task not found")

const TaskStatusActive = "active"

type Task struct {
	ID            uuid.UUID
	Name          string
	Description   string
	CoordinatorID *uuid.UUID
	Latitude      *float64
	Longitude     *float64
	LocationName  *string
	Status        string
	Capacity      *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TaskRepository interface {
	List(ctx context.Context) ([]Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (Task, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

type PostgresTaskRepository struct {
	db database.DB
}

func NewPostgresTaskRepository(db database.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const taskColumns = `id, name, description, coordinator_id, latitude, longitude, location_name, status, capacity, created_at, updated_at`

func (r *PostgresTaskRepository) List(ctx context.Context) ([]Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CoordinatorID,
			&t.Latitude, &t.Longitude, &t.LocationName, &t.Status, &t.Capacity,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id,
	)

	var t Task
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CoordinatorID,
		&t.Latitude, &t.Longitude, &t.LocationName, &t.Status, &t.Capacity,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, err
	}
	return t, nil
}

func (r *PostgresTaskRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
