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

var ErrSeekerNotFound = errors.New("seeker not found")

type Seeker struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Latitude     *float64
	Longitude    *float64
	LocationName *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SeekerRepository interface {
	List(ctx context.Context) ([]Seeker, error)
	FindByID(ctx context.Context, id uuid.UUID) (Seeker, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

type PostgresSeekerRepository struct {
	db database.DB
}

func NewPostgresSeekerRepository(db database.DB) *PostgresSeekerRepository {
	return &PostgresSeekerRepository{db: db}
}

const seekerColumns = `id, name, email, latitude, longitude, location_name, created_at, updated_at`

func (r *PostgresSeekerRepository) List(ctx context.Context) ([]Seeker, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+seekerColumns+` FROM seekers ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Seeker, 0)
	for rows.Next() {
		var s Seeker
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Latitude, &s.Longitude,
			&s.LocationName, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresSeekerRepository) FindByID(ctx context.Context, id uuid.UUID) (Seeker, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+seekerColumns+` FROM seekers WHERE id = $1`, id,
	)

	var s Seeker
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Latitude, &s.Longitude,
		&s.LocationName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return Seeker{}, ErrSeekerNotFound
		}
		return Seeker{}, err
	}
	return s, nil
}

func (r *PostgresSeekerRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM seekers WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
