package repository

import (
	"context"

	"volunteer-match/internal/database"

	"github.com/google/uuid"
)

// SkillClaim is one claimed skill of a seeker with its proficiency score.
// Only claimed rows participate in matching.
type SkillClaim struct {
	SeekerID  uuid.UUID
	SkillID   uuid.UUID
	SkillName string
	Score     float64
}

type SkillClaimRepository interface {
	ListClaimed(ctx context.Context) ([]SkillClaim, error)
	FindBySeeker(ctx context.Context, seekerID uuid.UUID) ([]SkillClaim, error)
}

type PostgresSkillClaimRepository struct {
	db database.DB
}

func NewPostgresSkillClaimRepository(db database.DB) *PostgresSkillClaimRepository {
	return &PostgresSkillClaimRepository{db: db}
}

func (r *PostgresSkillClaimRepository) ListClaimed(ctx context.Context) ([]SkillClaim, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ss.seeker_id, ss.skill_id, s.name, ss.score
		 FROM seeker_skills ss
		 JOIN skills s ON s.id = ss.skill_id
		 WHERE ss.claimed = TRUE
		 ORDER BY ss.seeker_id, s.name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func (r *PostgresSkillClaimRepository) FindBySeeker(ctx context.Context, seekerID uuid.UUID) ([]SkillClaim, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ss.seeker_id, ss.skill_id, s.name, ss.score
		 FROM seeker_skills ss
		 JOIN skills s ON s.id = ss.skill_id
		 WHERE ss.seeker_id = $1 AND ss.claimed = TRUE
		 ORDER BY s.name ASC`,
		seekerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func scanClaims(rows database.Rows) ([]SkillClaim, error) {
	out := make([]SkillClaim, 0)
	for rows.Next() {
		var c SkillClaim
		if err := rows.Scan(&c.SeekerID, &c.SkillID, &c.SkillName, &c.Score); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
