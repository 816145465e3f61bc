package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"volunteer-match/internal/database"

	"github.com/google/uuid"
)

// MatchRecord is one row of the materialized ranking cache. The whole set
// is rewritten by each refresh.
type MatchRecord struct {
	TaskID        uuid.UUID
	SeekerID      uuid.UUID
	SkillScore    float64
	DistanceKm    float64
	CombinedScore float64
	MatchedSkills []string
	ComputedAt    time.Time
}

// SeekerMatchRow is a cached match joined with seeker display attributes.
type SeekerMatchRow struct {
	SeekerID      uuid.UUID
	SeekerName    string
	Email         string
	SkillScore    float64
	DistanceKm    float64
	CombinedScore float64
	MatchedSkills []string
	Latitude      *float64
	Longitude     *float64
	LocationName  *string
}

// TaskMatchRow is a cached match joined with task display attributes.
type TaskMatchRow struct {
	TaskID        uuid.UUID
	TaskName      string
	SkillScore    float64
	DistanceKm    float64
	CombinedScore float64
	MatchedSkills []string
	Latitude      *float64
	Longitude     *float64
	LocationName  *string
}

type MatchRepository interface {
	// ReplaceAll swaps the full cache contents in one transaction: readers
	// observe either the previous set or the new one, never a mix.
	ReplaceAll(ctx context.Context, recs []MatchRecord) (int64, error)
	TopForTask(ctx context.Context, taskID uuid.UUID, limit int) ([]SeekerMatchRow, error)
	TopForSeeker(ctx context.Context, seekerID uuid.UUID, limit int) ([]TaskMatchRow, error)
}

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

// insertChunkSize keeps each multi-row INSERT comfortably under the 65535
// bind-parameter limit (8 parameters per row).
const insertChunkSize = 500

func (r *PostgresMatchRepository) ReplaceAll(ctx context.Context, recs []MatchRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM task_seeker_matches`); err != nil {
		return 0, err
	}

	var inserted int64
	for start := 0; start < len(recs); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(recs) {
			end = len(recs)
		}
		n, err := insertChunk(ctx, tx, recs[start:end])
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertChunk(ctx context.Context, tx database.Tx, recs []MatchRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO task_seeker_matches
		(id, task_id, seeker_id, skill_score, distance_km, combined_score, matched_skills, computed_at)
		VALUES `)

	args := make([]any, 0, len(recs)*8)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)

		computedAt := rec.ComputedAt
		if computedAt.IsZero() {
			computedAt = time.Now().UTC()
		}
		skills := rec.MatchedSkills
		if skills == nil {
			skills = []string{}
		}
		args = append(args, uuid.New(), rec.TaskID, rec.SeekerID,
			rec.SkillScore, rec.DistanceKm, rec.CombinedScore, skills, computedAt)
	}

	return tx.Exec(ctx, sb.String(), args...)
}

func (r *PostgresMatchRepository) TopForTask(ctx context.Context, taskID uuid.UUID, limit int) ([]SeekerMatchRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.seeker_id, s.name, s.email,
			m.skill_score, m.distance_km, m.combined_score, m.matched_skills,
			s.latitude, s.longitude, s.location_name
		 FROM task_seeker_matches m
		 JOIN seekers s ON s.id = m.seeker_id
		 WHERE m.task_id = $1
		 ORDER BY m.combined_score DESC
		 LIMIT $2`,
		taskID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SeekerMatchRow, 0)
	for rows.Next() {
		var m SeekerMatchRow
		if err := rows.Scan(&m.SeekerID, &m.SeekerName, &m.Email,
			&m.SkillScore, &m.DistanceKm, &m.CombinedScore, &m.MatchedSkills,
			&m.Latitude, &m.Longitude, &m.LocationName); err != nil {
			return nil, err
		}
		if m.MatchedSkills == nil {
			m.MatchedSkills = []string{}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMatchRepository) TopForSeeker(ctx context.Context, seekerID uuid.UUID, limit int) ([]TaskMatchRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.task_id, t.name,
			m.skill_score, m.distance_km, m.combined_score, m.matched_skills,
			t.latitude, t.longitude, t.location_name
		 FROM task_seeker_matches m
		 JOIN tasks t ON t.id = m.task_id
		 WHERE m.seeker_id = $1 AND t.status = 'active'
		 ORDER BY m.combined_score DESC
		 LIMIT $2`,
		seekerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TaskMatchRow, 0)
	for rows.Next() {
		var m TaskMatchRow
		if err := rows.Scan(&m.TaskID, &m.TaskName,
			&m.SkillScore, &m.DistanceKm, &m.CombinedScore, &m.MatchedSkills,
			&m.Latitude, &m.Longitude, &m.LocationName); err != nil {
			return nil, err
		}
		if m.MatchedSkills == nil {
			m.MatchedSkills = []string{}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
