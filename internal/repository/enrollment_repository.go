package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"volunteer-match/internal/database"
	"volunteer-match/internal/domain/enrollment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrEnrollmentExists surfaces the once-ever (seeker, task) uniqueness:
	// a second initiation conflicts regardless of the existing row's state.
	ErrEnrollmentExists = errors.New("enrollment already exists for pair")
)

type Enrollment struct {
	ID              uuid.UUID
	SeekerID        uuid.UUID
	TaskID          uuid.UUID
	Status          enrollment.Status
	InitiatedBy     uuid.UUID
	Message         *string
	ResponseMessage *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ApprovedAt      *time.Time
}

type EnrollmentWithDetails struct {
	Enrollment
	SeekerName  string
	SeekerEmail string
	TaskName    string
}

// Pair identifies one (seeker, task) combination.
type Pair struct {
	SeekerID uuid.UUID
	TaskID   uuid.UUID
}

type EnrollmentRepository interface {
	Create(ctx context.Context, e Enrollment) (Enrollment, error)
	FindByID(ctx context.Context, id uuid.UUID) (Enrollment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]EnrollmentWithDetails, error)
	ListBySeeker(ctx context.Context, seekerID uuid.UUID) ([]EnrollmentWithDetails, error)
	// UpdateStatusGuarded applies the transition only when the row is still
	// in the expected state; the returned count is 0 when another writer
	// got there first (or the row is gone).
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enrollment.Status, responseMessage *string, approvedAt *time.Time) (int64, error)
	ListPairsByStatus(ctx context.Context, status enrollment.Status) ([]Pair, error)
	FindStatusByPair(ctx context.Context, seekerID, taskID uuid.UUID) (enrollment.Status, error)
}

type PostgresEnrollmentRepository struct {
	db database.DB
}

func NewPostgresEnrollmentRepository(db database.DB) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{db: db}
}

const enrollmentColumns = `id, seeker_id, task_id, status, initiated_by, message, response_message, created_at, updated_at, approved_at`

func (r *PostgresEnrollmentRepository) Create(ctx context.Context, e Enrollment) (Enrollment, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO enrollments (id, seeker_id, task_id, status, initiated_by, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+enrollmentColumns,
		e.ID, e.SeekerID, e.TaskID, string(e.Status), e.InitiatedBy, e.Message,
	)

	var created Enrollment
	if err := scanEnrollment(row, &created); err != nil {
		if isUniqueViolation(err) {
			return Enrollment{}, ErrEnrollmentExists
		}
		return Enrollment{}, err
	}
	return created, nil
}

func (r *PostgresEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (Enrollment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id,
	)

	var e Enrollment
	if err := scanEnrollment(row, &e); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return Enrollment{}, ErrEnrollmentNotFound
		}
		return Enrollment{}, err
	}
	return e, nil
}

func (r *PostgresEnrollmentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]EnrollmentWithDetails, error) {
	return r.listDetailed(ctx, `e.task_id = $1`, taskID)
}

func (r *PostgresEnrollmentRepository) ListBySeeker(ctx context.Context, seekerID uuid.UUID) ([]EnrollmentWithDetails, error) {
	return r.listDetailed(ctx, `e.seeker_id = $1`, seekerID)
}

func (r *PostgresEnrollmentRepository) listDetailed(ctx context.Context, where string, arg any) ([]EnrollmentWithDetails, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.seeker_id, e.task_id, e.status, e.initiated_by,
			e.message, e.response_message, e.created_at, e.updated_at, e.approved_at,
			s.name, s.email, t.name
		 FROM enrollments e
		 JOIN seekers s ON s.id = e.seeker_id
		 JOIN tasks t ON t.id = e.task_id
		 WHERE `+where+`
		 ORDER BY e.created_at DESC`,
		arg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EnrollmentWithDetails, 0)
	for rows.Next() {
		var e EnrollmentWithDetails
		var status string
		if err := rows.Scan(&e.ID, &e.SeekerID, &e.TaskID, &status, &e.InitiatedBy,
			&e.Message, &e.ResponseMessage, &e.CreatedAt, &e.UpdatedAt, &e.ApprovedAt,
			&e.SeekerName, &e.SeekerEmail, &e.TaskName); err != nil {
			return nil, err
		}
		e.Status = enrollment.Status(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEnrollmentRepository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enrollment.Status, responseMessage *string, approvedAt *time.Time) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE enrollments
		 SET status = $3,
			response_message = COALESCE($4, response_message),
			approved_at = COALESCE($5, approved_at),
			updated_at = now()
		 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), responseMessage, approvedAt,
	)
}

func (r *PostgresEnrollmentRepository) ListPairsByStatus(ctx context.Context, status enrollment.Status) ([]Pair, error) {
	rows, err := r.db.Query(ctx,
		`SELECT seeker_id, task_id FROM enrollments WHERE status = $1`,
		string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Pair, 0)
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.SeekerID, &p.TaskID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEnrollmentRepository) FindStatusByPair(ctx context.Context, seekerID, taskID uuid.UUID) (enrollment.Status, error) {
	var status string
	row := r.db.QueryRow(ctx,
		`SELECT status FROM enrollments WHERE seeker_id = $1 AND task_id = $2`,
		seekerID, taskID,
	)
	if err := row.Scan(&status); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return "", ErrEnrollmentNotFound
		}
		return "", err
	}
	return enrollment.Status(status), nil
}

func scanEnrollment(row database.Row, e *Enrollment) error {
	var status string
	if err := row.Scan(&e.ID, &e.SeekerID, &e.TaskID, &status, &e.InitiatedBy,
		&e.Message, &e.ResponseMessage, &e.CreatedAt, &e.UpdatedAt, &e.ApprovedAt); err != nil {
		return err
	}
	e.Status = enrollment.Status(status)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
