package usecase

import (
	"context"
	"errors"
	"time"

	"volunteer-match/internal/domain/enrollment"
	"volunteer-match/internal/pkg/metrics"
	"volunteer-match/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrEnrollmentConflict: only one enrollment may ever exist per
	// (seeker, task) pair, whatever state the existing one is in.
	ErrEnrollmentConflict = errors.New("enrollment already exists for this seeker and task")
)

// InitiateEnrollmentInput creates the first record of a pair: a seeker
// requesting a task, or a coordinator inviting a seeker.
type InitiateEnrollmentInput struct {
	SeekerID    uuid.UUID
	TaskID      uuid.UUID
	Action      enrollment.Action
	InitiatedBy uuid.UUID
	Message     *string
}

type EnrollmentUsecase interface {
	Initiate(ctx context.Context, in InitiateEnrollmentInput) (repository.Enrollment, error)
	Transition(ctx context.Context, id uuid.UUID, action enrollment.Action, responseMessage *string) (repository.Enrollment, error)
	IsEnrolled(ctx context.Context, seekerID, taskID uuid.UUID) (bool, enrollment.Status, error)
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]repository.EnrollmentWithDetails, error)
	ListForSeeker(ctx context.Context, seekerID uuid.UUID) ([]repository.EnrollmentWithDetails, error)
}

type Enrollment struct {
	enrollments repository.EnrollmentRepository
	seekers     repository.SeekerRepository
	tasks       repository.TaskRepository
}

func NewEnrollmentUsecase(
	enrollments repository.EnrollmentRepository,
	seekers repository.SeekerRepository,
	tasks repository.TaskRepository,
) *Enrollment {
	return &Enrollment{enrollments: enrollments, seekers: seekers, tasks: tasks}
}

func (u *Enrollment) Initiate(ctx context.Context, in InitiateEnrollmentInput) (repository.Enrollment, error) {
	status, err := enrollment.InitialStatus(in.Action)
	if err != nil {
		return repository.Enrollment{}, err
	}

	if ok, err := u.seekers.ExistsByID(ctx, in.SeekerID); err != nil {
		return repository.Enrollment{}, err
	} else if !ok {
		return repository.Enrollment{}, ErrSeekerNotFound
	}
	if ok, err := u.tasks.ExistsByID(ctx, in.TaskID); err != nil {
		return repository.Enrollment{}, err
	} else if !ok {
		return repository.Enrollment{}, ErrTaskNotFound
	}

	created, err := u.enrollments.Create(ctx, repository.Enrollment{
		SeekerID:    in.SeekerID,
		TaskID:      in.TaskID,
		Status:      status,
		InitiatedBy: in.InitiatedBy,
		Message:     in.Message,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentExists) {
			return repository.Enrollment{}, ErrEnrollmentConflict
		}
		return repository.Enrollment{}, err
	}

	metrics.EnrollmentTransitions.WithLabelValues(string(in.Action)).Inc()
	return created, nil
}

func (u *Enrollment) Transition(ctx context.Context, id uuid.UUID, action enrollment.Action, responseMessage *string) (repository.Enrollment, error) {
	current, err := u.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return repository.Enrollment{}, ErrEnrollmentNotFound
		}
		return repository.Enrollment{}, err
	}

	next, err := enrollment.Transition(current.Status, action)
	if err != nil {
		return repository.Enrollment{}, err
	}

	var approvedAt *time.Time
	if next == enrollment.StatusEnrolled {
		now := time.Now().UTC()
		approvedAt = &now
	}

	affected, err := u.enrollments.UpdateStatusGuarded(ctx, id, current.Status, next, responseMessage, approvedAt)
	if err != nil {
		return repository.Enrollment{}, err
	}
	if affected == 0 {
		// Lost the race: another writer moved the row first. Re-read and
		// report the transition against the fresh state.
		fresh, err := u.enrollments.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrEnrollmentNotFound) {
				return repository.Enrollment{}, ErrEnrollmentNotFound
			}
			return repository.Enrollment{}, err
		}
		return repository.Enrollment{}, &enrollment.InvalidTransitionError{Current: fresh.Status, Action: action}
	}

	metrics.EnrollmentTransitions.WithLabelValues(string(action)).Inc()

	updated, err := u.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return repository.Enrollment{}, ErrEnrollmentNotFound
		}
		return repository.Enrollment{}, err
	}
	return updated, nil
}

// IsEnrolled answers the eligibility question for a pair: engaged means a
// live record exists (requested, invited or enrolled). A missing record or a
// terminal rejection leaves the pair free for ranking.
func (u *Enrollment) IsEnrolled(ctx context.Context, seekerID, taskID uuid.UUID) (bool, enrollment.Status, error) {
	status, err := u.enrollments.FindStatusByPair(ctx, seekerID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	return status.Engaged(), status, nil
}

func (u *Enrollment) ListForTask(ctx context.Context, taskID uuid.UUID) ([]repository.EnrollmentWithDetails, error) {
	if ok, err := u.tasks.ExistsByID(ctx, taskID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrTaskNotFound
	}
	return u.enrollments.ListByTask(ctx, taskID)
}

func (u *Enrollment) ListForSeeker(ctx context.Context, seekerID uuid.UUID) ([]repository.EnrollmentWithDetails, error) {
	if ok, err := u.seekers.ExistsByID(ctx, seekerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrSeekerNotFound
	}
	return u.enrollments.ListBySeeker(ctx, seekerID)
}
