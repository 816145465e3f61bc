package usecase

import (
	"context"
	"errors"
	"testing"

	"volunteer-match/internal/domain/enrollment"
	"volunteer-match/internal/repository"

	"github.com/google/uuid"
)

func enrollmentFixture() (*Enrollment, *mockEnrollmentRepo, repository.Seeker, repository.Task) {
	seeker := repository.Seeker{ID: uuid.New(), Name: "Sam"}
	task := repository.Task{ID: uuid.New(), Name: "Food drive", Status: repository.TaskStatusActive}

	repo := newMockEnrollmentRepo()
	uc := NewEnrollmentUsecase(
		repo,
		&mockSeekerRepo{seekers: []repository.Seeker{seeker}},
		&mockTaskRepo{tasks: []repository.Task{task}},
	)
	return uc, repo, seeker, task
}

func TestEnrollment_InitiateRequest(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()

	created, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID:    seeker.ID,
		TaskID:      task.ID,
		Action:      enrollment.ActionRequest,
		InitiatedBy: seeker.ID,
		Message:     ptrString("I'd like to help"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if created.Status != enrollment.StatusRequested {
		t.Fatalf("expected requested, got %s", created.Status)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
}

func TestEnrollment_InitiateInvite(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()
	coordinator := uuid.New()

	created, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID:    seeker.ID,
		TaskID:      task.ID,
		Action:      enrollment.ActionInvite,
		InitiatedBy: coordinator,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if created.Status != enrollment.StatusInvited {
		t.Fatalf("expected invited, got %s", created.Status)
	}
}

func TestEnrollment_InitiateRejectsNonInitiatingAction(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()

	_, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionAccept, InitiatedBy: seeker.ID,
	})
	if !errors.Is(err, enrollment.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestEnrollment_InitiateUnknownParties(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()

	if _, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: uuid.New(), TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: uuid.New(),
	}); !errors.Is(err, ErrSeekerNotFound) {
		t.Fatalf("expected ErrSeekerNotFound, got %v", err)
	}

	if _, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: uuid.New(),
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestEnrollment_InitiateOncePerPair(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()
	in := InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	}

	if _, err := uc.Initiate(context.Background(), in); err != nil {
		t.Fatalf("first initiation failed: %v", err)
	}

	// Even after a withdrawal the pair stays used up.
	if _, err := uc.Initiate(context.Background(), in); !errors.Is(err, ErrEnrollmentConflict) {
		t.Fatalf("expected ErrEnrollmentConflict, got %v", err)
	}
}

func TestEnrollment_TransitionAcceptSetsApprovedAt(t *testing.T) {
	uc, repo, seeker, task := enrollmentFixture()

	created, err := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	updated, err := uc.Transition(context.Background(), created.ID, enrollment.ActionAccept, ptrString("welcome aboard"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Status != enrollment.StatusEnrolled {
		t.Fatalf("expected enrolled, got %s", updated.Status)
	}
	if updated.ApprovedAt == nil {
		t.Fatalf("expected approved_at to be set on acceptance")
	}
	if repo.lastApprovedAt == nil {
		t.Fatalf("approved_at not passed to the repository")
	}
	if updated.ResponseMessage == nil || *updated.ResponseMessage != "welcome aboard" {
		t.Fatalf("response message not stored")
	}
}

func TestEnrollment_TransitionRejectLeavesApprovedAtEmpty(t *testing.T) {
	uc, repo, seeker, task := enrollmentFixture()

	created, _ := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	})

	updated, err := uc.Transition(context.Background(), created.ID, enrollment.ActionReject, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Status != enrollment.StatusTLRejected {
		t.Fatalf("expected tl_rejected, got %s", updated.Status)
	}
	if updated.ApprovedAt != nil || repo.lastApprovedAt != nil {
		t.Fatalf("approved_at must stay empty on rejection")
	}
}

func TestEnrollment_TransitionUnknownID(t *testing.T) {
	uc, _, _, _ := enrollmentFixture()

	_, err := uc.Transition(context.Background(), uuid.New(), enrollment.ActionAccept, nil)
	if !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestEnrollment_TransitionFromTerminalState(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()

	created, _ := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	})
	if _, err := uc.Transition(context.Background(), created.ID, enrollment.ActionWithdraw, nil); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	var invalid *enrollment.InvalidTransitionError
	_, err := uc.Transition(context.Background(), created.ID, enrollment.ActionAccept, nil)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.Current != enrollment.StatusVRejected {
		t.Fatalf("error should carry the terminal state, got %s", invalid.Current)
	}
}

func TestEnrollment_TransitionLostRaceReportsFreshState(t *testing.T) {
	uc, repo, seeker, task := enrollmentFixture()

	created, _ := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	})

	// Simulate a concurrent writer: the guarded update affects no rows while
	// the stored record has already moved on.
	zero := int64(0)
	repo.updateAffected = &zero
	e := repo.items[created.ID]
	e.Status = enrollment.StatusEnrolled
	repo.items[created.ID] = e

	var invalid *enrollment.InvalidTransitionError
	_, err := uc.Transition(context.Background(), created.ID, enrollment.ActionWithdraw, nil)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError after lost race, got %v", err)
	}
	if invalid.Current != enrollment.StatusEnrolled {
		t.Fatalf("expected fresh state enrolled in error, got %s", invalid.Current)
	}
}

func TestEnrollment_IsEnrolled(t *testing.T) {
	uc, _, seeker, task := enrollmentFixture()

	// No record at all.
	enrolled, _, err := uc.IsEnrolled(context.Background(), seeker.ID, task.ID)
	if err != nil || enrolled {
		t.Fatalf("expected not enrolled without a record, got %v, %v", enrolled, err)
	}

	created, _ := uc.Initiate(context.Background(), InitiateEnrollmentInput{
		SeekerID: seeker.ID, TaskID: task.ID,
		Action: enrollment.ActionRequest, InitiatedBy: seeker.ID,
	})

	enrolled, status, err := uc.IsEnrolled(context.Background(), seeker.ID, task.ID)
	if err != nil || !enrolled || status != enrollment.StatusRequested {
		t.Fatalf("pending request must count as engaged: %v %s %v", enrolled, status, err)
	}

	if _, err := uc.Transition(context.Background(), created.ID, enrollment.ActionWithdraw, nil); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	enrolled, status, err = uc.IsEnrolled(context.Background(), seeker.ID, task.ID)
	if err != nil || enrolled || status != enrollment.StatusVRejected {
		t.Fatalf("withdrawn pair must not be engaged: %v %s %v", enrolled, status, err)
	}
}

func TestEnrollment_ListValidatesOwner(t *testing.T) {
	uc, _, _, _ := enrollmentFixture()

	if _, err := uc.ListForTask(context.Background(), uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := uc.ListForSeeker(context.Background(), uuid.New()); !errors.Is(err, ErrSeekerNotFound) {
		t.Fatalf("expected ErrSeekerNotFound, got %v", err)
	}
}
