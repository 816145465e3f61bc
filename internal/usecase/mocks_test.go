package usecase

import (
	"context"
	"time"

	"volunteer-match/internal/domain/enrollment"
	"volunteer-match/internal/repository"

	"github.com/google/uuid"
)

type mockTaskRepo struct {
	tasks []repository.Task
	err   error
}

func (m *mockTaskRepo) List(context.Context) ([]repository.Task, error) {
	return m.tasks, m.err
}

func (m *mockTaskRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Task, error) {
	if m.err != nil {
		return repository.Task{}, m.err
	}
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return repository.Task{}, repository.ErrTaskNotFound
}

func (m *mockTaskRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, t := range m.tasks {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type mockSeekerRepo struct {
	seekers []repository.Seeker
	err     error
}

func (m *mockSeekerRepo) List(context.Context) ([]repository.Seeker, error) {
	return m.seekers, m.err
}

func (m *mockSeekerRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Seeker, error) {
	if m.err != nil {
		return repository.Seeker{}, m.err
	}
	for _, s := range m.seekers {
		if s.ID == id {
			return s, nil
		}
	}
	return repository.Seeker{}, repository.ErrSeekerNotFound
}

func (m *mockSeekerRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, s := range m.seekers {
		if s.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type mockClaimRepo struct {
	claims []repository.SkillClaim
	err    error
}

func (m *mockClaimRepo) ListClaimed(context.Context) ([]repository.SkillClaim, error) {
	return m.claims, m.err
}

func (m *mockClaimRepo) FindBySeeker(_ context.Context, seekerID uuid.UUID) ([]repository.SkillClaim, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]repository.SkillClaim, 0)
	for _, c := range m.claims {
		if c.SeekerID == seekerID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockDemandRepo struct {
	demands []repository.SkillDemand
	err     error
}

func (m *mockDemandRepo) ListAll(context.Context) ([]repository.SkillDemand, error) {
	return m.demands, m.err
}

func (m *mockDemandRepo) FindByTask(_ context.Context, taskID uuid.UUID) ([]repository.SkillDemand, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]repository.SkillDemand, 0)
	for _, d := range m.demands {
		if d.TaskID == taskID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockMatchRepo struct {
	replaced   [][]repository.MatchRecord
	replaceErr error

	topTask   []repository.SeekerMatchRow
	topSeeker []repository.TaskMatchRow
	topErr    error
}

func (m *mockMatchRepo) ReplaceAll(_ context.Context, recs []repository.MatchRecord) (int64, error) {
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	m.replaced = append(m.replaced, recs)
	return int64(len(recs)), nil
}

func (m *mockMatchRepo) TopForTask(_ context.Context, _ uuid.UUID, limit int) ([]repository.SeekerMatchRow, error) {
	if m.topErr != nil {
		return nil, m.topErr
	}
	if len(m.topTask) > limit {
		return m.topTask[:limit], nil
	}
	return m.topTask, nil
}

func (m *mockMatchRepo) TopForSeeker(_ context.Context, _ uuid.UUID, limit int) ([]repository.TaskMatchRow, error) {
	if m.topErr != nil {
		return nil, m.topErr
	}
	if len(m.topSeeker) > limit {
		return m.topSeeker[:limit], nil
	}
	return m.topSeeker, nil
}

type mockEnrollmentRepo struct {
	items map[uuid.UUID]repository.Enrollment
	pairs []repository.Pair

	createErr      error
	updateAffected *int64

	lastFrom       enrollment.Status
	lastTo         enrollment.Status
	lastApprovedAt *time.Time
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{items: map[uuid.UUID]repository.Enrollment{}}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e repository.Enrollment) (repository.Enrollment, error) {
	if m.createErr != nil {
		return repository.Enrollment{}, m.createErr
	}
	for _, it := range m.items {
		if it.SeekerID == e.SeekerID && it.TaskID == e.TaskID {
			return repository.Enrollment{}, repository.ErrEnrollmentExists
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	m.items[e.ID] = e
	return e, nil
}

func (m *mockEnrollmentRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Enrollment, error) {
	e, ok := m.items[id]
	if !ok {
		return repository.Enrollment{}, repository.ErrEnrollmentNotFound
	}
	return e, nil
}

func (m *mockEnrollmentRepo) ListByTask(context.Context, uuid.UUID) ([]repository.EnrollmentWithDetails, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) ListBySeeker(context.Context, uuid.UUID) ([]repository.EnrollmentWithDetails, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) UpdateStatusGuarded(_ context.Context, id uuid.UUID, from, to enrollment.Status, responseMessage *string, approvedAt *time.Time) (int64, error) {
	m.lastFrom = from
	m.lastTo = to
	m.lastApprovedAt = approvedAt

	if m.updateAffected != nil {
		return *m.updateAffected, nil
	}

	e, ok := m.items[id]
	if !ok || e.Status != from {
		return 0, nil
	}
	e.Status = to
	if responseMessage != nil {
		e.ResponseMessage = responseMessage
	}
	if approvedAt != nil {
		e.ApprovedAt = approvedAt
	}
	e.UpdatedAt = time.Now().UTC()
	m.items[id] = e
	return 1, nil
}

func (m *mockEnrollmentRepo) ListPairsByStatus(_ context.Context, status enrollment.Status) ([]repository.Pair, error) {
	out := make([]repository.Pair, 0)
	for _, e := range m.items {
		if e.Status == status {
			out = append(out, repository.Pair{SeekerID: e.SeekerID, TaskID: e.TaskID})
		}
	}
	out = append(out, m.pairs...)
	return out, nil
}

func (m *mockEnrollmentRepo) FindStatusByPair(_ context.Context, seekerID, taskID uuid.UUID) (enrollment.Status, error) {
	for _, e := range m.items {
		if e.SeekerID == seekerID && e.TaskID == taskID {
			return e.Status, nil
		}
	}
	return "", repository.ErrEnrollmentNotFound
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }
