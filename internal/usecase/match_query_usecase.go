package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"volunteer-match/internal/config"
	"volunteer-match/internal/domain/match"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/pkg/metrics"
	"volunteer-match/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrSeekerNotFound = errors.New("seeker not found")
	ErrInvalidInput   = errors.New("invalid input")
)

const (
	defaultMatchLimit = 10
	maxMatchLimit     = 100

	// The on-demand fallback path scores without tiering; it always uses the
	// skills-priority weighting.
	fallbackSkillWeight    = 0.7
	fallbackDistanceWeight = 0.3
)

// FallbackWeights overrides the fixed 0.7/0.3 blend on the on-demand path.
// The pair is normalized to sum to 1 before use; durable rows from the batch
// ranker are never re-weighted.
type FallbackWeights struct {
	Skill    float64
	Distance float64
}

type MatchQueryUsecase interface {
	FindForTask(ctx context.Context, taskID uuid.UUID, limit int, weights *FallbackWeights) ([]repository.SeekerMatchRow, error)
	FindForSeeker(ctx context.Context, seekerID uuid.UUID, limit int, weights *FallbackWeights) ([]repository.TaskMatchRow, error)
}

type MatchQuery struct {
	tasks   repository.TaskRepository
	seekers repository.SeekerRepository
	claims  repository.SkillClaimRepository
	demands repository.SkillDemandRepository
	matches repository.MatchRepository
	cache   *cache.Redis

	scorer   match.Scorer
	normKm   float64
	cacheTTL time.Duration
}

func NewMatchQueryUsecase(
	tasks repository.TaskRepository,
	seekers repository.SeekerRepository,
	claims repository.SkillClaimRepository,
	demands repository.SkillDemandRepository,
	matches repository.MatchRepository,
	redis *cache.Redis,
	cfg config.MatchingConfig,
	cacheTTL time.Duration,
) *MatchQuery {
	var scorer match.Scorer = match.SparseScorer{}
	if cfg.Scorer == "hashed" {
		scorer = match.HashedScorer{Dim: cfg.VectorDim}
	}

	return &MatchQuery{
		tasks:    tasks,
		seekers:  seekers,
		claims:   claims,
		demands:  demands,
		matches:  matches,
		cache:    redis,
		scorer:   scorer,
		normKm:   cfg.DistanceNormKm,
		cacheTTL: cacheTTL,
	}
}

func (u *MatchQuery) FindForTask(ctx context.Context, taskID uuid.UUID, limit int, weights *FallbackWeights) ([]repository.SeekerMatchRow, error) {
	limit = normalizeLimit(limit)
	skillW, distW, err := normalizeWeights(weights)
	if err != nil {
		return nil, err
	}

	task, err := u.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	// Custom weights only steer the on-demand path, so the shared cache key
	// would hand other callers a re-weighted result. Bypass redis for them.
	useCache := weights == nil
	key := fmt.Sprintf("matches:task:%s:%d", taskID, limit)
	if useCache {
		var cached []repository.SeekerMatchRow
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			metrics.CacheHits.Inc()
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	rows, err := u.matches.TopForTask(ctx, taskID, limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows, err = u.fallbackForTask(ctx, task, limit, skillW, distW)
		if err != nil {
			return nil, err
		}
	}

	if useCache {
		_ = u.cache.SetJSON(ctx, key, rows, u.cacheTTL)
	}
	return rows, nil
}

func (u *MatchQuery) FindForSeeker(ctx context.Context, seekerID uuid.UUID, limit int, weights *FallbackWeights) ([]repository.TaskMatchRow, error) {
	limit = normalizeLimit(limit)
	skillW, distW, err := normalizeWeights(weights)
	if err != nil {
		return nil, err
	}

	seeker, err := u.seekers.FindByID(ctx, seekerID)
	if err != nil {
		if errors.Is(err, repository.ErrSeekerNotFound) {
			return nil, ErrSeekerNotFound
		}
		return nil, err
	}

	useCache := weights == nil
	key := fmt.Sprintf("matches:seeker:%s:%d", seekerID, limit)
	if useCache {
		var cached []repository.TaskMatchRow
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			metrics.CacheHits.Inc()
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	rows, err := u.matches.TopForSeeker(ctx, seekerID, limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows, err = u.fallbackForSeeker(ctx, seeker, limit, skillW, distW)
		if err != nil {
			return nil, err
		}
	}

	if useCache {
		_ = u.cache.SetJSON(ctx, key, rows, u.cacheTTL)
	}
	return rows, nil
}

// fallbackForTask scores every seeker against the task on the spot when the
// durable cache holds nothing for it (first request before any refresh, or a
// task created since the last one). No tiering: unknown distances score a
// zero distance component instead of dropping the pair, and no cutoffs apply.
func (u *MatchQuery) fallbackForTask(ctx context.Context, task repository.Task, limit int, skillW, distW float64) ([]repository.SeekerMatchRow, error) {
	metrics.FallbackComputations.Inc()

	taskDemands, err := u.demands.FindByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	demandValues := demandSkillValues(taskDemands)

	seekers, err := u.seekers.List(ctx)
	if err != nil {
		return nil, err
	}
	allClaims, err := u.claims.ListClaimed(ctx)
	if err != nil {
		return nil, err
	}
	claimsBySeeker := make(map[uuid.UUID][]match.SkillValue)
	for _, c := range allClaims {
		claimsBySeeker[c.SeekerID] = append(claimsBySeeker[c.SeekerID], match.SkillValue{
			SkillID: c.SkillID,
			Name:    c.SkillName,
			Value:   c.Score,
		})
	}

	taskCoords := coordinates(task.Latitude, task.Longitude)

	out := make([]repository.SeekerMatchRow, 0, len(seekers))
	for _, s := range seekers {
		seekerClaims := claimsBySeeker[s.ID]
		skillScore := u.scorer.Score(seekerClaims, demandValues)

		distanceKm, distanceKnown := match.Distance(taskCoords, coordinates(s.Latitude, s.Longitude))
		combined := match.Combined(skillScore, distanceKm, distanceKnown, skillW, distW, u.normKm)

		out = append(out, repository.SeekerMatchRow{
			SeekerID:      s.ID,
			SeekerName:    s.Name,
			Email:         s.Email,
			SkillScore:    skillScore,
			DistanceKm:    distanceKm,
			CombinedScore: combined,
			MatchedSkills: match.MatchedNames(seekerClaims, demandValues),
			Latitude:      s.Latitude,
			Longitude:     s.Longitude,
			LocationName:  s.LocationName,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (u *MatchQuery) fallbackForSeeker(ctx context.Context, seeker repository.Seeker, limit int, skillW, distW float64) ([]repository.TaskMatchRow, error) {
	metrics.FallbackComputations.Inc()

	seekerClaims, err := u.claims.FindBySeeker(ctx, seeker.ID)
	if err != nil {
		return nil, err
	}
	claimValues := make([]match.SkillValue, 0, len(seekerClaims))
	for _, c := range seekerClaims {
		claimValues = append(claimValues, match.SkillValue{
			SkillID: c.SkillID,
			Name:    c.SkillName,
			Value:   c.Score,
		})
	}

	tasks, err := u.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	allDemands, err := u.demands.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	demandsByTask := make(map[uuid.UUID][]match.SkillValue)
	for _, d := range allDemands {
		demandsByTask[d.TaskID] = append(demandsByTask[d.TaskID], match.SkillValue{
			SkillID: d.SkillID,
			Name:    d.SkillName,
			Value:   d.Weight,
		})
	}

	seekerCoords := coordinates(seeker.Latitude, seeker.Longitude)

	out := make([]repository.TaskMatchRow, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != repository.TaskStatusActive {
			continue
		}
		taskDemands := demandsByTask[t.ID]
		skillScore := u.scorer.Score(claimValues, taskDemands)

		distanceKm, distanceKnown := match.Distance(coordinates(t.Latitude, t.Longitude), seekerCoords)
		combined := match.Combined(skillScore, distanceKm, distanceKnown, skillW, distW, u.normKm)

		out = append(out, repository.TaskMatchRow{
			TaskID:        t.ID,
			TaskName:      t.Name,
			SkillScore:    skillScore,
			DistanceKm:    distanceKm,
			CombinedScore: combined,
			MatchedSkills: match.MatchedNames(claimValues, taskDemands),
			Latitude:      t.Latitude,
			Longitude:     t.Longitude,
			LocationName:  t.LocationName,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func demandSkillValues(demands []repository.SkillDemand) []match.SkillValue {
	out := make([]match.SkillValue, 0, len(demands))
	for _, d := range demands {
		out = append(out, match.SkillValue{
			SkillID: d.SkillID,
			Name:    d.SkillName,
			Value:   d.Weight,
		})
	}
	return out
}

// normalizeWeights scales a caller-supplied pair to sum to 1. A nil pair
// means the fixed defaults; a negative or all-zero pair is rejected.
func normalizeWeights(w *FallbackWeights) (skill, distance float64, err error) {
	if w == nil {
		return fallbackSkillWeight, fallbackDistanceWeight, nil
	}
	if w.Skill < 0 || w.Distance < 0 {
		return 0, 0, fmt.Errorf("%w: weights must be non-negative", ErrInvalidInput)
	}
	sum := w.Skill + w.Distance
	if sum == 0 {
		return 0, 0, fmt.Errorf("%w: at least one weight must be positive", ErrInvalidInput)
	}
	return w.Skill / sum, w.Distance / sum, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultMatchLimit
	}
	if limit > maxMatchLimit {
		return maxMatchLimit
	}
	return limit
}
