package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"volunteer-match/internal/config"
	"volunteer-match/internal/domain/enrollment"
	"volunteer-match/internal/domain/match"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/pkg/metrics"
	"volunteer-match/internal/repository"
	"volunteer-match/internal/worker"

	"github.com/google/uuid"
)

var ErrRefreshInProgress = errors.New("match refresh already in progress")

// refreshLockKey lives outside the matches:* namespace so that invalidating
// the query cache cannot release a held lock.
const refreshLockKey = "locks:match_refresh"

type MatchRefreshUsecase interface {
	// Refresh recomputes the full ranking cache and atomically replaces its
	// contents. Returns the number of records written.
	Refresh(ctx context.Context) (int64, error)
}

type MatchRefresh struct {
	tasks       repository.TaskRepository
	seekers     repository.SeekerRepository
	claims      repository.SkillClaimRepository
	demands     repository.SkillDemandRepository
	matches     repository.MatchRepository
	enrollments repository.EnrollmentRepository
	cache       *cache.Redis

	scorer  match.Scorer
	params  match.Params
	policy  match.RegionPolicy
	lockTTL time.Duration

	logger  *log.Logger
	running atomic.Bool
}

func NewMatchRefreshUsecase(
	tasks repository.TaskRepository,
	seekers repository.SeekerRepository,
	claims repository.SkillClaimRepository,
	demands repository.SkillDemandRepository,
	matches repository.MatchRepository,
	enrollments repository.EnrollmentRepository,
	redis *cache.Redis,
	cfg config.MatchingConfig,
	logger *log.Logger,
) *MatchRefresh {
	var scorer match.Scorer = match.SparseScorer{}
	if cfg.Scorer == "hashed" {
		scorer = match.HashedScorer{Dim: cfg.VectorDim}
	}

	params := match.DefaultParams()
	params.MaxDistanceKm = cfg.MaxDistanceKm
	params.MinCombinedScore = cfg.MinScore
	params.DistanceNormKm = cfg.DistanceNormKm

	return &MatchRefresh{
		tasks:       tasks,
		seekers:     seekers,
		claims:      claims,
		demands:     demands,
		matches:     matches,
		enrollments: enrollments,
		cache:       redis,
		scorer:      scorer,
		params:      params,
		policy:      match.NewNamedRegionPolicy(cfg.Regions),
		lockTTL:     cfg.RefreshLockTTL,
		logger:      logger,
	}
}

func (u *MatchRefresh) Refresh(ctx context.Context) (int64, error) {
	if !u.running.CompareAndSwap(false, true) {
		return 0, ErrRefreshInProgress
	}
	defer u.running.Store(false)

	lockValue := uuid.NewString()
	locked, err := u.cache.SetIfNotExists(ctx, refreshLockKey, lockValue, u.lockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !locked {
		return 0, ErrRefreshInProgress
	}
	// A run that outlives the lock TTL must not release its successor's
	// lock, so the release is guarded on the value we wrote.
	defer func() {
		_ = u.cache.ReleaseIfValue(context.WithoutCancel(ctx), refreshLockKey, lockValue)
	}()

	start := time.Now()
	inserted, err := u.refresh(ctx)
	metrics.ObserveRefresh(time.Since(start), inserted, err)
	if err != nil {
		return 0, err
	}

	if u.logger != nil {
		u.logger.Printf("[Matcher] Refresh complete records=%d elapsed=%s", inserted, time.Since(start).Round(time.Millisecond))
	}
	return inserted, nil
}

func (u *MatchRefresh) refresh(ctx context.Context) (int64, error) {
	tasks, err := u.tasks.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}
	seekers, err := u.seekers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load seekers: %w", err)
	}
	claims, err := u.claims.ListClaimed(ctx)
	if err != nil {
		return 0, fmt.Errorf("load skill claims: %w", err)
	}
	demands, err := u.demands.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load skill demands: %w", err)
	}
	enrolledPairs, err := u.enrollments.ListPairsByStatus(ctx, enrollment.StatusEnrolled)
	if err != nil {
		return 0, fmt.Errorf("load enrolled pairs: %w", err)
	}

	claimsBySeeker := make(map[uuid.UUID][]match.SkillValue)
	for _, c := range claims {
		claimsBySeeker[c.SeekerID] = append(claimsBySeeker[c.SeekerID], match.SkillValue{
			SkillID: c.SkillID,
			Name:    c.SkillName,
			Value:   c.Score,
		})
	}

	demandsByTask := make(map[uuid.UUID][]match.SkillValue)
	for _, d := range demands {
		demandsByTask[d.TaskID] = append(demandsByTask[d.TaskID], match.SkillValue{
			SkillID: d.SkillID,
			Name:    d.SkillName,
			Value:   d.Weight,
		})
	}

	enrolled := make(map[repository.Pair]struct{}, len(enrolledPairs))
	for _, p := range enrolledPairs {
		enrolled[p] = struct{}{}
	}

	// Seekers without coordinates never enter the ranking.
	candidates := make([]repository.Seeker, 0, len(seekers))
	for _, s := range seekers {
		if s.Latitude != nil && s.Longitude != nil {
			candidates = append(candidates, s)
		}
	}

	var (
		mu      sync.Mutex
		records []repository.MatchRecord
	)
	computedAt := time.Now().UTC()

	pool := worker.NewPool(runtime.NumCPU(), len(tasks))
	results := pool.Run(ctx)

	for _, t := range tasks {
		if t.Status != repository.TaskStatusActive {
			continue
		}
		task := t
		pool.Submit(func(ctx context.Context) error {
			recs := u.rankTask(task, candidates, claimsBySeeker, demandsByTask[task.ID], enrolled, computedAt)
			if len(recs) == 0 {
				return nil
			}
			mu.Lock()
			records = append(records, recs...)
			mu.Unlock()
			return nil
		})
	}
	pool.Close()

	// Drain fully even after a failure: returning early would strand workers
	// blocked on the results channel.
	var runErr error
	for res := range results {
		if res.Err != nil && runErr == nil {
			runErr = res.Err
		}
	}
	if runErr != nil {
		return 0, runErr
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CombinedScore > records[j].CombinedScore
	})

	inserted, err := u.matches.ReplaceAll(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("replace match cache: %w", err)
	}

	if err := u.cache.DeleteByPattern(ctx, "matches:*"); err != nil && u.logger != nil {
		u.logger.Printf("[Matcher] Query cache invalidation failed: %v", err)
	}

	return inserted, nil
}

func (u *MatchRefresh) rankTask(
	task repository.Task,
	seekers []repository.Seeker,
	claimsBySeeker map[uuid.UUID][]match.SkillValue,
	taskDemands []match.SkillValue,
	enrolled map[repository.Pair]struct{},
	computedAt time.Time,
) []repository.MatchRecord {
	taskCoords := coordinates(task.Latitude, task.Longitude)
	taskLoc := deref(task.LocationName)

	out := make([]repository.MatchRecord, 0, len(seekers))
	for _, s := range seekers {
		if _, ok := enrolled[repository.Pair{SeekerID: s.ID, TaskID: task.ID}]; ok {
			continue
		}

		seekerClaims := claimsBySeeker[s.ID]
		skillScore := u.scorer.Score(seekerClaims, taskDemands)

		distanceKm, distanceKnown := match.Distance(taskCoords, coordinates(s.Latitude, s.Longitude))
		combined, ok := match.Rank(u.params, u.policy, taskLoc, deref(s.LocationName), skillScore, distanceKm, distanceKnown)
		if !ok {
			continue
		}

		out = append(out, repository.MatchRecord{
			TaskID:        task.ID,
			SeekerID:      s.ID,
			SkillScore:    skillScore,
			DistanceKm:    distanceKm,
			CombinedScore: combined,
			MatchedSkills: match.MatchedNames(seekerClaims, taskDemands),
			ComputedAt:    computedAt,
		})
	}
	return out
}

func coordinates(lat, lon *float64) *match.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &match.Coordinates{Latitude: *lat, Longitude: *lon}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
