package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"volunteer-match/internal/config"
	dbpostgres "volunteer-match/internal/database/postgres"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/pkg/logger"
	"volunteer-match/internal/repository"
	"volunteer-match/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a refresh once, or periodically with --interval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().DurationVarP(&flagInterval, "interval", "i", 0,
		"re-run the refresh on this interval; zero means run once and exit")
}

func run(ctx context.Context) error {
	log, err := logger.New(flagJSON, flagDebug)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	dbCfg := config.LoadDatabase()
	matchCfg := config.LoadMatching()
	redisCfg := config.LoadRedis()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := dbpostgres.Connect(connectCtx, dbCfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	log.Info("starting the matcher",
		zap.String("scorer", matchCfg.Scorer),
		zap.Float64("max_distance_km", matchCfg.MaxDistanceKm),
		zap.Float64("min_score", matchCfg.MinScore),
		zap.Duration("interval", flagInterval),
	)

	stdLog := zap.NewStdLog(log)
	redis := cache.NewRedis(redisCfg, stdLog)

	refresh := usecase.NewMatchRefreshUsecase(
		repository.NewPostgresTaskRepository(db),
		repository.NewPostgresSeekerRepository(db),
		repository.NewPostgresSkillClaimRepository(db),
		repository.NewPostgresSkillDemandRepository(db),
		repository.NewPostgresMatchRepository(db),
		repository.NewPostgresEnrollmentRepository(db),
		redis,
		matchCfg,
		stdLog,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := refreshOnce(ctx, refresh, log); err != nil {
		return err
	}
	if flagInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(flagInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", zap.String("reason", "signal received"))
			return nil
		case <-ticker.C:
			if err := refreshOnce(ctx, refresh, log); err != nil {
				// Keep the schedule alive; the next tick retries.
				log.Error("refresh failed", zap.Error(err))
			}
		}
	}
}

func refreshOnce(ctx context.Context, refresh usecase.MatchRefreshUsecase, log *zap.Logger) error {
	start := time.Now()
	records, err := refresh.Refresh(ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrRefreshInProgress) {
			log.Warn("refresh skipped", zap.String("reason", "another refresh holds the lock"))
			return nil
		}
		return err
	}

	log.Info("refresh complete",
		zap.Int64("records", records),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
