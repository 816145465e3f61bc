package v1

import (
	"log"

	"volunteer-match/internal/config"
	"volunteer-match/internal/database"
	"volunteer-match/internal/delivery/http/handler"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/repository"
	"volunteer-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func Register(r fiber.Router, cfg config.Config, db database.DB, redis *cache.Redis, logger *log.Logger) {
	if r == nil {
		return
	}

	taskRepo := repository.NewPostgresTaskRepository(db)
	seekerRepo := repository.NewPostgresSeekerRepository(db)
	claimRepo := repository.NewPostgresSkillClaimRepository(db)
	demandRepo := repository.NewPostgresSkillDemandRepository(db)
	matchRepo := repository.NewPostgresMatchRepository(db)
	enrollmentRepo := repository.NewPostgresEnrollmentRepository(db)

	queryUC := usecase.NewMatchQueryUsecase(
		taskRepo, seekerRepo, claimRepo, demandRepo, matchRepo,
		redis, cfg.Matching, cfg.Redis.TTL,
	)
	refreshUC := usecase.NewMatchRefreshUsecase(
		taskRepo, seekerRepo, claimRepo, demandRepo, matchRepo, enrollmentRepo,
		redis, cfg.Matching, logger,
	)
	enrollmentUC := usecase.NewEnrollmentUsecase(enrollmentRepo, seekerRepo, taskRepo)

	matchHandler := handler.NewMatchHandler(queryUC, refreshUC)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentUC)

	matchHandler.RegisterRoutes(r)
	enrollmentHandler.RegisterRoutes(r)
}
