package routes

import (
	"log"

	"volunteer-match/internal/config"
	"volunteer-match/internal/database"
	"volunteer-match/internal/delivery/http/handler"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/pkg/metrics"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

type Registry struct {
	cfg    config.Config
	db     database.DB
	redis  *cache.Redis
	logger *log.Logger

	health *handler.HealthHandler
}

func NewRegistry(cfg config.Config, db database.DB, redis *cache.Redis, logger *log.Logger) *Registry {
	return &Registry{
		cfg:    cfg,
		db:     db,
		redis:  redis,
		logger: logger,
		health: handler.NewHealthHandler(db, redis),
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.cfg, r.db, r.redis, r.logger)
}
