package handler

import (
	"context"
	"time"

	"volunteer-match/internal/database"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	db    database.DB
	redis *cache.Redis
}

func NewHealthHandler(db database.DB, redis *cache.Redis) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	if app == nil {
		return
	}
	app.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if h.db == nil || h.db.Ping(ctx) != nil {
		dbStatus = "down"
	}

	// Redis is optional; report but never fail the check on it.
	redisStatus := "up"
	if h.redis == nil || h.redis.Ping(ctx) != nil {
		redisStatus = "down"
	}

	status := fiber.StatusOK
	msg := response.MessageOK
	if dbStatus == "down" {
		status = fiber.StatusServiceUnavailable
		msg = "service unavailable"
	}

	return response.Success(c, status, msg, fiber.Map{
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
