package routes

import (
	"log"

	"volunteer-match/internal/config"
	"volunteer-match/internal/database"
	v1 "volunteer-match/internal/delivery/http/routes/v1"
	"volunteer-match/internal/infrastructure/cache"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, cfg config.Config, db database.DB, redis *cache.Redis, logger *log.Logger) {
	if r == nil {
		return
	}

	v1.Register(r, cfg, db, redis, logger)
}
