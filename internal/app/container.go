package app

import (
	"context"
	"log"
	"time"

	"volunteer-match/internal/config"
	"volunteer-match/internal/database"
	"volunteer-match/internal/database/migration"
	dbpostgres "volunteer-match/internal/database/postgres"
	"volunteer-match/internal/database/seeder"
	"volunteer-match/internal/infrastructure/cache"
	"volunteer-match/internal/repository"
)

type Container struct {
	Config config.Config
	DB     database.DB
	Redis  *cache.Redis
	Logger *log.Logger
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := (migration.Runner{Dir: "migrations"}).Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Database.RunSeeders {
		if err := seeder.SeedSkills(ctx, repository.NewPostgresSkillRepository(db), logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	redis := cache.NewRedis(cfg.Redis, logger)

	return &Container{Config: cfg, DB: db, Redis: redis, Logger: logger}, nil
}

func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
