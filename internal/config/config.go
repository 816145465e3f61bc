package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Matching MatchingConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration

	RunSeeders bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

// MatchingConfig carries the tunables of the tiered ranker. Zero or invalid
// values are replaced with the defaults below at load time.
type MatchingConfig struct {
	// Scorer selects the skill similarity backend: "sparse" (default) or
	// "hashed" for parity with the legacy fixed-dimension sketch.
	Scorer    string
	VectorDim int

	MaxDistanceKm  float64
	MinScore       float64
	DistanceNormKm float64

	// Regions is the named-region list for the same-region override.
	// Empty means the built-in default list.
	Regions []string

	RefreshLockTTL time.Duration
}

const (
	DefaultVectorDim      = 1000
	DefaultMaxDistanceKm  = 500.0
	DefaultMinScore       = 0.1
	DefaultDistanceNormKm = 100.0
	DefaultRefreshLockTTL = 15 * time.Minute
)

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = LoadDatabase()

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      envDuration("REDIS_TTL", 10*time.Minute),
	}

	cfg.Matching = LoadMatching()

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

// LoadDatabase loads only the database section; the matcher CLI uses it
// without requiring the HTTP server variables.
func LoadDatabase() DatabaseConfig {
	_ = godotenv.Load()

	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	return DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        envDuration("DB_CONNECT_TIMEOUT", 0),
		PoolMaxConns:          int32(envInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(envInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   envDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   envDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: envDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),

		RunSeeders: envBool("DB_RUN_SEEDERS", false),
	}
}

// LoadRedis loads only the redis section.
func LoadRedis() RedisConfig {
	_ = godotenv.Load()

	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	return RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      envDuration("REDIS_TTL", 10*time.Minute),
	}
}

// LoadMatching loads only the matching tunables.
func LoadMatching() MatchingConfig {
	mc := MatchingConfig{
		Scorer:         strings.ToLower(strings.TrimSpace(os.Getenv("MATCH_SCORER"))),
		VectorDim:      envInt("MATCH_VECTOR_DIM", DefaultVectorDim),
		MaxDistanceKm:  envFloat("MATCH_MAX_DISTANCE_KM", DefaultMaxDistanceKm),
		MinScore:       envFloat("MATCH_MIN_SCORE", DefaultMinScore),
		DistanceNormKm: envFloat("MATCH_DISTANCE_NORM_KM", DefaultDistanceNormKm),
		Regions:        envCSV("MATCH_REGIONS"),
		RefreshLockTTL: envDuration("MATCH_REFRESH_LOCK_TTL", DefaultRefreshLockTTL),
	}

	if mc.Scorer == "" {
		mc.Scorer = "sparse"
	}
	if mc.VectorDim <= 0 {
		mc.VectorDim = DefaultVectorDim
	}
	if mc.MaxDistanceKm <= 0 {
		mc.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if mc.MinScore < 0 {
		mc.MinScore = DefaultMinScore
	}
	if mc.DistanceNormKm <= 0 {
		mc.DistanceNormKm = DefaultDistanceNormKm
	}
	if mc.RefreshLockTTL <= 0 {
		mc.RefreshLockTTL = DefaultRefreshLockTTL
	}

	return mc
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func envCSV(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
