package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env                  string
	ServerAddr           string
	LogLevel             slog.Level
	StoreDriver          string
	MongoURI             string
	MongoDB              string
	DatabaseURL          string
	FrontendOrigins      []string
	RateLimitBookings    int
	RateLimitWindowSec   int
	RedisURL             string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	CacheTTLSeconds      int
	JWTSecret            string
	AccessTTLMinutes     int
	SweepIntervalSeconds int
	Timezone             *time.Location
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// Load reads the process environment, filling unset keys from .env when the
// file exists.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	loc, err := time.LoadLocation(getEnv("TZ", "Africa/Kinshasa"))
	if err != nil {
		return nil, err
	}

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017/consult?replicaSet=rs0")
	mongoDB := getEnv("MONGO_DB", "")
	if mongoDB == "" {
		mongoDB = mongoDBFromURI(mongoURI)
	}
	if mongoDB == "" {
		mongoDB = "consult"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		ServerAddr:           getEnv("SERVER_ADDR", ":8080"),
		LogLevel:             level,
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:             mongoURI,
		MongoDB:              mongoDB,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		FrontendOrigins:      splitList(getEnv("FRONTEND_ORIGIN", "http://localhost:3000")),
		RateLimitBookings:    getEnvInt("RATE_LIMIT_BOOKINGS", 10),
		RateLimitWindowSec:   getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds:      getEnvInt("CACHE_TTL_SECONDS", 60),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AccessTTLMinutes:     getEnvInt("ACCESS_TTL_MINUTES", 60),
		SweepIntervalSeconds: getEnvInt("SWEEP_INTERVAL_SECONDS", 0),
		Timezone:             loc,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// only the first path segment names the database
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
