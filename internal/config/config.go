// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-only-insecure-jwt-secret-change-me"

// Config holds every setting the server reads at startup.
type Config struct {
	Port string

	// Database
	DBDriver       string
	DBPath         string
	DatabaseURL    string
	DBMaxOpenConns int
	DBQueryTimeout time.Duration
	DBSlowQuery    time.Duration

	// Auth
	JWTSecret     string
	TokenDuration time.Duration
	AuthRequired  bool

	// Aggregation
	AutoRecompute bool
	CacheTTL      time.Duration

	// HTTP
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the process environment. Invalid
// values fall back to their defaults with a warning.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using environment only", "error", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:         getEnv("DB_PATH", "./data/dorm.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBQueryTimeout: getEnvAsDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		DBSlowQuery:    getEnvAsDuration("DB_SLOW_QUERY", 200*time.Millisecond),
		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		TokenDuration:  getEnvAsDuration("TOKEN_DURATION", 24*time.Hour),
		AuthRequired:   getEnvAsBool("AUTH_REQUIRED", false),
		AutoRecompute:  getEnvAsBool("AUTO_RECOMPUTE", false),
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("Using default insecure JWT_SECRET. Set JWT_SECRET for production.")
	}
	if cfg.DBDriver != "sqlite" && cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL is empty for a network database", "driver", cfg.DBDriver)
	}
	return cfg
}

// DSN returns the connection target for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return c.DatabaseURL
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		slog.Warn("Invalid integer value, using default", "key", key, "value", s, "default", fallback)
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		slog.Warn("Invalid number value, using default", "key", key, "value", s, "default", fallback)
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		slog.Warn("Invalid boolean value, using default", "key", key, "value", s, "default", fallback)
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("Invalid duration value, using default", "key", key, "value", s, "default", fallback.String())
		return fallback
	}
	return v
}

func getEnvAsList(key string, fallback []string) []string {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
