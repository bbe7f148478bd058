package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_PATH", "CACHE_TTL", "AUTH_REQUIRED", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" || cfg.DSN() != "./data/dorm.db" {
		t.Errorf("unexpected database settings: %s %s", cfg.DBDriver, cfg.DSN())
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.AuthRequired {
		t.Error("AuthRequired should default to false")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DATABASE_URL", "root:pw@tcp(db:3306)/dorm")
	t.Setenv("AUTO_RECOMPUTE", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DB_QUERY_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()
	if cfg.DBDriver != "mysql" || cfg.DSN() != "root:pw@tcp(db:3306)/dorm" {
		t.Errorf("unexpected database settings: %s %s", cfg.DBDriver, cfg.DSN())
	}
	if !cfg.AutoRecompute {
		t.Error("AutoRecompute should be true")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v", cfg.RateLimitRPS)
	}
	if cfg.DBQueryTimeout != 5*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.DBQueryTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}
