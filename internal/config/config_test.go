package config

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DatabaseURL != "data/projecthub.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.JWTTTL)
	}
	if !cfg.InsecureJWT || cfg.JWTSecret == "" {
		t.Fatalf("missing secret should fall back to the dev secret")
	}
	if cfg.LogLevel != zapcore.InfoLevel {
		t.Fatalf("level = %v", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PROJECTHUB_ADDR", ":9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load([]string{"-addr", ":7000", "-seed=false"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("flag should win over env, got %s", cfg.Addr)
	}
	if cfg.Seed {
		t.Fatalf("seed flag ignored")
	}
	if cfg.InsecureJWT || cfg.JWTSecret != "s3cret" {
		t.Fatalf("secret not taken from env")
	}
	if cfg.LogLevel != zapcore.DebugLevel {
		t.Fatalf("level = %v", cfg.LogLevel)
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	if _, err := Load([]string{"-log-level", "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
