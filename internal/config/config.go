package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"projecthub/internal/util"
)

const devSecret = "projecthub-dev-secret"

// Config holds all runtime settings of the server.
type Config struct {
	Addr        string
	DatabaseURL string
	StaticDir   string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    zapcore.Level
	Seed        bool
	CORSOrigin  string
	InsecureJWT bool
}

// Load reads configuration from a .env file, the environment and finally
// command line flags, later sources overriding earlier ones.
func Load(args []string) (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	fs := flag.NewFlagSet("projecthub", flag.ContinueOnError)
	addr := fs.String("addr", util.EnvOrDefault("PROJECTHUB_ADDR", ":8080"), "HTTP listen address")
	dsn := fs.String("db", util.EnvOrDefault("DATABASE_URL", "data/projecthub.db"), "SQLite file path or postgres:// URL")
	static := fs.String("static", util.EnvOrDefault("PROJECTHUB_STATIC_DIR", "web/dist"), "Directory with built frontend")
	level := fs.String("log-level", util.EnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	seed := fs.Bool("seed", util.EnvBool("PROJECTHUB_SEED", true), "Load demo data into an empty database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:        *addr,
		DatabaseURL: *dsn,
		StaticDir:   *static,
		JWTSecret:   util.EnvOrDefault("JWT_SECRET", ""),
		JWTTTL:      util.EnvDuration("JWT_TTL", 24*time.Hour),
		Seed:        *seed,
		CORSOrigin:  util.EnvOrDefault("CORS_ORIGIN", "*"),
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(*level))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", *level, err)
	}
	cfg.LogLevel = lvl

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devSecret
		cfg.InsecureJWT = true
	}
	return cfg, nil
}
