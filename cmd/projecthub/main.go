package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"projecthub/internal/auth"
	"projecthub/internal/config"
	"projecthub/internal/logger"
	"projecthub/internal/server"
	"projecthub/internal/storage"
)

func newConfig() (config.Config, error) {
	return config.Load(os.Args[1:])
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func newStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*storage.Store, error) {
	store, err := storage.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func newTokens(cfg config.Config, log *zap.Logger) (*auth.Tokens, error) {
	if cfg.InsecureJWT {
		log.Warn("JWT_SECRET is not set; using the development secret")
	}
	return auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
}

func newServer(cfg config.Config, store *storage.Store, tokens *auth.Tokens, log *zap.Logger) *server.Server {
	return server.New(store, tokens, log, server.Options{
		StaticDir:  cfg.StaticDir,
		CORSOrigin: cfg.CORSOrigin,
	})
}

// seedDemoData loads the demo fixture into an empty database when enabled.
func seedDemoData(cfg config.Config, store *storage.Store, log *zap.Logger) error {
	if !cfg.Seed {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	loaded, err := store.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if !loaded {
		log.Debug("database already populated; skipping demo data")
	}
	return nil
}

func serverLifecycle(lc fx.Lifecycle, cfg config.Config, srv *server.Server, log *zap.Logger) {
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting server", zap.String("addr", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown server: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newStore,
			newTokens,
			newServer,
		),
		fx.Invoke(
			seedDemoData,
			serverLifecycle,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			zlogger := fxevent.ZapLogger{Logger: log}
			zlogger.UseLogLevel(zap.DebugLevel)
			return &zlogger
		}),
	)
	app.Run()
}
