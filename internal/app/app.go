// Package app assembles the service: config, logging, store, the
// evaluation gateway, the domain services, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lingualoop/lingualoop/internal/attempt"
	"github.com/lingualoop/lingualoop/internal/config"
	"github.com/lingualoop/lingualoop/internal/dialogue"
	"github.com/lingualoop/lingualoop/internal/llm"
	"github.com/lingualoop/lingualoop/internal/server"
	"github.com/lingualoop/lingualoop/internal/store"
)

// App is the wired service.
type App struct {
	cfg *config.Config
	log *zap.Logger
	st  *store.Store
	srv *http.Server
}

// New wires everything from configuration. The caller owns Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := store.Open(cfg.Database.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	gatewayCfg := cfg.LLM.GatewayConfig()
	if err := gatewayCfg.Validate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("llm config: %w", err)
	}
	gateway, err := llm.NewProvider(ctx, gatewayCfg, st.Events())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	attempts := attempt.NewService(st, log)
	dialogues := dialogue.NewService(st, gateway, dialogue.DefaultConfig(), log)

	router := server.NewRouter(server.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Attempts:  server.NewAttemptHandler(attempts),
		Dialogue:  server.NewDialogueHandler(dialogues),
		Profile:   server.NewProfileHandler(st),
		Log:       log,
	})

	return &App{
		cfg: cfg,
		log: log,
		st:  st,
		srv: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", a.srv.Addr))
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Store exposes the store for maintenance commands.
func (a *App) Store() *store.Store { return a.st }

// Logger exposes the app logger.
func (a *App) Logger() *zap.Logger { return a.log }

// Close releases all resources.
func (a *App) Close() error {
	a.log.Sync() //nolint:errcheck
	return a.st.Close()
}

// NewLogger builds a zap logger from config.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}
