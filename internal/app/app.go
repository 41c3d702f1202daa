package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/studyvault-backend/internal/audit"
	"github.com/heartmarshall/studyvault-backend/internal/audit/rulepack"
	"github.com/heartmarshall/studyvault-backend/internal/auth"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/observability"
	"github.com/heartmarshall/studyvault-backend/internal/service/catalog"
	"github.com/heartmarshall/studyvault-backend/internal/service/moderation"
	"github.com/heartmarshall/studyvault-backend/internal/service/workspace"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"github.com/heartmarshall/studyvault-backend/internal/transport/middleware"
	"github.com/heartmarshall/studyvault-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// store, replays interrupted writes and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage_backend", cfg.Storage.Backend),
	)

	metrics := observability.NewMetrics(nil)

	store, closeStore, err := OpenStore(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeStore()

	repaired, err := store.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover store: %w", err)
	}
	if repaired > 0 {
		logger.Warn("replayed interrupted writes", slog.Int("count", repaired))
	}

	auditor, err := NewAuditor(cfg.Audit)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := NewRouter(
		NewHandlers(cfg, logger, store, auditor, metrics),
		RouterDeps{
			Config:  cfg,
			Logger:  logger,
			Tokens:  auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
			Limiter: limiter,
		},
	)

	return serve(ctx, cfg.Server, handler, logger)
}

// NewAuditor builds the content auditor with the embedded rule pack merged
// with the optional rules file.
func NewAuditor(cfg config.AuditConfig) (*audit.Auditor, error) {
	rules, err := rulepack.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load audit rules: %w", err)
	}
	return audit.New(rules), nil
}

// NewHandlers creates the services over store and their REST handlers.
func NewHandlers(cfg *config.Config, logger *slog.Logger, store *storage.Store, auditor *audit.Auditor, metrics *observability.Metrics) Handlers {
	workspaceService := workspace.NewService(logger, store)
	catalogService := catalog.NewService(logger, store)
	moderationService := moderation.NewService(logger, store, auditor, metrics)

	return Handlers{
		Health:     rest.NewHealthHandler(store, BuildVersion()),
		Workspace:  rest.NewWorkspaceHandler(workspaceService, catalogService, logger),
		Moderation: rest.NewModerationHandler(moderationService, cfg.Moderation.MaxBodyBytes, logger),
		Admin:      rest.NewAdminHandler(workspaceService, logger),
		Metrics:    metrics.Handler(),
	}
}

func serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
