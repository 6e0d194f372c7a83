package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lantechdigital/sinilai/internal/adapters/http/api"
	"github.com/lantechdigital/sinilai/internal/adapters/http/swagger"
	"github.com/lantechdigital/sinilai/internal/adapters/repository"
	service "github.com/lantechdigital/sinilai/internal/app"
	"github.com/lantechdigital/sinilai/internal/config"
	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// A .env file is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
		return
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.NoticeQueueSize),
		service.WithPollInterval(cfg.PollInterval),
		service.WithMaxRecapLimit(cfg.MaxRecapLimit),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	bootstrapAdminKey(ctx, svc, cfg, log)

	apiServer := api.NewServer(svc, svc,
		api.WithJWTSecret(jwtSecret(ctx, cfg, log)),
		api.WithSessionTTL(cfg.SessionTTL),
		api.WithCORSAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	router := apiServer.Router(ctx)
	swagger.Register(ctx, router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore selects the persistence backend: PostgreSQL when a DSN is
// configured, the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn(ctx, "no database_dsn configured; using the in-memory store")
		return repository.NewMemoryStore(), nil
	}

	store, err := repository.OpenGorm(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "connected to PostgreSQL")
	return store, nil
}

// jwtSecret returns the configured signing secret, or an ephemeral one
// when none is set. Ephemeral secrets invalidate sessions on restart.
func jwtSecret(ctx context.Context, cfg *config.Config, log logger.Logger) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	log.Warn(ctx, "jwt_secret not set; sessions will not survive restarts")
	return uuid.NewString()
}

// bootstrapAdminKey registers the configured super-admin access key so a
// fresh deployment can be administered. An existing key is left alone.
func bootstrapAdminKey(ctx context.Context, svc *service.Service, cfg *config.Config, log logger.Logger) {
	if cfg.BootstrapAdminKey == "" {
		return
	}

	_, err := svc.CreateKey(ctx, model.AccessKey{
		Key:  cfg.BootstrapAdminKey,
		Name: "Bootstrap Admin",
		Role: "Super Admin",
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		log.Debug(ctx, "bootstrap admin key already registered")
	case err != nil:
		log.Error(ctx, "failed to register bootstrap admin key", logger.Error(err))
	default:
		log.Info(ctx, "bootstrap admin key registered")
	}
}
