// Package main is the entry point for the checklist backend server binary.
// It dispatches two subcommands, serve and version, via a simple switch on
// os.Args so the binary's full CLI surface is readable in one place without
// requiring a cobra dependency.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/checklist-rve/checklist-rve/internal/api"
	"github.com/checklist-rve/checklist-rve/internal/auth"
	"github.com/checklist-rve/checklist-rve/internal/config"
	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
	"github.com/checklist-rve/checklist-rve/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	// Parse command from args
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "serve":
		configPath := os.Getenv("CONFIG_PATH")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cfg)
	case "version":
		fmt.Printf("Checklist RVE backend v%s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, version", command)
	}
}

func serve(cfg *config.Config) error {
	// Initialise structured logger as early as possible so all subsequent log
	// output uses the configured format (json / text) and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Validate JWT secret configuration (fails in production if not set)
	if err := auth.ValidateJWTSecret(); err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}
	slog.Info("JWT secret validated")

	// Connect to the key-value store
	store, err := kv.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize kv backend: %w", err)
	}
	defer store.Close()
	slog.Info("kv backend initialized", "backend", cfg.KV.Backend)

	// Begin exporting Redis pool statistics to Prometheus.
	if rs, ok := store.(*kv.RedisStore); ok {
		telemetry.StartKVStatsCollector(rs.Client())
	}

	// Create the bootstrap administrator if configured and absent
	if err := bootstrapAdmin(cfg, store); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	// Start Prometheus metrics endpoint on a dedicated port so it is not
	// reachable through the public API ingress path.
	if cfg.Telemetry.MetricsEnabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	// Create router
	router, bgServices := api.NewRouter(cfg, store)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("starting server",
			"addr", cfg.Server.GetAddress(),
			"public_url", cfg.Server.GetPublicURL(),
			"kv_backend", cfg.KV.Backend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Stop background jobs and rate limiter goroutines
	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}

// bootstrapAdmin creates the configured first-run administrator account.
// It is a no-op when no bootstrap email is configured or the account already
// exists, so restarts are harmless.
func bootstrapAdmin(cfg *config.Config, store kv.Store) error {
	if cfg.Auth.Bootstrap.Email == "" {
		return nil
	}

	ctx := context.Background()
	userRepo := repositories.NewUserRepository(store, cfg.Auth.BcryptCost)

	_, err := userRepo.Register(ctx,
		cfg.Auth.Bootstrap.Email,
		cfg.Auth.Bootstrap.Password,
		models.RoleAdmin,
		cfg.Auth.Bootstrap.Name,
	)
	switch {
	case err == nil:
		slog.Info("bootstrap administrator created", "email", cfg.Auth.Bootstrap.Email)
		return nil
	case errors.Is(err, repositories.ErrAlreadyExists):
		slog.Debug("bootstrap administrator already exists", "email", cfg.Auth.Bootstrap.Email)
		return nil
	default:
		return err
	}
}
