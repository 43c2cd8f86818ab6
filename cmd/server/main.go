package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clausewise.app/review/common/id"
	"clausewise.app/review/common/logger"
	"clausewise.app/review/common/otel"
	"clausewise.app/review/core/config"
	"clausewise.app/review/internal/http/middleware"
	httprouter "clausewise.app/review/internal/http/router"
	"clausewise.app/review/internal/service"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Print(banner)

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("review server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The production log handler exports through the OTel provider, so
	// telemetry comes up before the logger.
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "review server starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"otel", telemetry != nil,
		"tracker", cfg.Tracker.Provider)

	if err := id.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("initializing snowflake id generator: %w", err)
	}

	services, cleanup, err := service.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building services: %w", err)
	}
	defer cleanup()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
	return nil
}

// writeTimeout covers the analysis call, the draft call and task creation
// (directory lookup plus the create request) in one request.
func writeTimeout(cfg config.Config) time.Duration {
	return 2*cfg.LLM.Timeout + 2*cfg.Tracker.Timeout + 15*time.Second
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// OTel span first so recovery and request logs carry the trace ids.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery(), middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	return router
}

const banner = `
 clausewise review server
 ------------------------

`
