package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamforge-labs/streamforge-go/internal/coordinator"
	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
	"github.com/streamforge-labs/streamforge-go/internal/platform/httpserver"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("STREAMFORGE_STATUS_HTTP_ADDR", ":8091")
	shutdownTimeout, err := env.Duration("STREAMFORGE_STATUS_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	coordCfg, err := coordinator.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid coordinator config", "error", err)
		os.Exit(2)
	}

	// resolution failure is fatal: without a live coordinator reference
	// every status query would be a lie
	client, err := coordinator.Resolve(ctx, coordCfg, logger)
	if err != nil {
		logger.Error("coordinator unavailable", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("status"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"status",
			httpserver.ReadinessCheck{
				Name: "coordinator",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
					defer cancel()
					if outcome := client.ListRunningJobs(checkCtx); outcome.Kind != coordinator.OutcomeSuccess {
						return errors.New(outcome.Message)
					}
					return nil
				},
			},
		),
	)

	api := newStatusAPI(logger, client)
	api.register(mux)

	cfg := httpserver.Config{
		Service:         "status",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "status", mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
