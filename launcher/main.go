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

	"github.com/streamforge-labs/streamforge-go/internal/credentials"
	"github.com/streamforge-labs/streamforge-go/internal/launch"
	"github.com/streamforge-labs/streamforge-go/internal/platform/auth"
	"github.com/streamforge-labs/streamforge-go/internal/platform/cluster"
	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
	"github.com/streamforge-labs/streamforge-go/internal/platform/httpserver"
	"github.com/streamforge-labs/streamforge-go/internal/platform/objectstore"
	"github.com/streamforge-labs/streamforge-go/internal/platform/postgres"
	"github.com/streamforge-labs/streamforge-go/internal/provision"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("STREAMFORGE_LAUNCHER_HTTP_ADDR", ":8090")
	shutdownTimeout, err := env.Duration("STREAMFORGE_LAUNCHER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	profilePath := env.String("STREAMFORGE_LAUNCH_PROFILE", "launch-profile.yaml")
	profile, err := launch.LoadProfile(profilePath)
	if err != nil {
		logger.Error("invalid launch profile", "path", profilePath, "error", err)
		os.Exit(2)
	}
	// heap tuning env vars override the profile
	profile.HeapCutoffRatio, err = env.Float("STREAMFORGE_HEAP_CUTOFF_RATIO", profile.HeapCutoffRatio)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	profile.HeapLimitCapMB, err = env.Int("STREAMFORGE_HEAP_LIMIT_CAP_MB", profile.HeapLimitCapMB)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	if err := profile.Validate(); err != nil {
		logger.Error("invalid launch profile", "path", profilePath, "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	store, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client", "error", err)
		os.Exit(1)
	}
	if err := objectstore.EnsureStagingBucket(ctx, store, storeCfg); err != nil {
		logger.Error("staging bucket unavailable", "error", err)
		os.Exit(1)
	}

	minioStore, err := provision.NewMinioStore(store)
	if err != nil {
		logger.Error("object store adapter", "error", err)
		os.Exit(1)
	}
	provisioner, err := provision.NewProvisioner(minioStore, storeCfg.BucketStaging, logger)
	if err != nil {
		logger.Error("provisioner", "error", err)
		os.Exit(1)
	}

	tokenCfg, err := credentials.TokenServiceConfigFromEnv()
	if err != nil {
		logger.Error("invalid token service config", "error", err)
		os.Exit(2)
	}
	tokenService, err := credentials.NewTokenService(tokenCfg)
	if err != nil {
		logger.Error("token service", "error", err)
		os.Exit(1)
	}
	userTokens := credentials.FileTokenSourceFromEnv()

	clusterCfg, err := cluster.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid cluster config", "error", err)
		os.Exit(2)
	}
	clusterClient, err := cluster.New(clusterCfg)
	if err != nil {
		logger.Error("cluster client", "error", err)
		os.Exit(1)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	var authenticator auth.Authenticator
	switch authCfg.Mode {
	case auth.ModeOIDC:
		authenticator, err = auth.NewBearerAuthenticator(ctx, authCfg)
		if err != nil {
			logger.Error("oidc authenticator", "error", err)
			os.Exit(1)
		}
	default:
		logger.Warn("auth running in dev mode; do not expose this service")
		authenticator = auth.NewDevAuthenticator(authCfg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("launcher"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"launcher",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "objectstore",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
					defer cancel()
					return objectstore.CheckStagingBucket(checkCtx, store, storeCfg)
				},
			},
		),
	)

	api := newLauncherAPI(logger, db, profile, provisioner, tokenService, userTokens, clusterClient)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.RequireRoleForWrites("operator"),
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "launcher",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "launcher", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
