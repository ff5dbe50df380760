package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/albedo-dev/albedo/internal/api"
	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/config"
	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/logutil"
	"github.com/albedo-dev/albedo/internal/notify"
	"github.com/albedo-dev/albedo/internal/observability"
	"github.com/albedo-dev/albedo/internal/query"
	"github.com/albedo-dev/albedo/internal/resource"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logutil.Setup(cfg.Logging, cfg.IsDevelopment())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := database.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	// Redis backs the token blacklist; without it a single-process
	// in-memory blacklist is used.
	var blacklist auth.TokenBlacklist = auth.NewMemoryBlacklist()
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		blacklist = auth.NewRedisBlacklist(redisClient)
		log.Info().Str("address", cfg.Redis.Address).Msg("token blacklist backed by redis")
	} else {
		log.Warn().Msg("redis not configured, token blacklist is in-memory only")
	}

	authSvc := auth.NewService(
		auth.NewPgUserRepository(pool),
		auth.NewPgPasswordResetRepository(pool),
		auth.NewPgAccessLogRepository(pool),
		blacklist,
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry),
		cfg.Auth,
		cfg.IsDevelopment(),
	)

	registry := resource.NewRegistry()
	limits := query.Limits{
		DefaultPageSize: cfg.API.DefaultPageSize,
		MaxPageSize:     cfg.API.MaxPageSize,
	}
	newService := func(desc *resource.Descriptor) *resource.Service {
		return resource.NewService(desc, resource.NewRepository(pool, desc), limits)
	}

	var notifier httperr.Notifier
	telegram := notify.NewTelegramNotifier(cfg.Telegram)
	if telegram.Enabled() {
		notifier = telegram
	}

	healthChecks := map[string]api.HealthCheck{
		"database": pool.Ping,
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	server := api.NewServer(api.Deps{
		Config:       cfg,
		AuthService:  authSvc,
		Users:        newService(registry.Users),
		Assistants:   newService(registry.Assistants),
		Entities:     newService(registry.Entities),
		Cities:       newService(registry.Cities),
		Notifier:     notifier,
		Metrics:      observability.NewMetrics(),
		HealthChecks: healthChecks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
