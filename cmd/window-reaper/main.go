package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilink/scheduling/internal/config"
	"github.com/medilink/scheduling/internal/db"
	"github.com/medilink/scheduling/internal/logging"
	redisclient "github.com/medilink/scheduling/internal/redis"
	"github.com/medilink/scheduling/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("dev", "window-reaper")
		fallback.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, "window-reaper")
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.ReaperInterval).
		Dur("retention", cfg.WindowRetention).
		Msg("window-reaper starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()

	repo := scheduling.NewPgRepository(pgPool)
	locker := redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL)
	svc := scheduling.NewService(repo, locker, cfg, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping window reaper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *scheduling.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.ReapDeactivatedWindows(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("reap run error")
		return
	}
	log.Info().Int64("purged", n).Dur("took", time.Since(start)).Msg("reap run complete")
}
