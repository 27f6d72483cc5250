// Package main is the entry point for the readiness-hub background worker.
//
// The worker owns the scheduled jobs:
//   - re-scoring assessments whose current score predates the active ruleset
//   - rebuilding the Redis score board from the persisted current scores
//
// It shares the persistence layer with the API server but exposes no
// network surface of its own.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/venturehub/readiness-hub/config"
	"github.com/venturehub/readiness-hub/internal/application/command"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
	"github.com/venturehub/readiness-hub/internal/infrastructure/messaging"
	"github.com/venturehub/readiness-hub/internal/infrastructure/persistence/postgres"
	"github.com/venturehub/readiness-hub/internal/infrastructure/persistence/redis"
	"github.com/venturehub/readiness-hub/internal/infrastructure/scheduler"
	"github.com/venturehub/readiness-hub/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting readiness-hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker has nothing to do, exiting")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.Migrate {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	log.Info("database ready")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional: score board + distributed job lock)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var scoreCache *redis.ScoreCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, jobs run without lock and board rebuild", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			scoreCache = redis.NewScoreCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES & RE-SCORE PIPELINE
	// ─────────────────────────────────────────────────────────────────────────
	assessmentRepo := postgres.NewAssessmentRepository(dbConn)
	scoreRepo := postgres.NewScoreRepository(dbConn)
	rulesetStore := postgres.NewRuleSetStore(dbConn)

	eventBus, err := newEventBus(cfg, redisCache, log)
	if err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer func() { _ = eventBus.Close() }()

	rescoreHandler := command.NewRescoreHandler(
		assessmentRepo, scoreRepo, rulesetStore, eventBus, log,
		command.RescoreConfig{
			Concurrency: cfg.Rescore.Concurrency,
			ItemTimeout: cfg.Rescore.ItemTimeout,
			Epsilon:     cfg.Rescore.Epsilon,
		},
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER & JOBS
	// ─────────────────────────────────────────────────────────────────────────
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(schedCfg)

	rescoreCron, err := scheduler.ParseCronExpression(cfg.Scheduler.RescoreOutdatedCron)
	if err != nil {
		return fmt.Errorf("invalid re-score cron expression %q: %w", cfg.Scheduler.RescoreOutdatedCron, err)
	}

	var locker jobs.JobLocker
	if redisCache != nil {
		locker = redisCache
	}

	rescoreJobCfg := jobs.DefaultRescoreOutdatedConfig()
	rescoreJobCfg.LockTTL = cfg.Scheduler.RescoreLockTTL
	rescoreJob := jobs.NewRescoreOutdatedJob(rescoreHandler, scoreRepo, rulesetStore, locker, log, rescoreJobCfg)
	if err := sched.Register(rescoreJob, rescoreCron); err != nil {
		return fmt.Errorf("failed to register re-score job: %w", err)
	}

	if scoreCache != nil {
		rebuildJob := jobs.NewRebuildScoreCacheJob(scoreRepo, scoreCache, log)
		rebuildSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildCacheInterval)
		if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
			return fmt.Errorf("failed to register board rebuild job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	for _, info := range sched.ListJobs() {
		log.Info("job registered",
			"job", info.Name,
			"schedule", info.Schedule,
			"next_run", info.NextRun,
		)
	}
	log.Info("worker is running")

	// Warm the board once on startup so the API serves top scores
	// without waiting for the first interval tick.
	if scoreCache != nil {
		if _, err := sched.RunNow(ctx, "rebuild_score_cache"); err != nil {
			log.Warn("initial score board rebuild failed", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}
	log.Info("shutdown completed successfully")
	return nil
}

// workerEventBus is what run needs from either bus implementation.
type workerEventBus interface {
	shared.EventBus
	Close() error
}

// newEventBus builds the configured bus. With the "redis" driver the
// worker's ScoreSuperseded events reach the API instances, which keep
// their score caches fresh during long re-score batches.
func newEventBus(cfg *config.Config, redisCache *redis.Cache, log *slog.Logger) (workerEventBus, error) {
	localCfg := messaging.DefaultInMemoryEventBusConfig()
	localCfg.Logger = log

	if cfg.Messaging.Driver == "redis" {
		if redisCache == nil {
			return nil, fmt.Errorf("messaging driver %q requires a Redis connection", cfg.Messaging.Driver)
		}
		return messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			ChannelName:    cfg.Messaging.Channel,
			LocalBusConfig: localCfg,
			Logger:         log,
		})
	}

	return messaging.NewInMemoryEventBus(localCfg), nil
}

// setupLogger configures structured application logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log.With("component", "worker")
}
