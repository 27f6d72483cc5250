// Package main is the entry point for the readiness-hub API server.
//
// The server exposes the REST API: assessment submission and scoring,
// score reads and audit history, ruleset administration, and manual
// re-score batches. Scheduled background migration runs in the separate
// worker binary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venturehub/readiness-hub/config"
	"github.com/venturehub/readiness-hub/internal/application/command"
	"github.com/venturehub/readiness-hub/internal/application/eventhandler"
	"github.com/venturehub/readiness-hub/internal/application/query"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
	"github.com/venturehub/readiness-hub/internal/infrastructure/messaging"
	"github.com/venturehub/readiness-hub/internal/infrastructure/persistence/postgres"
	"github.com/venturehub/readiness-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/venturehub/readiness-hub/internal/interface/http"
	"github.com/venturehub/readiness-hub/internal/interface/http/handlers"
	"github.com/venturehub/readiness-hub/pkg/logger"
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
	log.Info("starting readiness-hub API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

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
	log.Info("database connection established")

	if cfg.Database.Migrate {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional score cache)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var scoreCache *redis.ScoreCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redisConfigFrom(cfg)

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, score cache disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			scoreCache = redis.NewScoreCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...", "driver", cfg.Messaging.Driver)
	eventBus, err := newEventBus(cfg, redisCache, log)
	if err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES & DOMAIN SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	assessmentRepo := postgres.NewAssessmentRepository(dbConn)
	scoreRepo := postgres.NewScoreRepository(dbConn)
	auditRepo := postgres.NewAuditRepository(dbConn)
	rulesetStore := postgres.NewRuleSetStore(dbConn)

	engine := scoring.NewEngine(rulesetStore)

	if cfg.App.SeedRuleSet {
		if err := seedRuleSet(ctx, rulesetStore, log); err != nil {
			return fmt.Errorf("failed to seed ruleset: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if scoreCache != nil {
		cacheHandler := eventhandler.NewOnScoreComputedHandler(scoreCache, log)
		if err := cacheHandler.Subscribe(eventBus); err != nil {
			return fmt.Errorf("failed to subscribe cache handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION HANDLERS (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	scoreHandler := command.NewScoreAssessmentHandler(assessmentRepo, scoreRepo, auditRepo, engine, eventBus, log)
	publishHandler := command.NewPublishRuleSetHandler(rulesetStore, eventBus, log)
	activateHandler := command.NewActivateRuleSetHandler(rulesetStore, eventBus, log)
	rescoreHandler := command.NewRescoreHandler(
		assessmentRepo, scoreRepo, rulesetStore, eventBus, log,
		command.RescoreConfig{
			Concurrency: cfg.Rescore.Concurrency,
			ItemTimeout: cfg.Rescore.ItemTimeout,
			Epsilon:     cfg.Rescore.Epsilon,
		},
	)

	var board query.BoardReader
	if scoreCache != nil {
		board = scoreBoardAdapter{cache: scoreCache}
	}

	getScore := query.NewGetScoreHandler(scoreRepo)
	getHistory := query.NewGetScoreHistoryHandler(auditRepo)
	listRuleSets := query.NewListRuleSetsHandler(rulesetStore)
	topScores := query.NewGetTopScoresHandler(board, scoreRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	server := httpapi.NewServer(
		httpapi.Config{
			Host:               cfg.HTTP.Host,
			Port:               cfg.HTTP.Port,
			ReadTimeout:        cfg.HTTP.ReadTimeout,
			WriteTimeout:       cfg.HTTP.WriteTimeout,
			IdleTimeout:        cfg.HTTP.IdleTimeout,
			MaxHeaderBytes:     1 << 20,
			EnableCORS:         cfg.HTTP.EnableCORS,
			AllowedOrigins:     cfg.HTTP.AllowedOrigins,
			RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
			RescoreTimeout:     cfg.HTTP.RescoreTimeout,
			APIKeyHeader:       cfg.HTTP.APIKeyHeader,
			APIKeys:            cfg.HTTP.APIKeys,
		},
		httpapi.Dependencies{
			ScoreAssessmentHandler: scoreHandler,
			PublishRuleSetHandler:  publishHandler,
			ActivateRuleSetHandler: activateHandler,
			RescoreHandler:         rescoreHandler,
			GetScoreHandler:        getScore,
			GetScoreHistoryHandler: getHistory,
			ListRuleSetsHandler:    listRuleSets,
			GetTopScoresHandler:    topScores,
			Logger:                 httpLog,
			HealthChecker:          health,
			StatsProviders: map[string]func() any{
				"event_bus":    func() any { return eventBus.Metrics().Snapshot() },
				"last_rescore": func() any { return rescoreHandler.LastResult() },
			},
		},
	)

	errCh := server.StartAsync()
	log.Info("readiness-hub API server is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// seedRuleSet publishes and activates the baseline methodology when no
// ruleset has ever been published.
// appEventBus is what run needs from either bus implementation.
type appEventBus interface {
	shared.EventBus
	Metrics() *messaging.EventBusMetrics
	Close() error
}

// newEventBus builds the configured bus. The "redis" driver fans events
// out over Pub/Sub so the worker's re-score batches refresh this
// instance's score cache too.
func newEventBus(cfg *config.Config, redisCache *redis.Cache, log *slog.Logger) (appEventBus, error) {
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

func seedRuleSet(ctx context.Context, store ruleset.Store, log *slog.Logger) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed, err := ruleset.FromDocument(ruleset.SeedDocument())
	if err != nil {
		return err
	}
	seed.PublishedAt = time.Now().UTC()
	seed.PublishedBy = "system"

	if err := store.Publish(ctx, seed); err != nil {
		// Another instance may have seeded concurrently.
		if shared.IsAlreadyExists(err) {
			return nil
		}
		return err
	}
	if err := store.Activate(ctx, seed.VersionString()); err != nil {
		return err
	}

	log.Info("seeded baseline ruleset", "version", seed.VersionString())
	return nil
}

// scoreBoardAdapter bridges the Redis score cache to the query layer.
type scoreBoardAdapter struct {
	cache *redis.ScoreCache
}

func (a scoreBoardAdapter) TopScores(ctx context.Context, limit int) ([]query.BoardEntry, error) {
	entries, err := a.cache.TopScores(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]query.BoardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, query.BoardEntry{
			AssessmentID: e.AssessmentID,
			TotalScore:   e.TotalScore,
			Rank:         e.Rank,
		})
	}
	return out, nil
}

// redisConfigFrom maps application config onto the cache package config.
func redisConfigFrom(cfg *config.Config) redis.Config {
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
	return redisCfg
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

	return log
}
