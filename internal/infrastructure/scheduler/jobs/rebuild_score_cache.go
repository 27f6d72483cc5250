package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD SCORE CACHE JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildScoreCacheJob rebuilds the Redis score board from Postgres.
// The board drifts when Redis restarts or when cache writes were dropped
// by the circuit breaker; a periodic rebuild restores it from the source
// of truth.
type RebuildScoreCacheJob struct {
	scores scoring.Repository
	cache  *redis.ScoreCache
	logger *slog.Logger
}

// NewRebuildScoreCacheJob creates the job.
func NewRebuildScoreCacheJob(
	scores scoring.Repository,
	cache *redis.ScoreCache,
	logger *slog.Logger,
) *RebuildScoreCacheJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildScoreCacheJob{
		scores: scores,
		cache:  cache,
		logger: logger,
	}
}

// Name returns the job name.
func (j *RebuildScoreCacheJob) Name() string {
	return "rebuild_score_cache"
}

// Description returns a human-readable description.
func (j *RebuildScoreCacheJob) Description() string {
	return "Rebuilds the Redis score board from current score results in Postgres"
}

// Run executes the job.
func (j *RebuildScoreCacheJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	// Empty selector: every assessment with a current score.
	results, err := j.scores.ListCurrentBySelector(ctx, scoring.Selector{})
	if err != nil {
		return fmt.Errorf("failed to load current scores: %w", err)
	}

	if err := j.cache.Rebuild(ctx, results); err != nil {
		return fmt.Errorf("failed to rebuild score board: %w", err)
	}

	j.logger.Info("rebuild_score_cache: board rebuilt",
		"entries", len(results),
		"duration", time.Since(startedAt).String(),
	)

	return nil
}
