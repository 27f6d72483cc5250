// Package jobs contains implementations of scheduled jobs for the
// readiness engine. The jobs keep scored assessments aligned with the
// active methodology version and keep the Redis score board warm.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/venturehub/readiness-hub/internal/application/command"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESCORE OUTDATED JOB
// ══════════════════════════════════════════════════════════════════════════════

// RescoreOutdatedJob re-scores every assessment whose current score was
// computed under a ruleset version older than the active one. Activating
// a new version does not touch stored scores; this job is what migrates
// the population afterwards.
type RescoreOutdatedJob struct {
	rescorer *command.RescoreHandler
	scores   scoring.Repository
	rulesets ruleset.Store
	locker   JobLocker
	logger   *slog.Logger
	config   RescoreOutdatedConfig

	lastRun atomic.Value // *command.RescoreJobResult
}

// JobLocker provides a best-effort distributed lock so only one worker
// instance runs a given job at a time. A nil locker disables locking.
type JobLocker interface {
	// SetNX sets the key only if it does not exist, returning true on success.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
}

// RescoreOutdatedConfig contains configuration for the job.
type RescoreOutdatedConfig struct {
	// MinOutdated is the number of outdated scores below which the job
	// skips the run. Zero means any outdated score triggers a run.
	MinOutdated int

	// LockTTL bounds how long the distributed lock is held if the
	// process dies mid-run.
	LockTTL time.Duration
}

// DefaultRescoreOutdatedConfig returns sensible defaults.
func DefaultRescoreOutdatedConfig() RescoreOutdatedConfig {
	return RescoreOutdatedConfig{
		MinOutdated: 0,
		LockTTL:     10 * time.Minute,
	}
}

// NewRescoreOutdatedJob creates the job.
func NewRescoreOutdatedJob(
	rescorer *command.RescoreHandler,
	scores scoring.Repository,
	rulesets ruleset.Store,
	locker JobLocker,
	logger *slog.Logger,
	config RescoreOutdatedConfig,
) *RescoreOutdatedJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}

	return &RescoreOutdatedJob{
		rescorer: rescorer,
		scores:   scores,
		rulesets: rulesets,
		locker:   locker,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *RescoreOutdatedJob) Name() string {
	return "rescore_outdated"
}

// Description returns a human-readable description.
func (j *RescoreOutdatedJob) Description() string {
	return "Re-scores assessments whose current score predates the active ruleset version"
}

// Run executes the job.
func (j *RescoreOutdatedJob) Run(ctx context.Context) error {
	active, err := j.rulesets.GetActive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoActiveRuleSet) {
			j.logger.Info("rescore_outdated: no active ruleset, nothing to do")
			return nil
		}
		return fmt.Errorf("failed to resolve active ruleset: %w", err)
	}

	target := active.VersionString()

	outdated, err := j.scores.CountCurrentNotAtVersion(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to count outdated scores: %w", err)
	}

	if outdated == 0 || outdated < j.config.MinOutdated {
		j.logger.Info("rescore_outdated: population up to date",
			"active_version", target,
			"outdated", outdated,
		)
		return nil
	}

	release, acquired, err := j.acquireLock(ctx)
	if err != nil {
		j.logger.Warn("rescore_outdated: lock acquisition failed, proceeding without lock", "error", err)
	} else if !acquired {
		j.logger.Info("rescore_outdated: another instance holds the lock, skipping run")
		return nil
	}
	if release != nil {
		defer release()
	}

	j.logger.Info("rescore_outdated: starting batch",
		"active_version", target,
		"outdated", outdated,
	)

	result, err := j.rescorer.Handle(ctx, command.RescoreCommand{
		Selector: scoring.Selector{
			VersionConstraint: fmt.Sprintf("!= %s", target),
		},
		TargetVersion: target,
		Reason:        "scheduled migration to active ruleset " + target,
		TriggeredBy:   string(scoring.ComputedByRescore),
	})
	if err != nil {
		return fmt.Errorf("re-score batch failed: %w", err)
	}

	j.lastRun.Store(result)

	j.logger.Info("rescore_outdated: batch completed",
		"job_id", result.JobID,
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
		"skipped", result.Skipped,
		"duration", result.Duration.String(),
	)

	if len(result.Failed) > 0 && result.Succeeded == 0 {
		return fmt.Errorf("re-score batch failed for all %d assessments", len(result.Failed))
	}

	return nil
}

// acquireLock takes the distributed lock, returning a release function.
func (j *RescoreOutdatedJob) acquireLock(ctx context.Context) (func(), bool, error) {
	if j.locker == nil {
		return nil, true, nil
	}

	key := "lock:job:" + j.Name()
	acquired, err := j.locker.SetNX(ctx, key, time.Now().Format(time.RFC3339), j.config.LockTTL)
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// Release uses a fresh context so shutdown does not leak the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.locker.Delete(releaseCtx, key); err != nil {
			j.logger.Warn("rescore_outdated: failed to release lock", "error", err)
		}
	}

	return release, true, nil
}

// LastRun returns the result of the most recent batch, or nil.
func (j *RescoreOutdatedJob) LastRun() *command.RescoreJobResult {
	result := j.lastRun.Load()
	if result == nil {
		return nil
	}
	return result.(*command.RescoreJobResult)
}
