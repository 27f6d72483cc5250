package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
	"github.com/venturehub/readiness-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESCORE ASSESSMENTS COMMAND
// Batch-replays the scoring engine across a selected population of stored
// assessments under a target ruleset version. Each assessment is processed
// independently: one failure never aborts the batch, and re-running the same
// command is a per-item no-op for assessments already at the target version.
// ══════════════════════════════════════════════════════════════════════════════

// RescoreCommand describes one re-score run.
type RescoreCommand struct {
	// Selector filters the scored population.
	Selector scoring.Selector

	// TargetVersion is the ruleset version to replay under.
	TargetVersion string

	// Reason is the human-stated cause recorded on every audit entry.
	Reason string

	// TriggeredBy identifies the requesting actor.
	TriggeredBy string
}

// Validate validates the command.
func (c RescoreCommand) Validate() error {
	if c.TargetVersion == "" {
		return shared.NewDomainError("scoring", "Rescore", shared.ErrEmptyValue, "target version is required")
	}
	if c.Reason == "" {
		return shared.NewDomainError("scoring", "Rescore", shared.ErrEmptyValue, "reason is required")
	}
	if c.TriggeredBy == "" {
		return shared.NewDomainError("scoring", "Rescore", shared.ErrEmptyValue, "triggered_by is required")
	}
	return nil
}

// ItemFailure is one per-assessment failure inside a batch.
type ItemFailure struct {
	AssessmentID string `json:"assessment_id"`
	Error        string `json:"error"`
}

// RescoreJobResult summarizes one re-score run.
type RescoreJobResult struct {
	JobID         string        `json:"job_id"`
	TargetVersion string        `json:"target_version"`
	Processed     int           `json:"processed"`
	Succeeded     int           `json:"succeeded"`
	Failed        []ItemFailure `json:"failed"`
	Skipped       int           `json:"skipped"`
	// Unchanged counts migrated assessments whose total moved by no more
	// than the configured epsilon. They still get a new result and audit
	// entry: the methodology changed even if the number did not.
	Unchanged int `json:"unchanged"`
	// NotReached lists assessments the job did not start because of
	// cancellation. Already-processed items stay migrated; there is no
	// global rollback.
	NotReached  []string      `json:"not_reached,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// RescoreConfig contains tuning for the batch runner.
type RescoreConfig struct {
	// Concurrency is the bounded worker pool size. Persistence writes are
	// the bottleneck, not CPU, so this stays small.
	Concurrency int

	// ItemTimeout bounds the persistence work of a single assessment.
	ItemTimeout time.Duration

	// Epsilon is the total-score delta below which a migration is counted
	// as unchanged. Default 0: any movement counts as a change.
	Epsilon int
}

// DefaultRescoreConfig returns sensible defaults.
func DefaultRescoreConfig() RescoreConfig {
	return RescoreConfig{
		Concurrency: 5,
		ItemTimeout: 10 * time.Second,
		Epsilon:     0,
	}
}

// RescoreHandler is the re-score manager.
// The audit entry for each migration is written by the score repository
// inside the supersede transaction, so the handler carries no separate
// audit dependency.
type RescoreHandler struct {
	assessments assessment.Repository
	scores      scoring.Repository
	rulesets    ruleset.Store
	events      shared.EventPublisher
	logger      *slog.Logger
	config      RescoreConfig

	// lastResult keeps the most recent job summary for observability.
	lastResult atomic.Value // *RescoreJobResult
}

// NewRescoreHandler creates the re-score manager.
func NewRescoreHandler(
	assessments assessment.Repository,
	scores scoring.Repository,
	rulesets ruleset.Store,
	events shared.EventPublisher,
	logger *slog.Logger,
	config RescoreConfig,
) *RescoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.ItemTimeout <= 0 {
		config.ItemTimeout = 10 * time.Second
	}
	return &RescoreHandler{
		assessments: assessments,
		scores:      scores,
		rulesets:    rulesets,
		events:      events,
		logger:      logger,
		config:      config,
	}
}

// Handle runs one re-score batch.
//
// The target ruleset is resolved once up front: an unknown target version
// fails the whole run before any assessment is touched. Per-item errors
// (malformed stored answers, persistence failures) are collected into the
// job result instead of aborting the batch.
func (h *RescoreHandler) Handle(ctx context.Context, cmd RescoreCommand) (*RescoreJobResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	targetRS, err := h.rulesets.Get(ctx, cmd.TargetVersion)
	if err != nil {
		return nil, err
	}

	// Compiling the selector also validates its version constraint.
	if _, err := cmd.Selector.Matcher(); err != nil {
		return nil, err
	}

	result := &RescoreJobResult{
		JobID:         uuid.NewString(),
		TargetVersion: targetRS.VersionString(),
		StartedAt:     time.Now().UTC(),
		Failed:        make([]ItemFailure, 0),
	}

	population, err := h.scores.ListCurrentBySelector(ctx, cmd.Selector)
	if err != nil {
		return nil, shared.WrapError("scoring", "Rescore", shared.ErrPersistence,
			"failed to load re-score population", err)
	}

	h.logger.Info("rescore job started",
		"job_id", result.JobID,
		"target_version", result.TargetVersion,
		"population", len(population),
		"triggered_by", cmd.TriggeredBy,
	)

	h.runPool(ctx, cmd, targetRS, population, result)

	result.CompletedAt = time.Now().UTC()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	h.lastResult.Store(result)

	if h.events != nil {
		event := shared.NewRescoreCompletedEvent(result.JobID, result.TargetVersion,
			result.Processed, result.Succeeded, len(result.Failed), result.Skipped)
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "type", event.EventType(), "error", err)
		}
	}

	h.logger.Info("rescore job completed",
		"job_id", result.JobID,
		"duration", result.Duration.String(),
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
		"skipped", result.Skipped,
		"not_reached", len(result.NotReached),
	)

	return result, nil
}

// runPool processes the population with a bounded worker pool.
//
// The population holds exactly one current result per assessment, so every
// assessment id is handled end-to-end by a single worker. That is what keeps
// the per-assessment audit chain serialized: same-id work never runs in two
// goroutines at once. Cross-assessment ordering is not guaranteed and does
// not need to be.
func (h *RescoreHandler) runPool(
	ctx context.Context,
	cmd RescoreCommand,
	targetRS *ruleset.RuleSet,
	population []*scoring.ScoreResult,
	result *RescoreJobResult,
) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, h.config.Concurrency)
		mu        sync.Mutex
	)

	for i, current := range population {
		// Cooperative cancellation between items: everything not yet
		// dispatched is reported as not reached. Already-dispatched items
		// run to completion; their effect is durable and independently
		// correct, so there is nothing to roll back.
		if ctx.Err() != nil {
			for _, rest := range population[i:] {
				result.NotReached = append(result.NotReached, rest.AssessmentID)
			}
			break
		}

		select {
		case <-ctx.Done():
			for _, rest := range population[i:] {
				result.NotReached = append(result.NotReached, rest.AssessmentID)
			}
			wg.Wait()
			return
		case semaphore <- struct{}{}: // Acquire
		}

		wg.Add(1)

		go func(current *scoring.ScoreResult) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			outcome := h.processOne(ctx, cmd, targetRS, current)

			mu.Lock()
			defer mu.Unlock()
			result.Processed++
			switch {
			case outcome.skipped:
				result.Skipped++
			case outcome.err != nil:
				result.Failed = append(result.Failed, ItemFailure{
					AssessmentID: current.AssessmentID,
					Error:        outcome.err.Error(),
				})
				h.logger.Error("rescore item failed",
					"assessment_id", current.AssessmentID,
					"error", outcome.err,
				)
			default:
				result.Succeeded++
				if outcome.unchanged {
					result.Unchanged++
				}
			}
		}(current)
	}

	wg.Wait()
}

type itemOutcome struct {
	skipped   bool
	unchanged bool
	err       error
}

// processOne migrates a single assessment to the target version.
func (h *RescoreHandler) processOne(
	ctx context.Context,
	cmd RescoreCommand,
	targetRS *ruleset.RuleSet,
	current *scoring.ScoreResult,
) itemOutcome {
	// Idempotency: already at the target version means nothing to do.
	// A second run of the same command must not duplicate results or
	// audit entries.
	if current.RuleSetVersion == targetRS.VersionString() {
		return itemOutcome{skipped: true}
	}

	itemCtx, cancel := context.WithTimeout(ctx, h.config.ItemTimeout)
	defer cancel()

	a, err := h.assessments.GetByID(itemCtx, current.AssessmentID)
	if err != nil {
		return itemOutcome{err: fmt.Errorf("load assessment: %w", err)}
	}

	// Pure replay under the target ruleset. Validation and configuration
	// errors land here and are never retried - they cannot succeed later.
	outcome, err := scoring.ScoreWith(a.Answers, targetRS)
	if err != nil {
		return itemOutcome{err: fmt.Errorf("compute score: %w", err)}
	}

	now := time.Now().UTC()
	replacement := &scoring.ScoreResult{
		ID:             uuid.NewString(),
		AssessmentID:   current.AssessmentID,
		RuleSetVersion: outcome.RuleSetVersion,
		Bucket:         outcome.Bucket,
		Dimensions:     outcome.Dimensions,
		TotalScore:     outcome.TotalScore,
		ComputedAt:     now,
		ComputedBy:     scoring.ComputedByRescore,
	}

	entry := &scoring.AuditEntry{
		ID:                    uuid.NewString(),
		AssessmentID:          current.AssessmentID,
		PreviousScoreResultID: current.ID,
		NewScoreResultID:      replacement.ID,
		RuleSetVersionBefore:  current.RuleSetVersion,
		RuleSetVersionAfter:   replacement.RuleSetVersion,
		TotalScoreBefore:      current.TotalScore,
		TotalScoreAfter:       replacement.TotalScore,
		TriggeredBy:           cmd.TriggeredBy,
		Reason:                cmd.Reason,
		Timestamp:             now,
	}

	// The replacement and its audit entry are one atomic unit, retried once
	// with backoff. On repeated failure the item fails and the previous
	// result stays current with no partial overwrite, so the next run will
	// pick the assessment up again instead of skipping it.
	err = retry.Do(itemCtx, func(ctx context.Context) error {
		return retry.Retryable(h.scores.Supersede(ctx, current.ID, replacement, entry))
	}, retry.WithMaxAttempts(2), retry.WithInitialDelay(100*time.Millisecond))
	if err != nil {
		return itemOutcome{err: fmt.Errorf("persist score: %w", err)}
	}

	if h.events != nil {
		event := shared.NewScoreSupersededEvent(current.AssessmentID, current.ID, replacement.ID,
			current.RuleSetVersion, replacement.RuleSetVersion,
			current.TotalScore, replacement.TotalScore, cmd.TriggeredBy)
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "type", event.EventType(), "error", err)
		}
	}

	delta := replacement.TotalScore - current.TotalScore
	if delta < 0 {
		delta = -delta
	}
	return itemOutcome{unchanged: delta <= h.config.Epsilon}
}

// LastResult returns the summary of the most recent run, or nil.
func (h *RescoreHandler) LastResult() *RescoreJobResult {
	v := h.lastResult.Load()
	if v == nil {
		return nil
	}
	return v.(*RescoreJobResult)
}
