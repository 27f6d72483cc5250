// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
	"github.com/venturehub/readiness-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE ASSESSMENT COMMAND
// Stores a freshly submitted assessment and computes its first score under
// the active ruleset (or an explicitly requested version).
// ══════════════════════════════════════════════════════════════════════════════

// ScoreAssessmentCommand contains the data needed to score a submission.
type ScoreAssessmentCommand struct {
	// OwnerID identifies the submitting founder/account.
	OwnerID string

	// StartupName is the display name captured at submission.
	StartupName string

	// Answers is the immutable input snapshot.
	Answers assessment.Answers

	// RuleSetVersion pins an explicit methodology version.
	// Empty means "the currently active ruleset".
	RuleSetVersion string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ScoreAssessmentCommand) Validate() error {
	if c.OwnerID == "" {
		return shared.NewDomainError("scoring", "Score", shared.ErrEmptyValue, "owner id is required")
	}
	return c.Answers.Validate()
}

// ScoreAssessmentResult contains the outcome of the scoring run.
type ScoreAssessmentResult struct {
	AssessmentID string
	ScoreResult  *scoring.ScoreResult
	Events       []shared.Event
}

// ScoreAssessmentHandler handles ScoreAssessmentCommand.
type ScoreAssessmentHandler struct {
	assessments assessment.Repository
	scores      scoring.Repository
	audit       scoring.AuditRepository
	engine      *scoring.Engine
	events      shared.EventPublisher
	logger      *slog.Logger
}

// NewScoreAssessmentHandler creates the handler.
func NewScoreAssessmentHandler(
	assessments assessment.Repository,
	scores scoring.Repository,
	audit scoring.AuditRepository,
	engine *scoring.Engine,
	events shared.EventPublisher,
	logger *slog.Logger,
) *ScoreAssessmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreAssessmentHandler{
		assessments: assessments,
		scores:      scores,
		audit:       audit,
		engine:      engine,
		events:      events,
		logger:      logger,
	}
}

// Handle stores the assessment, computes the score, persists it as current,
// and appends the first audit entry. The computation itself is pure; nothing
// is written when scoring fails, so a failed request leaves no partial state
// behind except the assessment record itself.
func (h *ScoreAssessmentHandler) Handle(ctx context.Context, cmd ScoreAssessmentCommand) (*ScoreAssessmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a, err := assessment.New(uuid.NewString(), cmd.OwnerID, cmd.StartupName, cmd.Answers, now)
	if err != nil {
		return nil, err
	}

	outcome, err := h.engine.Score(ctx, a.Answers, cmd.RuleSetVersion)
	if err != nil {
		return nil, err
	}

	if err := h.assessments.Create(ctx, a); err != nil {
		return nil, shared.WrapError("scoring", "Score", shared.ErrPersistence,
			"failed to store assessment", err)
	}

	result := &scoring.ScoreResult{
		ID:             uuid.NewString(),
		AssessmentID:   a.ID,
		RuleSetVersion: outcome.RuleSetVersion,
		Bucket:         outcome.Bucket,
		Dimensions:     outcome.Dimensions,
		TotalScore:     outcome.TotalScore,
		ComputedAt:     now,
		ComputedBy:     scoring.ComputedBySystem,
	}

	// Persistence is retried once with backoff; computation errors never are.
	err = retry.Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(h.scores.SaveInitial(ctx, result))
	}, retry.WithMaxAttempts(2), retry.WithInitialDelay(50*time.Millisecond))
	if err != nil {
		return nil, shared.WrapError("scoring", "Score", shared.ErrPersistence,
			"failed to persist score result", err)
	}

	entry := &scoring.AuditEntry{
		ID:                  uuid.NewString(),
		AssessmentID:        a.ID,
		NewScoreResultID:    result.ID,
		RuleSetVersionAfter: result.RuleSetVersion,
		TotalScoreAfter:     result.TotalScore,
		TriggeredBy:         "system",
		Reason:              "initial scoring",
		Timestamp:           now,
	}
	err = retry.Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(h.audit.Append(ctx, entry))
	}, retry.WithMaxAttempts(2), retry.WithInitialDelay(50*time.Millisecond))
	if err != nil {
		return nil, shared.WrapError("scoring", "Score", shared.ErrPersistence,
			"failed to append audit entry", err)
	}

	events := []shared.Event{
		shared.NewScoreComputedEvent(a.ID, result.ID, result.RuleSetVersion,
			result.Bucket.String(), result.TotalScore, string(result.ComputedBy)),
	}
	h.publish(events)

	h.logger.Info("assessment scored",
		"assessment_id", a.ID,
		"bucket", result.Bucket,
		"total_score", result.TotalScore,
		"rule_set_version", result.RuleSetVersion,
	)

	return &ScoreAssessmentResult{
		AssessmentID: a.ID,
		ScoreResult:  result,
		Events:       events,
	}, nil
}

func (h *ScoreAssessmentHandler) publish(events []shared.Event) {
	if h.events == nil {
		return
	}
	for _, e := range events {
		if err := h.events.Publish(e); err != nil {
			h.logger.Warn("failed to publish event", "type", e.EventType(), "error", err)
		}
	}
}
