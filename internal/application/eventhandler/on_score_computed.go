// Package eventhandler contains domain event handlers.
// Handlers are the reactive part of the system: they respond to scoring
// events and drive side effects such as cache maintenance, keeping those
// concerns out of the scoring path itself.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON SCORE COMPUTED HANDLER
// Keeps the hot score cache in step with the scores table. The cache is a
// read-side convenience for directory views; scoring itself never reads it,
// so a cache failure here is logged and absorbed, never propagated.
// ═══════════════════════════════════════════════════════════════════════════

// ScoreCache is the cache surface this handler maintains.
type ScoreCache interface {
	// SetCurrent stores the current total for an assessment.
	SetCurrent(ctx context.Context, assessmentID string, totalScore int) error

	// InvalidateScore drops any cached payload for an assessment.
	InvalidateScore(ctx context.Context, assessmentID string) error
}

// OnScoreComputedHandler refreshes the score cache when a score result
// becomes current or is superseded.
type OnScoreComputedHandler struct {
	cache   ScoreCache
	logger  *slog.Logger
	timeout time.Duration
}

// NewOnScoreComputedHandler creates the handler.
func NewOnScoreComputedHandler(cache ScoreCache, logger *slog.Logger) *OnScoreComputedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnScoreComputedHandler{
		cache:   cache,
		logger:  logger,
		timeout: 3 * time.Second,
	}
}

// Handle processes ScoreComputed and ScoreSuperseded events.
func (h *OnScoreComputedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch e := event.(type) {
	case shared.ScoreComputedEvent:
		if err := h.cache.SetCurrent(ctx, e.AssessmentID, e.TotalScore); err != nil {
			h.logger.Warn("failed to refresh score cache",
				"assessment_id", e.AssessmentID, "error", err)
		}
		return nil

	case shared.ScoreSupersededEvent:
		if err := h.cache.InvalidateScore(ctx, e.AssessmentID); err != nil {
			h.logger.Warn("failed to invalidate score cache",
				"assessment_id", e.AssessmentID, "error", err)
		}
		if err := h.cache.SetCurrent(ctx, e.AssessmentID, e.TotalScoreAfter); err != nil {
			h.logger.Warn("failed to refresh score cache",
				"assessment_id", e.AssessmentID, "error", err)
		}
		return nil

	default:
		return fmt.Errorf("on_score_computed: unexpected event type %s", event.EventType())
	}
}

// Subscribe registers the handler on the bus for the events it consumes.
func (h *OnScoreComputedHandler) Subscribe(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventScoreComputed, h.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventScoreSuperseded, h.Handle)
}
