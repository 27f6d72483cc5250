// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCORE QUERY
// Returns the current score result for one assessment in the wire shape the
// UI consumes: four dimension scores, their explanations, and the total.
// ══════════════════════════════════════════════════════════════════════════════

// GetScoreQuery identifies the assessment.
type GetScoreQuery struct {
	AssessmentID string
}

// Validate validates the query.
func (q GetScoreQuery) Validate() error {
	if q.AssessmentID == "" {
		return shared.NewDomainError("scoring", "GetScore", shared.ErrEmptyValue, "assessment id is required")
	}
	return nil
}

// ScoreDTO is the wire representation of one score result.
type ScoreDTO struct {
	AssessmentID            string    `json:"assessmentId"`
	BusinessIdea            int       `json:"businessIdea"`
	BusinessIdeaExplanation string    `json:"businessIdeaExplanation"`
	Financials              int       `json:"financials"`
	FinancialsExplanation   string    `json:"financialsExplanation"`
	Team                    int       `json:"team"`
	TeamExplanation         string    `json:"teamExplanation"`
	Traction                int       `json:"traction"`
	TractionExplanation     string    `json:"tractionExplanation"`
	TotalScore              int       `json:"totalScore"`
	Bucket                  string    `json:"bucket"`
	RuleSetVersion          string    `json:"ruleSetVersion"`
	ComputedAt              time.Time `json:"computedAt"`
	ComputedBy              string    `json:"computedBy"`
}

// NewScoreDTO maps a domain score result to its wire shape.
func NewScoreDTO(r *scoring.ScoreResult) ScoreDTO {
	return ScoreDTO{
		AssessmentID:            r.AssessmentID,
		BusinessIdea:            r.Dimensions.Idea.Score,
		BusinessIdeaExplanation: r.Dimensions.Idea.Rationale,
		Financials:              r.Dimensions.Financials.Score,
		FinancialsExplanation:   r.Dimensions.Financials.Rationale,
		Team:                    r.Dimensions.Team.Score,
		TeamExplanation:         r.Dimensions.Team.Rationale,
		Traction:                r.Dimensions.Traction.Score,
		TractionExplanation:     r.Dimensions.Traction.Rationale,
		TotalScore:              r.TotalScore,
		Bucket:                  r.Bucket.String(),
		RuleSetVersion:          r.RuleSetVersion,
		ComputedAt:              r.ComputedAt,
		ComputedBy:              string(r.ComputedBy),
	}
}

// GetScoreHandler handles GetScoreQuery.
type GetScoreHandler struct {
	scores scoring.Repository
}

// NewGetScoreHandler creates the handler.
func NewGetScoreHandler(scores scoring.Repository) *GetScoreHandler {
	return &GetScoreHandler{scores: scores}
}

// Handle returns the current score for the assessment.
func (h *GetScoreHandler) Handle(ctx context.Context, q GetScoreQuery) (*ScoreDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result, err := h.scores.GetCurrent(ctx, q.AssessmentID)
	if err != nil {
		return nil, err
	}

	dto := NewScoreDTO(result)
	return &dto, nil
}
