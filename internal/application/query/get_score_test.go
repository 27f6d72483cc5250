package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

func TestGetScore_MapsDimensions(t *testing.T) {
	scores := newMemScores()
	computedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	scores.current["a-1"] = &scoring.ScoreResult{
		ID:           "score-a-1",
		AssessmentID: "a-1",
		Dimensions: scoring.DimensionScores{
			Idea:       scoring.DimensionScore{Score: 40, Rationale: "large market (+25); defensible moat (+15)"},
			Financials: scoring.DimensionScore{Score: 30, Rationale: "recurring revenue (+30)"},
			Team:       scoring.DimensionScore{Score: 20, Rationale: "experienced founders (+20)"},
			Traction:   scoring.DimensionScore{Score: 10, Rationale: "early pilots (+10)"},
		},
		TotalScore:     25,
		Bucket:         scoring.BucketB2BSaaS,
		RuleSetVersion: "0.1.0",
		ComputedAt:     computedAt,
		ComputedBy:     scoring.ComputedBySystem,
	}

	h := NewGetScoreHandler(scores)

	dto, err := h.Handle(context.Background(), GetScoreQuery{AssessmentID: "a-1"})
	require.NoError(t, err)

	assert.Equal(t, "a-1", dto.AssessmentID)
	assert.Equal(t, 40, dto.BusinessIdea)
	assert.Equal(t, "large market (+25); defensible moat (+15)", dto.BusinessIdeaExplanation)
	assert.Equal(t, 30, dto.Financials)
	assert.Equal(t, 20, dto.Team)
	assert.Equal(t, 10, dto.Traction)
	assert.Equal(t, 25, dto.TotalScore)
	assert.Equal(t, scoring.BucketB2BSaaS.String(), dto.Bucket)
	assert.Equal(t, "0.1.0", dto.RuleSetVersion)
	assert.Equal(t, computedAt, dto.ComputedAt)
}

func TestGetScore_NotFound(t *testing.T) {
	h := NewGetScoreHandler(newMemScores())

	_, err := h.Handle(context.Background(), GetScoreQuery{AssessmentID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetScore_RequiresID(t *testing.T) {
	h := NewGetScoreHandler(newMemScores())

	_, err := h.Handle(context.Background(), GetScoreQuery{})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestGetScoreHistory_OldestFirst(t *testing.T) {
	audit := newMemAudit()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, audit.Append(context.Background(), &scoring.AuditEntry{
		ID:                  "audit-1",
		AssessmentID:        "a-1",
		NewScoreResultID:    "score-1",
		RuleSetVersionAfter: "0.1.0",
		TotalScoreAfter:     55,
		TriggeredBy:         string(scoring.ComputedBySystem),
		Reason:              "initial scoring",
		Timestamp:           base,
	}))
	require.NoError(t, audit.Append(context.Background(), &scoring.AuditEntry{
		ID:                    "audit-2",
		AssessmentID:          "a-1",
		PreviousScoreResultID: "score-1",
		NewScoreResultID:      "score-2",
		RuleSetVersionBefore:  "0.1.0",
		RuleSetVersionAfter:   "0.2.0",
		TotalScoreBefore:      55,
		TotalScoreAfter:       61,
		TriggeredBy:           string(scoring.ComputedByRescore),
		Reason:                "scheduled migration to active ruleset 0.2.0",
		Timestamp:             base.Add(time.Hour),
	}))

	h := NewGetScoreHistoryHandler(audit)

	got, err := h.Handle(context.Background(), GetScoreHistoryQuery{AssessmentID: "a-1"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "audit-1", got[0].ID)
	assert.Empty(t, got[0].PreviousScoreResultID)
	assert.Equal(t, "audit-2", got[1].ID)
	assert.Equal(t, "score-1", got[1].PreviousScoreResultID)
	assert.Equal(t, 61, got[1].TotalScoreAfter)
}

func TestGetScoreHistory_EmptyForUnknownAssessment(t *testing.T) {
	h := NewGetScoreHistoryHandler(newMemAudit())

	got, err := h.Handle(context.Background(), GetScoreHistoryQuery{AssessmentID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
