package query

import (
	"context"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCORE HISTORY QUERY
// Returns the full audit trail for one assessment, oldest entry first.
// Every superseded score stays reachable through its audit entry.
// ══════════════════════════════════════════════════════════════════════════════

// GetScoreHistoryQuery identifies the assessment.
type GetScoreHistoryQuery struct {
	AssessmentID string
}

// Validate validates the query.
func (q GetScoreHistoryQuery) Validate() error {
	if q.AssessmentID == "" {
		return shared.NewDomainError("scoring", "GetHistory", shared.ErrEmptyValue, "assessment id is required")
	}
	return nil
}

// AuditEntryDTO is the wire representation of one audit entry.
type AuditEntryDTO struct {
	ID                    string    `json:"id"`
	AssessmentID          string    `json:"assessmentId"`
	PreviousScoreResultID string    `json:"previousScoreResultId,omitempty"`
	NewScoreResultID      string    `json:"newScoreResultId"`
	RuleSetVersionBefore  string    `json:"ruleSetVersionBefore,omitempty"`
	RuleSetVersionAfter   string    `json:"ruleSetVersionAfter"`
	TotalScoreBefore      int       `json:"totalScoreBefore"`
	TotalScoreAfter       int       `json:"totalScoreAfter"`
	TriggeredBy           string    `json:"triggeredBy"`
	Reason                string    `json:"reason"`
	Timestamp             time.Time `json:"timestamp"`
}

// GetScoreHistoryHandler handles GetScoreHistoryQuery.
type GetScoreHistoryHandler struct {
	audit scoring.AuditRepository
}

// NewGetScoreHistoryHandler creates the handler.
func NewGetScoreHistoryHandler(audit scoring.AuditRepository) *GetScoreHistoryHandler {
	return &GetScoreHistoryHandler{audit: audit}
}

// Handle returns the audit entries for the assessment, oldest first.
func (h *GetScoreHistoryHandler) Handle(ctx context.Context, q GetScoreHistoryQuery) ([]AuditEntryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.audit.History(ctx, q.AssessmentID)
	if err != nil {
		return nil, err
	}

	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, AuditEntryDTO{
			ID:                    e.ID,
			AssessmentID:          e.AssessmentID,
			PreviousScoreResultID: e.PreviousScoreResultID,
			NewScoreResultID:      e.NewScoreResultID,
			RuleSetVersionBefore:  e.RuleSetVersionBefore,
			RuleSetVersionAfter:   e.RuleSetVersionAfter,
			TotalScoreBefore:      e.TotalScoreBefore,
			TotalScoreAfter:       e.TotalScoreAfter,
			TriggeredBy:           e.TriggeredBy,
			Reason:                e.Reason,
			Timestamp:             e.Timestamp,
		})
	}
	return dtos, nil
}
