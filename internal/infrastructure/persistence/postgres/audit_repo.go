package postgres

import (
	"context"
	"fmt"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AuditRepository implements scoring.AuditRepository for PostgreSQL.
// The table is append-only; ordering comes from the BIGSERIAL sequence,
// not from timestamps, so entries written in the same millisecond still
// replay in insertion order.
type AuditRepository struct {
	conn *Connection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(conn *Connection) *AuditRepository {
	return &AuditRepository{conn: conn}
}

// Append records one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *scoring.AuditEntry) error {
	query := `
		INSERT INTO score_audit_entries (
			id, assessment_id, previous_score_result_id, new_score_result_id,
			rule_set_version_before, rule_set_version_after,
			total_score_before, total_score_after,
			triggered_by, reason, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var previousID *string
	if entry.PreviousScoreResultID != "" {
		previousID = &entry.PreviousScoreResultID
	}

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.AssessmentID,
		previousID,
		entry.NewScoreResultID,
		entry.RuleSetVersionBefore,
		entry.RuleSetVersionAfter,
		entry.TotalScoreBefore,
		entry.TotalScoreAfter,
		entry.TriggeredBy,
		entry.Reason,
		entry.Timestamp,
	)
	if err != nil {
		return shared.WrapError("scoring", "Audit", shared.ErrPersistence, "failed to append audit entry", err)
	}

	return nil
}

// History returns all entries for an assessment, oldest first.
func (r *AuditRepository) History(ctx context.Context, assessmentID string) ([]*scoring.AuditEntry, error) {
	query := `
		SELECT id, assessment_id, previous_score_result_id, new_score_result_id,
			   rule_set_version_before, rule_set_version_after,
			   total_score_before, total_score_after,
			   triggered_by, reason, occurred_at
		FROM score_audit_entries
		WHERE assessment_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.conn.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	var entries []*scoring.AuditEntry
	for rows.Next() {
		var e scoring.AuditEntry
		var previousID *string

		err := rows.Scan(
			&e.ID,
			&e.AssessmentID,
			&previousID,
			&e.NewScoreResultID,
			&e.RuleSetVersionBefore,
			&e.RuleSetVersionAfter,
			&e.TotalScoreBefore,
			&e.TotalScoreAfter,
			&e.TriggeredBy,
			&e.Reason,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if previousID != nil {
			e.PreviousScoreResultID = *previousID
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
