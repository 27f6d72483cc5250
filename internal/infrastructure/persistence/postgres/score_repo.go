package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRepository implements scoring.Repository for PostgreSQL.
// Supersede runs in a transaction so the previous row is retired, the
// replacement inserted, and the audit entry appended as one atomic step;
// the partial unique index on (assessment_id) WHERE NOT superseded
// backstops the invariant of one current row per assessment.
type ScoreRepository struct {
	conn *Connection
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(conn *Connection) *ScoreRepository {
	return &ScoreRepository{conn: conn}
}

const scoreColumns = `id, assessment_id, rule_set_version, bucket, dimensions,
	   total_score, computed_at, computed_by, superseded`

// SaveInitial stores the first score result of an assessment as current.
func (r *ScoreRepository) SaveInitial(ctx context.Context, result *scoring.ScoreResult) error {
	query := `
		INSERT INTO score_results (
			id, assessment_id, rule_set_version, bucket, dimensions,
			total_score, computed_at, computed_by, superseded
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	`

	dimsJSON, err := json.Marshal(result.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal dimensions: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		result.ID,
		result.AssessmentID,
		result.RuleSetVersion,
		string(result.Bucket),
		dimsJSON,
		result.TotalScore,
		result.ComputedAt,
		string(result.ComputedBy),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save score result: %w", err)
	}

	return nil
}

// Supersede atomically retires the previous result, inserts the
// replacement as current, and appends the audit entry. The previous row
// stays in the table. Rolling all three into one transaction means a
// failed audit write cannot leave a migrated score current without its
// audit trail.
func (r *ScoreRepository) Supersede(ctx context.Context, previousID string, replacement *scoring.ScoreResult, entry *scoring.AuditEntry) error {
	dimsJSON, err := json.Marshal(replacement.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal dimensions: %w", err)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE score_results
			SET superseded = TRUE
			WHERE id = $1 AND assessment_id = $2 AND NOT superseded
		`, previousID, replacement.AssessmentID)
		if err != nil {
			return fmt.Errorf("failed to retire previous score: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Another writer already replaced this result.
			return shared.ErrConcurrentModification
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO score_results (
				id, assessment_id, rule_set_version, bucket, dimensions,
				total_score, computed_at, computed_by, superseded
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		`,
			replacement.ID,
			replacement.AssessmentID,
			replacement.RuleSetVersion,
			string(replacement.Bucket),
			dimsJSON,
			replacement.TotalScore,
			replacement.ComputedAt,
			string(replacement.ComputedBy),
		)
		if err != nil {
			return fmt.Errorf("failed to insert replacement score: %w", err)
		}

		var previousEntryID *string
		if entry.PreviousScoreResultID != "" {
			previousEntryID = &entry.PreviousScoreResultID
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO score_audit_entries (
				id, assessment_id, previous_score_result_id, new_score_result_id,
				rule_set_version_before, rule_set_version_after,
				total_score_before, total_score_after,
				triggered_by, reason, occurred_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			entry.ID,
			entry.AssessmentID,
			previousEntryID,
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
			return fmt.Errorf("failed to append audit entry: %w", err)
		}

		return nil
	})
}

// GetCurrent returns the current score result for an assessment.
func (r *ScoreRepository) GetCurrent(ctx context.Context, assessmentID string) (*scoring.ScoreResult, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM score_results
		WHERE assessment_id = $1 AND NOT superseded
	`

	row := r.conn.QueryRow(ctx, query, assessmentID)
	return r.scanScore(row)
}

// GetByID returns a score result (current or superseded) by id.
func (r *ScoreRepository) GetByID(ctx context.Context, id string) (*scoring.ScoreResult, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_results WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanScore(row)
}

// ListCurrentBySelector returns the current score results matching the
// selector. Owner and id filters narrow the query; the semver range is
// applied in process since version ordering is not lexicographic.
func (r *ScoreRepository) ListCurrentBySelector(ctx context.Context, sel scoring.Selector) ([]*scoring.ScoreResult, error) {
	match, err := sel.Matcher()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT s.id, s.assessment_id, s.rule_set_version, s.bucket, s.dimensions,
			   s.total_score, s.computed_at, s.computed_by, s.superseded,
			   a.owner_id
		FROM score_results s
		JOIN assessments a ON a.id = s.assessment_id
		WHERE NOT s.superseded
	`
	args := []interface{}{}

	if sel.OwnerID != "" {
		args = append(args, sel.OwnerID)
		query += fmt.Sprintf(" AND a.owner_id = $%d", len(args))
	}
	if len(sel.AssessmentIDs) > 0 {
		args = append(args, sel.AssessmentIDs)
		query += fmt.Sprintf(" AND s.assessment_id = ANY($%d)", len(args))
	}
	query += " ORDER BY s.computed_at ASC"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query current scores: %w", err)
	}
	defer rows.Close()

	var results []*scoring.ScoreResult
	for rows.Next() {
		var s scoring.ScoreResult
		var bucket, computedBy, ownerID string
		var dimsJSON []byte

		err := rows.Scan(
			&s.ID,
			&s.AssessmentID,
			&s.RuleSetVersion,
			&bucket,
			&dimsJSON,
			&s.TotalScore,
			&s.ComputedAt,
			&computedBy,
			&s.Superseded,
			&ownerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score result: %w", err)
		}

		s.Bucket = scoring.Bucket(bucket)
		s.ComputedBy = scoring.ComputedBy(computedBy)
		if err := json.Unmarshal(dimsJSON, &s.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dimensions: %w", err)
		}

		if match(&s, ownerID) {
			results = append(results, &s)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, nil
}

// CountCurrentNotAtVersion counts scored assessments whose current result
// was computed under a different version.
func (r *ScoreRepository) CountCurrentNotAtVersion(ctx context.Context, version string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM score_results
		WHERE NOT superseded AND rule_set_version != $1
	`, version).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count outdated scores: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ScoreRepository) scanScore(row pgx.Row) (*scoring.ScoreResult, error) {
	var s scoring.ScoreResult
	var bucket, computedBy string
	var dimsJSON []byte

	err := row.Scan(
		&s.ID,
		&s.AssessmentID,
		&s.RuleSetVersion,
		&bucket,
		&dimsJSON,
		&s.TotalScore,
		&s.ComputedAt,
		&computedBy,
		&s.Superseded,
	)

	if IsNoRows(err) {
		return nil, shared.ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan score result: %w", err)
	}

	s.Bucket = scoring.Bucket(bucket)
	s.ComputedBy = scoring.ComputedBy(computedBy)
	if err := json.Unmarshal(dimsJSON, &s.Dimensions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dimensions: %w", err)
	}

	return &s, nil
}
