package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AssessmentRepository implements assessment.Repository for PostgreSQL.
type AssessmentRepository struct {
	conn *Connection
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(conn *Connection) *AssessmentRepository {
	return &AssessmentRepository{conn: conn}
}

const assessmentColumns = `id, owner_id, startup_name, answers, submitted_at, created_at`

// Create stores a new assessment. The answers snapshot is serialized to
// JSONB as-is; there is no update path for this table.
func (r *AssessmentRepository) Create(ctx context.Context, a *assessment.Assessment) error {
	query := `
		INSERT INTO assessments (id, owner_id, startup_name, answers, submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		a.ID,
		a.OwnerID,
		a.StartupName,
		answersJSON,
		a.SubmittedAt,
		a.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetByID returns an assessment by id.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*assessment.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanAssessment(row)
}

// GetByIDs returns assessments for the given ids, skipping unknown ones.
func (r *AssessmentRepository) GetByIDs(ctx context.Context, ids []string) ([]*assessment.Assessment, error) {
	if len(ids) == 0 {
		return []*assessment.Assessment{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT `+assessmentColumns+` FROM assessments WHERE id IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments by ids: %w", err)
	}
	defer rows.Close()

	return r.scanAssessments(rows)
}

// GetByOwner returns all assessments submitted by one owner.
func (r *AssessmentRepository) GetByOwner(ctx context.Context, ownerID string, opts assessment.ListOptions) ([]*assessment.Assessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE owner_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, ownerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments by owner: %w", err)
	}
	defer rows.Close()

	return r.scanAssessments(rows)
}

// GetAll returns all assessments with pagination.
func (r *AssessmentRepository) GetAll(ctx context.Context, opts assessment.ListOptions) ([]*assessment.Assessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM assessments
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	return r.scanAssessments(rows)
}

// Count returns the total number of assessments.
func (r *AssessmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *AssessmentRepository) scanAssessment(row pgx.Row) (*assessment.Assessment, error) {
	var a assessment.Assessment
	var answersJSON []byte

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.StartupName,
		&answersJSON,
		&a.SubmittedAt,
		&a.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}

	return &a, nil
}

func (r *AssessmentRepository) scanAssessments(rows pgx.Rows) ([]*assessment.Assessment, error) {
	var assessments []*assessment.Assessment

	for rows.Next() {
		var a assessment.Assessment
		var answersJSON []byte

		err := rows.Scan(
			&a.ID,
			&a.OwnerID,
			&a.StartupName,
			&answersJSON,
			&a.SubmittedAt,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}

		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}

		assessments = append(assessments, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return assessments, nil
}
