package scoring

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SELECTOR
// ══════════════════════════════════════════════════════════════════════════════

// Selector filters the scored-assessment population for a re-score run.
// Zero-value fields are ignored; an empty selector matches every assessment
// that currently has a score.
type Selector struct {
	// AssessmentIDs restricts the run to specific assessments.
	AssessmentIDs []string

	// OwnerID restricts the run to one founder's assessments.
	OwnerID string

	// VersionConstraint is a semver range matched against the version of
	// each assessment's current score, e.g. "< 0.2.0" for "everything
	// scored under an older methodology".
	VersionConstraint string
}

// Matcher compiles the selector into a predicate over current score state.
// Returns a validation error for an unparsable version constraint.
func (s Selector) Matcher() (func(current *ScoreResult, ownerID string) bool, error) {
	var constraint *semver.Constraints
	if s.VersionConstraint != "" {
		c, err := semver.NewConstraint(s.VersionConstraint)
		if err != nil {
			return nil, shared.WrapError("scoring", "Select", shared.ErrValidation,
				"invalid version constraint "+s.VersionConstraint, err)
		}
		constraint = c
	}

	idSet := make(map[string]struct{}, len(s.AssessmentIDs))
	for _, id := range s.AssessmentIDs {
		idSet[id] = struct{}{}
	}

	return func(current *ScoreResult, ownerID string) bool {
		if current == nil {
			return false
		}
		if len(idSet) > 0 {
			if _, ok := idSet[current.AssessmentID]; !ok {
				return false
			}
		}
		if s.OwnerID != "" && s.OwnerID != ownerID {
			return false
		}
		if constraint != nil {
			v, err := semver.NewVersion(current.RuleSetVersion)
			if err != nil {
				return false
			}
			if !constraint.Check(v) {
				return false
			}
		}
		return true
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence for score results. One current result
// exists per assessment; superseded results are retained for audit.
type Repository interface {
	// SaveInitial stores the first score result of an assessment as current.
	// Returns shared.ErrAlreadyExists when a current result already exists.
	SaveInitial(ctx context.Context, result *ScoreResult) error

	// Supersede atomically marks the given previous result superseded,
	// stores the replacement as current, and appends the migration audit
	// entry. The three writes commit or fail as one unit: a failed audit
	// write leaves the previous result current, so no migration can ever
	// become current without its audit entry. The previous row is kept.
	// Returns shared.ErrConcurrentModification if previousID is no longer
	// the current result for the assessment.
	Supersede(ctx context.Context, previousID string, replacement *ScoreResult, entry *AuditEntry) error

	// GetCurrent returns the current score result for an assessment.
	// Returns shared.ErrScoreNotFound when the assessment was never scored.
	GetCurrent(ctx context.Context, assessmentID string) (*ScoreResult, error)

	// GetByID returns a score result (current or superseded) by id.
	GetByID(ctx context.Context, id string) (*ScoreResult, error)

	// ListCurrentBySelector returns the current score results matching the
	// selector, the re-score population.
	ListCurrentBySelector(ctx context.Context, sel Selector) ([]*ScoreResult, error)

	// CountCurrentNotAtVersion counts scored assessments whose current
	// result predates the given version. Used by the outdated-score job.
	CountCurrentNotAtVersion(ctx context.Context, version string) (int, error)
}

// AuditRepository defines the append-only audit trail.
// There is deliberately no update or delete in this contract.
type AuditRepository interface {
	// Append records one audit entry.
	Append(ctx context.Context, entry *AuditEntry) error

	// History returns all entries for an assessment, oldest first.
	History(ctx context.Context, assessmentID string) ([]*AuditEntry, error)
}
