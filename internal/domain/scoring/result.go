// Package scoring implements the versioned scoring engine: bucket
// classification, the four dimension scorers, weight aggregation, and the
// audit types that make every score reproducible. Classification and
// scoring are pure functions of (answers, ruleset) - given the same two
// inputs they must produce byte-identical results forever.
package scoring

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUCKETS
// ══════════════════════════════════════════════════════════════════════════════

// Bucket is a derived sector/stage classification used to select dimension
// weights. Buckets are recomputed on demand, never persisted independently.
type Bucket string

const (
	BucketB2BSaaS     Bucket = "B2B SaaS"
	BucketFinTech     Bucket = "FinTech"
	BucketB2CConsumer Bucket = "B2C Consumer"
	BucketECommerce   Bucket = "E-commerce"
)

// String returns the bucket label.
func (b Bucket) String() string {
	return string(b)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIMENSION SCORES
// ══════════════════════════════════════════════════════════════════════════════

// Dimension is one of the four scored axes.
type Dimension string

const (
	DimensionIdea       Dimension = "idea"
	DimensionFinancials Dimension = "financials"
	DimensionTeam       Dimension = "team"
	DimensionTraction   Dimension = "traction"
)

// DimensionScore is one scored axis with its human-readable explanation.
// The rationale is a deterministic template listing every factor that
// contributed, in application order - it feeds the UI explanation text
// and audit diffing.
type DimensionScore struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// DimensionScores holds all four axes of one scoring run.
type DimensionScores struct {
	Idea       DimensionScore `json:"idea"`
	Financials DimensionScore `json:"financials"`
	Team       DimensionScore `json:"team"`
	Traction   DimensionScore `json:"traction"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RESULT
// ══════════════════════════════════════════════════════════════════════════════

// ComputedBy identifies what produced a score result.
type ComputedBy string

const (
	// ComputedBySystem marks scores produced for a fresh submission.
	ComputedBySystem ComputedBy = "system"
	// ComputedByRescore marks scores produced by a re-score batch job.
	ComputedByRescore ComputedBy = "re-score job"
)

// ScoreResult is the output of one scoring run, always traceable to exactly
// one ruleset version and one answers snapshot. One current result exists
// per assessment; prior results are retained as superseded, never deleted.
type ScoreResult struct {
	// ID is the unique result identifier (UUID).
	ID string

	// AssessmentID references the scored assessment.
	AssessmentID string

	// RuleSetVersion is the concrete resolved version the score was computed
	// under - never a "latest" sentinel, so later replay is unambiguous.
	RuleSetVersion string

	// Bucket is the sector/stage classification used for weight selection.
	Bucket Bucket

	// Dimensions are the four axis scores with rationales.
	Dimensions DimensionScores

	// TotalScore is the weighted total, 0-100.
	TotalScore int

	// ComputedAt is when this result was produced.
	ComputedAt time.Time

	// ComputedBy records whether the system or a re-score job produced it.
	ComputedBy ComputedBy

	// Superseded marks results replaced by a later scoring run.
	Superseded bool
}

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// AuditEntry links a superseded score result to its replacement.
// Entries are append-only: no update or delete operation exists.
type AuditEntry struct {
	// ID is the unique entry identifier (UUID).
	ID string

	// AssessmentID references the affected assessment.
	AssessmentID string

	// PreviousScoreResultID is empty for the first score of an assessment.
	PreviousScoreResultID string

	// NewScoreResultID references the result that became current.
	NewScoreResultID string

	// RuleSetVersionBefore is empty for the first score of an assessment.
	RuleSetVersionBefore string

	// RuleSetVersionAfter is the version the new result was computed under.
	RuleSetVersionAfter string

	// TotalScoreBefore is the superseded total (0 when there was none).
	TotalScoreBefore int

	// TotalScoreAfter is the new total.
	TotalScoreAfter int

	// TriggeredBy identifies the actor: "system" or the re-score requester.
	TriggeredBy string

	// Reason is the human-stated cause, e.g. "methodology update".
	Reason string

	// Timestamp is when the entry was appended.
	Timestamp time.Time
}
