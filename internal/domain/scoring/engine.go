package scoring

import (
	"context"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// Engine is the scoring facade: it orchestrates the classifier, the four
// dimension scorers, and the aggregator for a single assessment. The engine
// itself has no side effects - persistence and audit are the caller's
// responsibility - so the same (answers, ruleset) pair always replays to an
// identical outcome.
type Engine struct {
	rulesets ruleset.Store
}

// NewEngine creates a scoring engine backed by the given ruleset store.
func NewEngine(rulesets ruleset.Store) *Engine {
	return &Engine{rulesets: rulesets}
}

// Outcome is one scoring run before it is assigned an identity and
// persisted: the classified bucket, the four dimension scores, the weighted
// total, and the concrete ruleset version they were computed under.
type Outcome struct {
	RuleSetVersion string
	Bucket         Bucket
	Dimensions     DimensionScores
	TotalScore     int
}

// Score computes the outcome for one answers snapshot.
//
// When version is empty the currently active ruleset is used; the outcome is
// always tagged with the resolved concrete version, never a "latest"
// sentinel. An explicit version that was never published fails with
// shared.ErrRuleSetNotFound. Invalid answers fail with a validation error:
// no partial or guessed score is ever produced.
func (e *Engine) Score(ctx context.Context, answers assessment.Answers, version string) (*Outcome, error) {
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	rs, err := e.resolveRuleSet(ctx, version)
	if err != nil {
		return nil, err
	}

	return ScoreWith(answers, rs)
}

// ScoreWith runs the pure computation against an already-resolved ruleset.
// Exposed separately so replay paths (re-score, reproducibility checks) can
// bypass the store lookup.
func ScoreWith(answers assessment.Answers, rs *ruleset.RuleSet) (*Outcome, error) {
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	bucket := Classify(answers)
	dims := ScoreDimensions(answers)

	total, err := Aggregate(dims, bucket, rs)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		RuleSetVersion: rs.VersionString(),
		Bucket:         bucket,
		Dimensions:     dims,
		TotalScore:     total,
	}, nil
}

func (e *Engine) resolveRuleSet(ctx context.Context, version string) (*ruleset.RuleSet, error) {
	if version == "" {
		rs, err := e.rulesets.GetActive(ctx)
		if err != nil {
			return nil, shared.WrapError("scoring", "Score", shared.ErrNotFound,
				"no active ruleset available", err)
		}
		return rs, nil
	}

	rs, err := e.rulesets.Get(ctx, version)
	if err != nil {
		return nil, err
	}
	return rs, nil
}
