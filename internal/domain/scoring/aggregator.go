package scoring

import (
	"math"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// Aggregate combines the four dimension scores into a weighted total on the
// same 0-100 scale.
//
// Weights come from the ruleset's sector override for the bucket when one
// exists, otherwise from its default dimension weights. Authored weights are
// normalized to sum to 1.0 first, so uniformly scaling a weight set never
// changes the output. Rounding is half-up to the nearest integer.
//
// An all-zero weight set fails loudly with a configuration error instead of
// returning 0: a silent zero is indistinguishable from a legitimately bad
// score.
func Aggregate(dims DimensionScores, bucket Bucket, rs *ruleset.RuleSet) (int, error) {
	weights, err := rs.WeightsFor(bucket.String()).Normalized()
	if err != nil {
		return 0, shared.WrapError("scoring", "Aggregate", shared.ErrConfiguration,
			"ruleset "+rs.VersionString()+" cannot weight bucket "+bucket.String(), err)
	}

	total := float64(dims.Idea.Score)*weights.Idea +
		float64(dims.Financials.Score)*weights.Financials +
		float64(dims.Team.Score)*weights.Team +
		float64(dims.Traction.Score)*weights.Traction

	return int(math.Floor(total + 0.5)), nil
}
