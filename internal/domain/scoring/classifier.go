package scoring

import (
	"github.com/venturehub/readiness-hub/internal/domain/assessment"
)

// Classify derives the sector/stage bucket from an answers snapshot.
// Pure and total: every valid input maps to a bucket, nothing is thrown.
//
// The rules form a priority-ordered decision list and the first match wins.
// The order is load-bearing: changing it changes classification for
// ambiguous inputs and breaks bit-compatibility with historical results.
func Classify(answers assessment.Answers) Bucket {
	switch {
	case answers.HasTermSheets && answers.MRRBand != assessment.MRRNone:
		return BucketB2BSaaS
	case answers.HasExternalCapital && answers.HasTermSheets:
		return BucketFinTech
	case answers.HasPrototype && !answers.HasRevenue:
		return BucketB2CConsumer
	case answers.HasRevenue && answers.MRRBand == assessment.MRRNone:
		return BucketECommerce
	default:
		return BucketB2BSaaS
	}
}
