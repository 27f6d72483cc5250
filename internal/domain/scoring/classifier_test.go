package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
)

func validAnswers() assessment.Answers {
	return assessment.Answers{
		MRRBand:      assessment.MRRNone,
		TeamSizeBand: assessment.TeamSmall,
		InvestorType: assessment.InvestorNone,
		Stage:        assessment.StageLaunch,
	}
}

func TestClassify_DecisionOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*assessment.Answers)
		want   Bucket
	}{
		{
			name: "term sheets with MRR wins first",
			mutate: func(a *assessment.Answers) {
				a.HasTermSheets = true
				a.MRRBand = assessment.MRRLow
				// Also satisfies the FinTech rule; order must pick B2B SaaS.
				a.HasExternalCapital = true
			},
			want: BucketB2BSaaS,
		},
		{
			name: "external capital with term sheets but no MRR",
			mutate: func(a *assessment.Answers) {
				a.HasTermSheets = true
				a.HasExternalCapital = true
				a.MRRBand = assessment.MRRNone
			},
			want: BucketFinTech,
		},
		{
			name: "prototype without revenue",
			mutate: func(a *assessment.Answers) {
				a.HasPrototype = true
				a.HasRevenue = false
			},
			want: BucketB2CConsumer,
		},
		{
			name: "revenue without recurring component",
			mutate: func(a *assessment.Answers) {
				a.HasRevenue = true
				a.MRRBand = assessment.MRRNone
			},
			want: BucketECommerce,
		},
		{
			name: "prototype rule outranks e-commerce rule",
			mutate: func(a *assessment.Answers) {
				a.HasPrototype = true
				a.HasRevenue = false
				a.MRRBand = assessment.MRRNone
			},
			want: BucketB2CConsumer,
		},
		{
			name:   "nothing matches falls back to default",
			mutate: func(a *assessment.Answers) { a.MRRBand = assessment.MRRLow },
			want:   BucketB2BSaaS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := validAnswers()
			tt.mutate(&answers)
			assert.Equal(t, tt.want, Classify(answers))
		})
	}
}

func TestClassify_TotalOverAllInputs(t *testing.T) {
	// Every combination of the categorical inputs must classify without
	// falling through to an unknown bucket.
	known := map[Bucket]bool{
		BucketB2BSaaS:     true,
		BucketFinTech:     true,
		BucketB2CConsumer: true,
		BucketECommerce:   true,
	}

	for _, answers := range allAnswerCombinations() {
		bucket := Classify(answers)
		assert.True(t, known[bucket], "unknown bucket %q", bucket)
	}
}
