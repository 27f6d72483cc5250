package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

func validAnswers() Answers {
	return Answers{
		MRRBand:      MRRNone,
		TeamSizeBand: TeamSmall,
		InvestorType: InvestorNone,
		Stage:        StageLaunch,
	}
}

func TestAnswers_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Answers)
		wantErr bool
	}{
		{name: "valid snapshot", mutate: func(a *Answers) {}},
		{name: "unknown mrr band", mutate: func(a *Answers) { a.MRRBand = "tons" }, wantErr: true},
		{name: "numeric team size instead of band", mutate: func(a *Answers) { a.TeamSizeBand = "7" }, wantErr: true},
		{name: "unknown investor type", mutate: func(a *Answers) { a.InvestorType = "crowdfunding" }, wantErr: true},
		{name: "unknown stage", mutate: func(a *Answers) { a.Stage = "ipo" }, wantErr: true},
		{name: "empty mrr band", mutate: func(a *Answers) { a.MRRBand = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnswers()
			tt.mutate(&a)

			err := a.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrValidation)
				assert.ErrorIs(t, err, shared.ErrInvalidAnswerValue)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnswers_HasFundingGoal(t *testing.T) {
	a := validAnswers()

	assert.False(t, a.HasFundingGoal())

	a.FundingGoal = "   \t\n"
	assert.False(t, a.HasFundingGoal())

	a.FundingGoal = "500k seed round"
	assert.True(t, a.HasFundingGoal())
}

func TestNew(t *testing.T) {
	submittedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	a, err := New("id-1", "owner-1", "acme", validAnswers(), submittedAt)
	require.NoError(t, err)
	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, "owner-1", a.OwnerID)
	assert.Equal(t, submittedAt, a.SubmittedAt)
	assert.Equal(t, submittedAt, a.CreatedAt)

	_, err = New("", "owner-1", "acme", validAnswers(), submittedAt)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	bad := validAnswers()
	bad.Stage = "ipo"
	_, err = New("id-2", "owner-1", "acme", bad, submittedAt)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
