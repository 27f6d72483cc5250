// Package assessment contains the domain model for investment readiness
// assessments. An assessment is an immutable snapshot of founder answers
// captured at submission time; retakes create a new assessment rather than
// mutating an old one. This is the core input of the scoring engine -
// there are no external dependencies here.
package assessment

import (
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// MRRBand classifies monthly recurring revenue into coarse bands.
// Validated once at intake so downstream scorers operate on a closed set.
type MRRBand string

const (
	MRRNone   MRRBand = "none"
	MRRLow    MRRBand = "low"
	MRRMedium MRRBand = "medium"
	MRRHigh   MRRBand = "high"
)

// IsValid checks that the MRR band is one of the known values.
func (m MRRBand) IsValid() bool {
	switch m {
	case MRRNone, MRRLow, MRRMedium, MRRHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MRRBand) String() string {
	return string(m)
}

// TeamSizeBand classifies headcount into coarse bands.
type TeamSizeBand string

const (
	TeamSolo   TeamSizeBand = "1-2"
	TeamSmall  TeamSizeBand = "3-10"
	TeamMedium TeamSizeBand = "11-50"
	TeamLarge  TeamSizeBand = "50+"
)

// IsValid checks that the team size band is one of the known values.
func (t TeamSizeBand) IsValid() bool {
	switch t {
	case TeamSolo, TeamSmall, TeamMedium, TeamLarge:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TeamSizeBand) String() string {
	return string(t)
}

// InvestorType is the most advanced investor class the startup has engaged.
type InvestorType string

const (
	InvestorNone      InvestorType = "none"
	InvestorAngels    InvestorType = "angels"
	InvestorVC        InvestorType = "vc"
	InvestorLateStage InvestorType = "lateStage"
)

// IsValid checks that the investor type is one of the known values.
func (i InvestorType) IsValid() bool {
	switch i {
	case InvestorNone, InvestorAngels, InvestorVC, InvestorLateStage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i InvestorType) String() string {
	return string(i)
}

// Stage is the startup's self-reported lifecycle stage.
type Stage string

const (
	StageConcept Stage = "concept"
	StageLaunch  Stage = "launch"
	StageScale   Stage = "scale"
	StageExit    Stage = "exit"
)

// IsValid checks that the stage is one of the known values.
func (s Stage) IsValid() bool {
	switch s {
	case StageConcept, StageLaunch, StageScale, StageExit:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// ANSWERS
// ══════════════════════════════════════════════════════════════════════════════

// Answers is the immutable snapshot of user input at submission time.
// The scoring engine borrows a read-only reference; it never mutates answers.
type Answers struct {
	HasPrototype       bool         `json:"hasPrototype"`
	HasExternalCapital bool         `json:"hasExternalCapital"`
	HasRevenue         bool         `json:"hasRevenue"`
	FullTimeTeam       bool         `json:"fullTimeTeam"`
	HasTermSheets      bool         `json:"hasTermSheets"`
	HasCapTable        bool         `json:"hasCapTable"`
	MRRBand            MRRBand      `json:"mrrBand"`
	TeamSizeBand       TeamSizeBand `json:"teamSizeBand"`
	InvestorType       InvestorType `json:"investorTypeEngaged"`
	Stage              Stage        `json:"stage"`
	FundingGoal        string       `json:"fundingGoal"`
}

// Validate checks every categorical field against its closed value set.
// Scoring refuses to run on invalid answers: no partial or guessed scores.
func (a Answers) Validate() error {
	if !a.MRRBand.IsValid() {
		return shared.WrapError("assessment", "Validate", shared.ErrValidation,
			"invalid mrrBand "+string(a.MRRBand), shared.ErrInvalidAnswerValue)
	}
	if !a.TeamSizeBand.IsValid() {
		return shared.WrapError("assessment", "Validate", shared.ErrValidation,
			"invalid teamSizeBand "+string(a.TeamSizeBand), shared.ErrInvalidAnswerValue)
	}
	if !a.InvestorType.IsValid() {
		return shared.WrapError("assessment", "Validate", shared.ErrValidation,
			"invalid investorTypeEngaged "+string(a.InvestorType), shared.ErrInvalidAnswerValue)
	}
	if !a.Stage.IsValid() {
		return shared.WrapError("assessment", "Validate", shared.ErrValidation,
			"invalid stage "+string(a.Stage), shared.ErrInvalidAnswerValue)
	}
	return nil
}

// HasFundingGoal reports whether a funding goal was stated.
// Whitespace-only input counts as unstated.
func (a Answers) HasFundingGoal() bool {
	for _, r := range a.FundingGoal {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Assessment is the aggregate root owning one answers snapshot.
type Assessment struct {
	// ID is the unique assessment identifier (UUID).
	ID string

	// OwnerID identifies the founder/account that submitted the assessment.
	OwnerID string

	// StartupName is the display name captured at submission.
	StartupName string

	// Answers is the immutable input snapshot.
	Answers Answers

	// SubmittedAt is when the founder completed the wizard.
	SubmittedAt time.Time

	CreatedAt time.Time
}

// New creates a new assessment after validating the answers snapshot.
func New(id, ownerID, startupName string, answers Answers, submittedAt time.Time) (*Assessment, error) {
	if id == "" {
		return nil, shared.NewDomainError("assessment", "New", shared.ErrInvalidID, "assessment id is required")
	}
	if err := answers.Validate(); err != nil {
		return nil, err
	}
	return &Assessment{
		ID:          id,
		OwnerID:     ownerID,
		StartupName: startupName,
		Answers:     answers,
		SubmittedAt: submittedAt,
		CreatedAt:   submittedAt,
	}, nil
}
