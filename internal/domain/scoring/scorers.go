package scoring

import (
	"fmt"
	"strings"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTOR ACCUMULATION
// ══════════════════════════════════════════════════════════════════════════════

// factorTally accumulates weighted sub-factors for one dimension and builds
// the rationale text as it goes, so the explanation always lists every
// contributing factor in application order.
type factorTally struct {
	points  int
	reasons []string
}

func (t *factorTally) add(points int, label string) {
	t.points += points
	t.reasons = append(t.reasons, fmt.Sprintf("%s (+%d)", label, points))
}

// finish clamps the accumulated sum to [0,100] and renders the rationale.
// Clamping rather than normalization: a scorer exceeding 100 before the
// clamp signals a rule-authoring bug, and tests assert raw sums stay in
// range for all valid inputs.
func (t *factorTally) finish() DimensionScore {
	score := t.points
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return DimensionScore{
		Score:     score,
		Rationale: strings.Join(t.reasons, "; "),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DIMENSION SCORERS
// Four independent pure functions mapping answers to a 0-100 score with a
// deterministic rationale. The point tables are part of the published
// methodology: any change here requires a new ruleset version.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreIdea scores the business idea dimension.
func ScoreIdea(answers assessment.Answers) DimensionScore {
	var t factorTally

	if answers.HasPrototype {
		t.add(50, "working prototype")
	} else {
		t.add(15, "no prototype yet")
	}

	switch answers.Stage {
	case assessment.StageConcept:
		t.add(10, "stage concept")
	case assessment.StageLaunch:
		t.add(30, "stage launch")
	case assessment.StageScale:
		t.add(40, "stage scale")
	case assessment.StageExit:
		t.add(35, "stage exit")
	}

	return t.finish()
}

// ScoreFinancials scores the financials dimension.
func ScoreFinancials(answers assessment.Answers) DimensionScore {
	var t factorTally

	if answers.HasRevenue {
		t.add(35, "generating revenue")
	} else {
		t.add(10, "pre-revenue")
	}

	switch answers.MRRBand {
	case assessment.MRRNone:
		t.add(5, "MRR band none")
	case assessment.MRRLow:
		t.add(20, "MRR band low")
	case assessment.MRRMedium:
		t.add(30, "MRR band medium")
	case assessment.MRRHigh:
		t.add(40, "MRR band high")
	}

	if answers.HasCapTable {
		t.add(15, "cap table documented")
	}
	if answers.HasExternalCapital {
		t.add(10, "external capital raised")
	}

	return t.finish()
}

// ScoreTeam scores the team dimension.
// The 50+ band scores below 11-50 on purpose: very large headcount at
// assessment time is read as an overhead-risk signal.
func ScoreTeam(answers assessment.Answers) DimensionScore {
	var t factorTally

	if answers.FullTimeTeam {
		t.add(60, "full-time team")
	} else {
		t.add(20, "part-time team")
	}

	switch answers.TeamSizeBand {
	case assessment.TeamSolo:
		t.add(15, "team size 1-2")
	case assessment.TeamSmall:
		t.add(35, "team size 3-10")
	case assessment.TeamMedium:
		t.add(40, "team size 11-50")
	case assessment.TeamLarge:
		t.add(25, "team size 50+")
	}

	return t.finish()
}

// ScoreTraction scores the traction dimension.
func ScoreTraction(answers assessment.Answers) DimensionScore {
	var t factorTally

	if answers.HasTermSheets {
		t.add(50, "term sheets in hand")
	} else {
		t.add(15, "no term sheets")
	}

	switch answers.InvestorType {
	case assessment.InvestorNone:
		t.add(5, "no investor engagement")
	case assessment.InvestorAngels:
		t.add(25, "angels engaged")
	case assessment.InvestorVC:
		t.add(35, "VC engaged")
	case assessment.InvestorLateStage:
		t.add(40, "late-stage investors engaged")
	}

	if answers.HasFundingGoal() {
		t.add(10, "funding goal stated")
	}

	return t.finish()
}

// ScoreDimensions runs all four scorers over one answers snapshot.
func ScoreDimensions(answers assessment.Answers) DimensionScores {
	return DimensionScores{
		Idea:       ScoreIdea(answers),
		Financials: ScoreFinancials(answers),
		Team:       ScoreTeam(answers),
		Traction:   ScoreTraction(answers),
	}
}
