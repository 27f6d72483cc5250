package scoring

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// memoryStore is an in-memory ruleset.Store for engine tests.
type memoryStore struct {
	mu     sync.RWMutex
	byVer  map[string]*ruleset.RuleSet
	active string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byVer: make(map[string]*ruleset.RuleSet)}
}

func (s *memoryStore) Publish(_ context.Context, rs *ruleset.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rs.VersionString()
	if _, ok := s.byVer[key]; ok {
		return shared.ErrRuleSetAlreadyExists
	}
	s.byVer[key] = rs
	return nil
}

func (s *memoryStore) Get(_ context.Context, version string) (*ruleset.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.byVer[version]
	if !ok {
		return nil, shared.ErrRuleSetNotFound
	}
	return rs, nil
}

func (s *memoryStore) GetActive(ctx context.Context) (*ruleset.RuleSet, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active == "" {
		return nil, shared.ErrNoActiveRuleSet
	}
	return s.Get(ctx, active)
}

func (s *memoryStore) Activate(_ context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byVer[version]; !ok {
		return shared.ErrRuleSetNotFound
	}
	s.active = version
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*ruleset.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ruleset.RuleSet, 0, len(s.byVer))
	for _, rs := range s.byVer {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version.LessThan(out[j].Version) })
	return out, nil
}

func seedStore(t *testing.T) *memoryStore {
	t.Helper()
	store := newMemoryStore()
	rs, err := ruleset.FromDocument(ruleset.SeedDocument())
	require.NoError(t, err)
	require.NoError(t, store.Publish(context.Background(), rs))
	require.NoError(t, store.Activate(context.Background(), rs.VersionString()))
	return store
}

func TestEngine_ScoreLaunchStageConsumer(t *testing.T) {
	engine := NewEngine(seedStore(t))

	answers := assessment.Answers{
		HasPrototype: true,
		FullTimeTeam: true,
		MRRBand:      assessment.MRRNone,
		TeamSizeBand: assessment.TeamSmall,
		InvestorType: assessment.InvestorNone,
		Stage:        assessment.StageLaunch,
		FundingGoal:  "100k",
	}

	outcome, err := engine.Score(context.Background(), answers, "")
	require.NoError(t, err)

	assert.Equal(t, BucketB2CConsumer, outcome.Bucket)
	assert.Equal(t, "0.1.0", outcome.RuleSetVersion)
	assert.Equal(t, 80, outcome.Dimensions.Idea.Score)
	assert.Equal(t, 15, outcome.Dimensions.Financials.Score)
	assert.Equal(t, 95, outcome.Dimensions.Team.Score)
	assert.Equal(t, 30, outcome.Dimensions.Traction.Score)
	assert.Equal(t, 55, outcome.TotalScore)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(seedStore(t))

	answers := assessment.Answers{
		HasPrototype:  true,
		HasRevenue:    true,
		HasTermSheets: true,
		MRRBand:       assessment.MRRMedium,
		TeamSizeBand:  assessment.TeamMedium,
		InvestorType:  assessment.InvestorVC,
		Stage:         assessment.StageScale,
		FundingGoal:   "5M series A",
	}

	first, err := engine.Score(context.Background(), answers, "")
	require.NoError(t, err)
	second, err := engine.Score(context.Background(), answers, "")
	require.NoError(t, err)

	// Byte-identical replay: same totals, same dimension scores, same rationales.
	assert.Equal(t, first, second)
}

func TestEngine_ResolvesConcreteVersion(t *testing.T) {
	store := seedStore(t)
	next, err := ruleset.FromDocument(ruleset.Document{
		Version: "0.2.0",
		Dimensions: ruleset.DocumentDimensions{
			Market: 20, Moat: 20, Financials: 30, Team: 15, Traction: 15,
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Publish(context.Background(), next))
	require.NoError(t, store.Activate(context.Background(), "0.2.0"))

	engine := NewEngine(store)

	// Empty version resolves the active ruleset and tags the outcome with
	// the concrete version, never a sentinel.
	outcome, err := engine.Score(context.Background(), validAnswers(), "")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", outcome.RuleSetVersion)

	// Explicit historical version still resolves.
	outcome, err = engine.Score(context.Background(), validAnswers(), "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", outcome.RuleSetVersion)
}

func TestEngine_UnknownVersionFails(t *testing.T) {
	engine := NewEngine(seedStore(t))

	_, err := engine.Score(context.Background(), validAnswers(), "9.9.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEngine_InvalidAnswersRejected(t *testing.T) {
	engine := NewEngine(seedStore(t))

	answers := validAnswers()
	answers.MRRBand = "gigantic"

	_, err := engine.Score(context.Background(), answers, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEngine_NoActiveRuleSet(t *testing.T) {
	engine := NewEngine(newMemoryStore())

	_, err := engine.Score(context.Background(), validAnswers(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
