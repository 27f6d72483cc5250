package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// Fakes covering the decision paths before the batch handler is invoked.
// The batch pipeline itself is exercised by the command package tests.

type fakeRuleSets struct {
	active *ruleset.RuleSet
}

func (f *fakeRuleSets) Publish(context.Context, *ruleset.RuleSet) error { return nil }
func (f *fakeRuleSets) Get(context.Context, string) (*ruleset.RuleSet, error) {
	return nil, shared.ErrRuleSetNotFound
}
func (f *fakeRuleSets) Activate(context.Context, string) error { return nil }
func (f *fakeRuleSets) List(context.Context) ([]*ruleset.RuleSet, error) {
	return nil, nil
}

func (f *fakeRuleSets) GetActive(context.Context) (*ruleset.RuleSet, error) {
	if f.active == nil {
		return nil, shared.ErrNoActiveRuleSet
	}
	return f.active, nil
}

type fakeScores struct {
	outdated int
}

func (f *fakeScores) SaveInitial(context.Context, *scoring.ScoreResult) error { return nil }
func (f *fakeScores) Supersede(context.Context, string, *scoring.ScoreResult, *scoring.AuditEntry) error {
	return nil
}
func (f *fakeScores) GetCurrent(context.Context, string) (*scoring.ScoreResult, error) {
	return nil, shared.ErrScoreNotFound
}
func (f *fakeScores) GetByID(context.Context, string) (*scoring.ScoreResult, error) {
	return nil, shared.ErrScoreNotFound
}
func (f *fakeScores) ListCurrentBySelector(context.Context, scoring.Selector) ([]*scoring.ScoreResult, error) {
	return nil, nil
}

func (f *fakeScores) CountCurrentNotAtVersion(context.Context, string) (int, error) {
	return f.outdated, nil
}

type fakeLocker struct {
	held     bool
	setCalls int
	deleted  []string
}

func (l *fakeLocker) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	l.setCalls++
	return !l.held, nil
}

func (l *fakeLocker) Delete(_ context.Context, keys ...string) error {
	l.deleted = append(l.deleted, keys...)
	return nil
}

func activeRuleSet(t *testing.T) *ruleset.RuleSet {
	t.Helper()
	rs, err := ruleset.FromDocument(ruleset.SeedDocument())
	require.NoError(t, err)
	return rs
}

func TestRescoreOutdated_NoActiveRuleSet(t *testing.T) {
	job := NewRescoreOutdatedJob(nil, &fakeScores{}, &fakeRuleSets{}, nil, nil, DefaultRescoreOutdatedConfig())

	// Nothing to migrate towards; the run is a no-op, not a failure.
	assert.NoError(t, job.Run(context.Background()))
	assert.Nil(t, job.LastRun())
}

func TestRescoreOutdated_PopulationUpToDate(t *testing.T) {
	locker := &fakeLocker{}
	job := NewRescoreOutdatedJob(nil, &fakeScores{outdated: 0}, &fakeRuleSets{active: activeRuleSet(t)}, locker, nil, DefaultRescoreOutdatedConfig())

	assert.NoError(t, job.Run(context.Background()))

	// The lock is never taken when there is nothing to do.
	assert.Zero(t, locker.setCalls)
}

func TestRescoreOutdated_SkipsWhenLockHeld(t *testing.T) {
	locker := &fakeLocker{held: true}
	job := NewRescoreOutdatedJob(nil, &fakeScores{outdated: 3}, &fakeRuleSets{active: activeRuleSet(t)}, locker, nil, DefaultRescoreOutdatedConfig())

	// Another worker instance holds the lock; skipping must not error.
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, locker.setCalls)
	assert.Empty(t, locker.deleted)
}

func TestRescoreOutdated_BelowMinimumThreshold(t *testing.T) {
	cfg := DefaultRescoreOutdatedConfig()
	cfg.MinOutdated = 10

	locker := &fakeLocker{}
	job := NewRescoreOutdatedJob(nil, &fakeScores{outdated: 3}, &fakeRuleSets{active: activeRuleSet(t)}, locker, nil, cfg)

	assert.NoError(t, job.Run(context.Background()))
	assert.Zero(t, locker.setCalls)
}
