package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// In-memory fakes for query handler tests.

type memScores struct {
	current map[string]*scoring.ScoreResult // assessmentID -> current
	listErr error
}

func newMemScores() *memScores {
	return &memScores{current: make(map[string]*scoring.ScoreResult)}
}

func (m *memScores) add(assessmentID string, total int) {
	m.current[assessmentID] = &scoring.ScoreResult{
		ID:             "score-" + assessmentID,
		AssessmentID:   assessmentID,
		TotalScore:     total,
		Bucket:         scoring.BucketB2BSaaS,
		RuleSetVersion: "0.1.0",
		ComputedAt:     time.Now().UTC(),
		ComputedBy:     scoring.ComputedBySystem,
	}
}

func (m *memScores) SaveInitial(_ context.Context, r *scoring.ScoreResult) error {
	m.current[r.AssessmentID] = r
	return nil
}

func (m *memScores) Supersede(_ context.Context, _ string, r *scoring.ScoreResult, _ *scoring.AuditEntry) error {
	m.current[r.AssessmentID] = r
	return nil
}

func (m *memScores) GetCurrent(_ context.Context, assessmentID string) (*scoring.ScoreResult, error) {
	r, ok := m.current[assessmentID]
	if !ok {
		return nil, shared.ErrScoreNotFound
	}
	return r, nil
}

func (m *memScores) GetByID(_ context.Context, id string) (*scoring.ScoreResult, error) {
	for _, r := range m.current {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, shared.ErrScoreNotFound
}

func (m *memScores) ListCurrentBySelector(_ context.Context, sel scoring.Selector) ([]*scoring.ScoreResult, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	match, err := sel.Matcher()
	if err != nil {
		return nil, err
	}
	var out []*scoring.ScoreResult
	for _, r := range m.current {
		if match(r, "") {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessmentID < out[j].AssessmentID })
	return out, nil
}

func (m *memScores) CountCurrentNotAtVersion(_ context.Context, version string) (int, error) {
	n := 0
	for _, r := range m.current {
		if r.RuleSetVersion != version {
			n++
		}
	}
	return n, nil
}

type memAudit struct {
	entries map[string][]*scoring.AuditEntry
}

func newMemAudit() *memAudit {
	return &memAudit{entries: make(map[string][]*scoring.AuditEntry)}
}

func (m *memAudit) Append(_ context.Context, e *scoring.AuditEntry) error {
	m.entries[e.AssessmentID] = append(m.entries[e.AssessmentID], e)
	return nil
}

func (m *memAudit) History(_ context.Context, assessmentID string) ([]*scoring.AuditEntry, error) {
	return m.entries[assessmentID], nil
}

type memRuleSets struct {
	byVer  map[string]*ruleset.RuleSet
	active string
}

func newMemRuleSets() *memRuleSets {
	return &memRuleSets{byVer: make(map[string]*ruleset.RuleSet)}
}

func (s *memRuleSets) Publish(_ context.Context, rs *ruleset.RuleSet) error {
	s.byVer[rs.VersionString()] = rs
	return nil
}

func (s *memRuleSets) Get(_ context.Context, version string) (*ruleset.RuleSet, error) {
	rs, ok := s.byVer[version]
	if !ok {
		return nil, shared.ErrRuleSetNotFound
	}
	return rs, nil
}

func (s *memRuleSets) GetActive(ctx context.Context) (*ruleset.RuleSet, error) {
	if s.active == "" {
		return nil, shared.ErrNoActiveRuleSet
	}
	return s.Get(ctx, s.active)
}

func (s *memRuleSets) Activate(_ context.Context, version string) error {
	if _, ok := s.byVer[version]; !ok {
		return shared.ErrRuleSetNotFound
	}
	s.active = version
	return nil
}

func (s *memRuleSets) List(_ context.Context) ([]*ruleset.RuleSet, error) {
	out := make([]*ruleset.RuleSet, 0, len(s.byVer))
	for _, rs := range s.byVer {
		out = append(out, rs)
	}
	ruleset.SortByVersion(out)
	return out, nil
}

// fakeBoard is a scripted BoardReader.
type fakeBoard struct {
	entries []BoardEntry
	err     error
	calls   int
}

func (b *fakeBoard) TopScores(_ context.Context, limit int) ([]BoardEntry, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	if len(b.entries) > limit {
		return b.entries[:limit], nil
	}
	return b.entries, nil
}

var errBoardDown = errors.New("board unavailable")
