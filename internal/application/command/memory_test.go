package command

import (
	"context"
	"sort"
	"sync"

	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// In-memory fakes for command handler tests. They mirror the repository
// contracts closely enough to exercise idempotency, failure isolation, and
// audit chaining without a database.

type memAssessments struct {
	mu   sync.RWMutex
	byID map[string]*assessment.Assessment
}

func newMemAssessments() *memAssessments {
	return &memAssessments{byID: make(map[string]*assessment.Assessment)}
}

func (m *memAssessments) Create(_ context.Context, a *assessment.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; ok {
		return shared.ErrAlreadyExists
	}
	m.byID[a.ID] = a
	return nil
}

func (m *memAssessments) GetByID(_ context.Context, id string) (*assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrAssessmentNotFound
	}
	return a, nil
}

func (m *memAssessments) GetByIDs(ctx context.Context, ids []string) ([]*assessment.Assessment, error) {
	var out []*assessment.Assessment
	for _, id := range ids {
		if a, err := m.GetByID(ctx, id); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssessments) GetByOwner(_ context.Context, ownerID string, _ assessment.ListOptions) ([]*assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*assessment.Assessment
	for _, a := range m.byID {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssessments) GetAll(_ context.Context, _ assessment.ListOptions) ([]*assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*assessment.Assessment, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAssessments) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

type memScores struct {
	mu      sync.RWMutex
	current map[string]*scoring.ScoreResult // assessmentID -> current
	byID    map[string]*scoring.ScoreResult
	owners  map[string]string // assessmentID -> ownerID
	audit   *memAudit         // written inside Supersede, like the real repo

	failSupersedeFor map[string]error
	failAuditFor     map[string]error
}

func newMemScores(audit *memAudit) *memScores {
	return &memScores{
		current:          make(map[string]*scoring.ScoreResult),
		byID:             make(map[string]*scoring.ScoreResult),
		owners:           make(map[string]string),
		audit:            audit,
		failSupersedeFor: make(map[string]error),
		failAuditFor:     make(map[string]error),
	}
}

func (m *memScores) SaveInitial(_ context.Context, r *scoring.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.current[r.AssessmentID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *r
	m.current[r.AssessmentID] = &cp
	m.byID[r.ID] = &cp
	return nil
}

func (m *memScores) Supersede(ctx context.Context, previousID string, replacement *scoring.ScoreResult, entry *scoring.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failSupersedeFor[replacement.AssessmentID]; ok {
		return err
	}
	// A failed audit write aborts before anything mutates, mirroring the
	// transaction rollback of the real repository.
	if err, ok := m.failAuditFor[replacement.AssessmentID]; ok {
		return err
	}
	cur, ok := m.current[replacement.AssessmentID]
	if !ok || cur.ID != previousID {
		return shared.ErrConcurrentModification
	}
	cur.Superseded = true
	cp := *replacement
	m.current[replacement.AssessmentID] = &cp
	m.byID[replacement.ID] = &cp
	if m.audit != nil && entry != nil {
		_ = m.audit.Append(ctx, entry)
	}
	return nil
}

func (m *memScores) GetCurrent(_ context.Context, assessmentID string) (*scoring.ScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.current[assessmentID]
	if !ok {
		return nil, shared.ErrScoreNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memScores) GetByID(_ context.Context, id string) (*scoring.ScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrScoreNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memScores) ListCurrentBySelector(_ context.Context, sel scoring.Selector) ([]*scoring.ScoreResult, error) {
	match, err := sel.Matcher()
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*scoring.ScoreResult
	for assessmentID, r := range m.current {
		if match(r, m.owners[assessmentID]) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessmentID < out[j].AssessmentID })
	return out, nil
}

func (m *memScores) CountCurrentNotAtVersion(_ context.Context, version string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.current {
		if r.RuleSetVersion != version {
			n++
		}
	}
	return n, nil
}

type memAudit struct {
	mu      sync.RWMutex
	entries map[string][]*scoring.AuditEntry // assessmentID -> oldest first
}

func newMemAudit() *memAudit {
	return &memAudit{entries: make(map[string][]*scoring.AuditEntry)}
}

func (m *memAudit) Append(_ context.Context, e *scoring.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[e.AssessmentID] = append(m.entries[e.AssessmentID], &cp)
	return nil
}

func (m *memAudit) History(_ context.Context, assessmentID string) ([]*scoring.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*scoring.AuditEntry(nil), m.entries[assessmentID]...), nil
}

type memRuleSets struct {
	mu     sync.RWMutex
	byVer  map[string]*ruleset.RuleSet
	active string
}

func newMemRuleSets() *memRuleSets {
	return &memRuleSets{byVer: make(map[string]*ruleset.RuleSet)}
}

func (s *memRuleSets) Publish(_ context.Context, rs *ruleset.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rs.VersionString()
	if _, ok := s.byVer[key]; ok {
		return shared.ErrRuleSetAlreadyExists
	}
	s.byVer[key] = rs
	return nil
}

func (s *memRuleSets) Get(_ context.Context, version string) (*ruleset.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.byVer[version]
	if !ok {
		return nil, shared.ErrRuleSetNotFound
	}
	return rs, nil
}

func (s *memRuleSets) GetActive(ctx context.Context) (*ruleset.RuleSet, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active == "" {
		return nil, shared.ErrNoActiveRuleSet
	}
	return s.Get(ctx, active)
}

func (s *memRuleSets) Activate(_ context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byVer[version]; !ok {
		return shared.ErrRuleSetNotFound
	}
	s.active = version
	return nil
}

func (s *memRuleSets) List(_ context.Context) ([]*ruleset.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ruleset.RuleSet, 0, len(s.byVer))
	for _, rs := range s.byVer {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version.LessThan(out[j].Version) })
	return out, nil
}
