package eventhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

type fakeScoreCache struct {
	totals        map[string]int
	invalidated   []string
	setErr        error
	invalidateErr error
}

func newFakeScoreCache() *fakeScoreCache {
	return &fakeScoreCache{totals: make(map[string]int)}
}

func (f *fakeScoreCache) SetCurrent(_ context.Context, assessmentID string, totalScore int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.totals[assessmentID] = totalScore
	return nil
}

func (f *fakeScoreCache) InvalidateScore(_ context.Context, assessmentID string) error {
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.invalidated = append(f.invalidated, assessmentID)
	delete(f.totals, assessmentID)
	return nil
}

type fakeSubscriber struct {
	subscribed []shared.EventType
}

func (f *fakeSubscriber) Subscribe(eventType shared.EventType, _ shared.EventHandler) error {
	f.subscribed = append(f.subscribed, eventType)
	return nil
}

func (f *fakeSubscriber) SubscribeAll(shared.EventHandler) error { return nil }

func TestOnScoreComputed_RefreshesCache(t *testing.T) {
	cache := newFakeScoreCache()
	h := NewOnScoreComputedHandler(cache, nil)

	event := shared.NewScoreComputedEvent("a-1", "result-1", "0.1.0", "B2B SaaS", 55, "system")
	require.NoError(t, h.Handle(event))

	assert.Equal(t, 55, cache.totals["a-1"])
	assert.Empty(t, cache.invalidated)
}

func TestOnScoreSuperseded_InvalidatesThenRefreshes(t *testing.T) {
	cache := newFakeScoreCache()
	cache.totals["a-1"] = 55
	h := NewOnScoreComputedHandler(cache, nil)

	event := shared.NewScoreSupersededEvent("a-1", "result-1", "result-2",
		"0.1.0", "0.2.0", 55, 61, "analyst@venturehub")
	require.NoError(t, h.Handle(event))

	assert.Equal(t, []string{"a-1"}, cache.invalidated)
	assert.Equal(t, 61, cache.totals["a-1"])
}

func TestOnScoreComputed_CacheFailureIsAbsorbed(t *testing.T) {
	cache := newFakeScoreCache()
	cache.setErr = shared.ErrPersistence
	cache.invalidateErr = shared.ErrPersistence
	h := NewOnScoreComputedHandler(cache, nil)

	// Cache maintenance is best-effort: a degraded cache must never fail
	// the event pipeline.
	assert.NoError(t, h.Handle(shared.NewScoreComputedEvent("a-1", "result-1", "0.1.0", "B2B SaaS", 55, "system")))
	assert.NoError(t, h.Handle(shared.NewScoreSupersededEvent("a-1", "result-1", "result-2",
		"0.1.0", "0.2.0", 55, 61, "analyst@venturehub")))
	assert.Empty(t, cache.totals)
}

func TestOnScoreComputed_RejectsUnexpectedEvent(t *testing.T) {
	h := NewOnScoreComputedHandler(newFakeScoreCache(), nil)

	err := h.Handle(shared.NewRuleSetPublishedEvent("0.3.0", false, "analyst@venturehub"))
	assert.Error(t, err)
}

func TestOnScoreComputed_SubscribesToBothEvents(t *testing.T) {
	bus := &fakeSubscriber{}
	h := NewOnScoreComputedHandler(newFakeScoreCache(), nil)

	require.NoError(t, h.Subscribe(bus))
	assert.Equal(t, []shared.EventType{shared.EventScoreComputed, shared.EventScoreSuperseded}, bus.subscribed)
}
