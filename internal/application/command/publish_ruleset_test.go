package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

func TestPublishRuleSet_HappyPath(t *testing.T) {
	store := newMemRuleSets()
	h := NewPublishRuleSetHandler(store, nil, nil)

	res, err := h.Handle(context.Background(), PublishRuleSetCommand{
		Document:    ruleset.SeedDocument(),
		PublishedBy: "methodology-team",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.1.0", res.Version)
	assert.False(t, res.Activated)
	require.Len(t, res.Events, 1)

	published, err := store.Get(context.Background(), "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "methodology-team", published.PublishedBy)
	assert.False(t, published.PublishedAt.IsZero())

	// Publishing alone never moves the active pointer.
	_, err = store.GetActive(context.Background())
	assert.ErrorIs(t, err, shared.ErrNoActiveRuleSet)
}

func TestPublishRuleSet_WithActivation(t *testing.T) {
	store := newMemRuleSets()
	h := NewPublishRuleSetHandler(store, nil, nil)

	res, err := h.Handle(context.Background(), PublishRuleSetCommand{
		Document:    ruleset.SeedDocument(),
		Activate:    true,
		PublishedBy: "methodology-team",
	})
	require.NoError(t, err)
	assert.True(t, res.Activated)

	active, err := store.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", active.VersionString())
}

func TestPublishRuleSet_DuplicateVersionRejected(t *testing.T) {
	store := newMemRuleSets()
	h := NewPublishRuleSetHandler(store, nil, nil)

	cmd := PublishRuleSetCommand{
		Document:    ruleset.SeedDocument(),
		PublishedBy: "methodology-team",
	}
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestPublishRuleSet_InvalidDocumentRejected(t *testing.T) {
	store := newMemRuleSets()
	h := NewPublishRuleSetHandler(store, nil, nil)

	doc := ruleset.SeedDocument()
	doc.Dimensions.Market = 50 // percentages no longer sum to 100

	_, err := h.Handle(context.Background(), PublishRuleSetCommand{
		Document:    doc,
		PublishedBy: "methodology-team",
	})
	assert.Error(t, err)

	list, listErr := store.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestPublishRuleSet_RequiresPublisher(t *testing.T) {
	h := NewPublishRuleSetHandler(newMemRuleSets(), nil, nil)

	_, err := h.Handle(context.Background(), PublishRuleSetCommand{
		Document: ruleset.SeedDocument(),
	})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestActivateRuleSet_HappyPath(t *testing.T) {
	store := newMemRuleSets()
	publish := NewPublishRuleSetHandler(store, nil, nil)
	activate := NewActivateRuleSetHandler(store, nil, nil)

	_, err := publish.Handle(context.Background(), PublishRuleSetCommand{
		Document:    ruleset.SeedDocument(),
		PublishedBy: "methodology-team",
	})
	require.NoError(t, err)

	require.NoError(t, activate.Handle(context.Background(), ActivateRuleSetCommand{
		Version:     "0.1.0",
		ActivatedBy: "ops",
	}))

	active, err := store.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", active.VersionString())
}

func TestActivateRuleSet_UnknownVersion(t *testing.T) {
	activate := NewActivateRuleSetHandler(newMemRuleSets(), nil, nil)

	err := activate.Handle(context.Background(), ActivateRuleSetCommand{
		Version:     "9.9.9",
		ActivatedBy: "ops",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestActivateRuleSet_Validation(t *testing.T) {
	activate := NewActivateRuleSetHandler(newMemRuleSets(), nil, nil)

	err := activate.Handle(context.Background(), ActivateRuleSetCommand{ActivatedBy: "ops"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	err = activate.Handle(context.Background(), ActivateRuleSetCommand{Version: "0.1.0"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}
