package ruleset

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACE
// The store is read-heavy and append-only for writes: publishing a new
// version never mutates an existing one. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store defines persistence operations for versioned rulesets.
type Store interface {
	// Publish stores a new ruleset version as a single atomic write.
	// Returns shared.ErrRuleSetAlreadyExists if the version is already published.
	Publish(ctx context.Context, rs *RuleSet) error

	// Get returns the ruleset for an exact version string.
	// Returns shared.ErrRuleSetNotFound if the version was never published.
	Get(ctx context.Context, version string) (*RuleSet, error)

	// GetActive returns the currently active ruleset.
	// Returns shared.ErrNoActiveRuleSet if nothing has been activated yet.
	GetActive(ctx context.Context) (*RuleSet, error)

	// Activate switches the active-version pointer to the given version
	// using an atomic compare-and-set on the active record.
	// Returns shared.ErrRuleSetNotFound if the version was never published.
	Activate(ctx context.Context, version string) error

	// List returns all published rulesets ordered by version ascending.
	List(ctx context.Context) ([]*RuleSet, error)
}
