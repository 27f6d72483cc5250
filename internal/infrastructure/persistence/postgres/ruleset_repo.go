package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/jackc/pgx/v5"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE SET STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RuleSetStore implements ruleset.Store for PostgreSQL. Published versions
// are immutable rows keyed by version string; the active pointer lives in
// a single-row table and moves in a transaction with the existence check.
type RuleSetStore struct {
	conn *Connection
}

// NewRuleSetStore creates a new RuleSetStore.
func NewRuleSetStore(conn *Connection) *RuleSetStore {
	return &RuleSetStore{conn: conn}
}

// Publish stores a new ruleset version as a single atomic write.
func (r *RuleSetStore) Publish(ctx context.Context, rs *ruleset.RuleSet) error {
	query := `
		INSERT INTO rule_sets (version, dimension_weights, sector_overrides, published_at, published_by)
		VALUES ($1, $2, $3, $4, $5)
	`

	weightsJSON, err := json.Marshal(rs.DimensionWeights)
	if err != nil {
		return fmt.Errorf("failed to marshal dimension weights: %w", err)
	}

	overrides := rs.SectorOverrides
	if overrides == nil {
		overrides = map[string]ruleset.Weights{}
	}
	overridesJSON, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to marshal sector overrides: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		rs.VersionString(),
		weightsJSON,
		overridesJSON,
		rs.PublishedAt,
		rs.PublishedBy,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrRuleSetAlreadyExists
		}
		return fmt.Errorf("failed to publish ruleset: %w", err)
	}

	return nil
}

// Get returns the ruleset for an exact version string.
func (r *RuleSetStore) Get(ctx context.Context, version string) (*ruleset.RuleSet, error) {
	query := `
		SELECT version, dimension_weights, sector_overrides, published_at, published_by
		FROM rule_sets
		WHERE version = $1
	`

	row := r.conn.QueryRow(ctx, query, version)
	return r.scanRuleSet(row)
}

// GetActive returns the currently active ruleset.
func (r *RuleSetStore) GetActive(ctx context.Context) (*ruleset.RuleSet, error) {
	query := `
		SELECT rs.version, rs.dimension_weights, rs.sector_overrides, rs.published_at, rs.published_by
		FROM rule_sets rs
		JOIN active_rule_set a ON a.version = rs.version
	`

	row := r.conn.QueryRow(ctx, query)
	rs, err := r.scanRuleSet(row)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrNoActiveRuleSet
		}
		return nil, err
	}
	return rs, nil
}

// Activate switches the active-version pointer to the given version.
// The existence check and the pointer swap share one transaction.
func (r *RuleSetStore) Activate(ctx context.Context, version string) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM rule_sets WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check ruleset existence: %w", err)
		}
		if !exists {
			return shared.ErrRuleSetNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO active_rule_set (singleton, version, activated_at)
			VALUES (TRUE, $1, NOW())
			ON CONFLICT (singleton) DO UPDATE SET
				version = EXCLUDED.version,
				activated_at = EXCLUDED.activated_at
		`, version)
		if err != nil {
			return fmt.Errorf("failed to switch active ruleset: %w", err)
		}

		return nil
	})
}

// List returns all published rulesets ordered by version ascending.
// Version strings sort semantically in process: "0.10.0" follows "0.9.0".
func (r *RuleSetStore) List(ctx context.Context) ([]*ruleset.RuleSet, error) {
	query := `
		SELECT version, dimension_weights, sector_overrides, published_at, published_by
		FROM rule_sets
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rulesets: %w", err)
	}
	defer rows.Close()

	var sets []*ruleset.RuleSet
	for rows.Next() {
		rs, err := r.scanRuleSetFromRows(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	ruleset.SortByVersion(sets)
	return sets, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *RuleSetStore) scanRuleSet(row pgx.Row) (*ruleset.RuleSet, error) {
	var rs ruleset.RuleSet
	var version string
	var weightsJSON, overridesJSON []byte

	err := row.Scan(&version, &weightsJSON, &overridesJSON, &rs.PublishedAt, &rs.PublishedBy)

	if IsNoRows(err) {
		return nil, shared.ErrRuleSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ruleset: %w", err)
	}

	return r.hydrate(&rs, version, weightsJSON, overridesJSON)
}

func (r *RuleSetStore) scanRuleSetFromRows(rows pgx.Rows) (*ruleset.RuleSet, error) {
	var rs ruleset.RuleSet
	var version string
	var weightsJSON, overridesJSON []byte

	err := rows.Scan(&version, &weightsJSON, &overridesJSON, &rs.PublishedAt, &rs.PublishedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ruleset: %w", err)
	}

	return r.hydrate(&rs, version, weightsJSON, overridesJSON)
}

func (r *RuleSetStore) hydrate(rs *ruleset.RuleSet, version string, weightsJSON, overridesJSON []byte) (*ruleset.RuleSet, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("stored ruleset has invalid version %q: %w", version, err)
	}
	rs.Version = v

	if err := json.Unmarshal(weightsJSON, &rs.DimensionWeights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dimension weights: %w", err)
	}
	if len(overridesJSON) > 0 {
		if err := json.Unmarshal(overridesJSON, &rs.SectorOverrides); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sector overrides: %w", err)
		}
	}

	return rs, nil
}
