package query

import (
	"context"
	"errors"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST RULESETS QUERY
// Returns every published methodology version, flagging the active one.
// ══════════════════════════════════════════════════════════════════════════════

// RuleSetDTO is the wire representation of one published ruleset.
type RuleSetDTO struct {
	Version          string                     `json:"version"`
	DimensionWeights ruleset.Weights            `json:"dimensionWeights"`
	SectorOverrides  map[string]ruleset.Weights `json:"sectorOverrides,omitempty"`
	Active           bool                       `json:"active"`
	PublishedAt      time.Time                  `json:"publishedAt"`
	PublishedBy      string                     `json:"publishedBy"`
}

// ListRuleSetsHandler handles the query.
type ListRuleSetsHandler struct {
	store ruleset.Store
}

// NewListRuleSetsHandler creates the handler.
func NewListRuleSetsHandler(store ruleset.Store) *ListRuleSetsHandler {
	return &ListRuleSetsHandler{store: store}
}

// Handle returns all published rulesets ordered by version ascending.
func (h *ListRuleSetsHandler) Handle(ctx context.Context) ([]RuleSetDTO, error) {
	all, err := h.store.List(ctx)
	if err != nil {
		return nil, err
	}

	activeVersion := ""
	active, err := h.store.GetActive(ctx)
	switch {
	case err == nil:
		activeVersion = active.VersionString()
	case errors.Is(err, shared.ErrNotFound):
		// Nothing activated yet; every entry reports inactive.
	default:
		return nil, err
	}

	dtos := make([]RuleSetDTO, 0, len(all))
	for _, rs := range all {
		dtos = append(dtos, RuleSetDTO{
			Version:          rs.VersionString(),
			DimensionWeights: rs.DimensionWeights,
			SectorOverrides:  rs.SectorOverrides,
			Active:           rs.VersionString() == activeVersion,
			PublishedAt:      rs.PublishedAt,
			PublishedBy:      rs.PublishedBy,
		})
	}
	return dtos, nil
}
