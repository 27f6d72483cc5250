// Package ruleset contains the versioned scoring configuration model.
// A RuleSet is immutable once published: a methodology change is always a new
// version, never an in-place edit. All historical versions are retained so any
// historical score can be reproduced exactly.
package ruleset

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// percentTolerance is the allowed drift when authored percentages are
// checked against 100. Authoring tools emit floats, so exact equality
// is too strict.
const percentTolerance = 0.01

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHTS
// ══════════════════════════════════════════════════════════════════════════════

// Weights holds the relative importance of each scored dimension.
// Weights are normalized to sum to 1.0 before aggregation.
type Weights struct {
	Idea       float64 `json:"idea"`
	Financials float64 `json:"financials"`
	Team       float64 `json:"team"`
	Traction   float64 `json:"traction"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Idea + w.Financials + w.Team + w.Traction
}

// Normalized returns a copy scaled so the weights sum to 1.0.
// Returns shared.ErrZeroWeights when the sum is zero and a configuration
// error when any weight is negative; a silent zero total would be
// indistinguishable from a legitimately bad score.
func (w Weights) Normalized() (Weights, error) {
	if w.Idea < 0 || w.Financials < 0 || w.Team < 0 || w.Traction < 0 {
		return Weights{}, shared.NewDomainError("ruleset", "Normalize", shared.ErrConfiguration,
			"dimension weights must not be negative")
	}
	sum := w.Sum()
	if sum == 0 {
		return Weights{}, shared.ErrZeroWeights
	}
	return Weights{
		Idea:       w.Idea / sum,
		Financials: w.Financials / sum,
		Team:       w.Team / sum,
		Traction:   w.Traction / sum,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RULESET
// ══════════════════════════════════════════════════════════════════════════════

// RuleSet is one immutable, versioned scoring configuration.
type RuleSet struct {
	// Version is the semantic version of this configuration.
	Version *semver.Version

	// DimensionWeights are the default weights applied when the classified
	// bucket has no sector override.
	DimensionWeights Weights

	// SectorOverrides maps a bucket label to bucket-specific weights.
	SectorOverrides map[string]Weights

	// PublishedAt is when this version was published.
	PublishedAt time.Time

	// PublishedBy identifies the actor that published this version.
	PublishedBy string
}

// VersionString returns the canonical version string, e.g. "0.2.0".
func (r *RuleSet) VersionString() string {
	return r.Version.String()
}

// WeightsFor returns the weights for the given bucket: the sector override
// when one exists, otherwise the default dimension weights.
func (r *RuleSet) WeightsFor(bucket string) Weights {
	if w, ok := r.SectorOverrides[bucket]; ok {
		return w
	}
	return r.DimensionWeights
}

// Validate checks that the ruleset can produce a total score for every bucket.
func (r *RuleSet) Validate() error {
	if r.Version == nil {
		return shared.NewDomainError("ruleset", "Validate", shared.ErrConfiguration, "version is required")
	}
	if _, err := r.DimensionWeights.Normalized(); err != nil {
		return err
	}
	for bucket, w := range r.SectorOverrides {
		if _, err := w.Normalized(); err != nil {
			return shared.WrapError("ruleset", "Validate", shared.ErrConfiguration,
				fmt.Sprintf("sector override for %q is invalid", bucket), err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHORED DOCUMENT
// ══════════════════════════════════════════════════════════════════════════════

// DocumentDimensions is the authored five-dimension percentage split.
// Market and Moat are authored separately but scored as one Idea dimension:
// the engine derives idea = market + moat before normalizing. This merge is
// a fixed mapping, not configurable per call.
type DocumentDimensions struct {
	Market     float64 `json:"market"`
	Moat       float64 `json:"moat"`
	Financials float64 `json:"financials"`
	Team       float64 `json:"team"`
	Traction   float64 `json:"traction"`
}

// Sum returns the total of all authored percentages.
func (d DocumentDimensions) Sum() float64 {
	return d.Market + d.Moat + d.Financials + d.Team + d.Traction
}

// toWeights folds the authored dimensions into the four scored dimensions.
func (d DocumentDimensions) toWeights() Weights {
	return Weights{
		Idea:       d.Market + d.Moat,
		Financials: d.Financials,
		Team:       d.Team,
		Traction:   d.Traction,
	}
}

// Document is the versioned ruleset document as authored, with percentages
// summing to 100.
type Document struct {
	Version         string                        `json:"version"`
	Dimensions      DocumentDimensions            `json:"dimensions"`
	SectorOverrides map[string]DocumentDimensions `json:"sectorOverrides,omitempty"`
}

// ParseDocument parses and validates an authored ruleset document and
// returns the immutable RuleSet it describes.
func ParseDocument(data []byte) (*RuleSet, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shared.WrapError("ruleset", "Parse", shared.ErrConfiguration,
			"ruleset document is not valid JSON", err)
	}
	return FromDocument(doc)
}

// FromDocument validates an authored document and builds a RuleSet.
func FromDocument(doc Document) (*RuleSet, error) {
	version, err := semver.StrictNewVersion(doc.Version)
	if err != nil {
		return nil, shared.WrapError("ruleset", "Parse", shared.ErrConfiguration,
			fmt.Sprintf("invalid semantic version %q", doc.Version), err)
	}

	if err := validateDimensions("dimensions", doc.Dimensions); err != nil {
		return nil, err
	}

	rs := &RuleSet{
		Version:          version,
		DimensionWeights: doc.Dimensions.toWeights(),
	}

	if len(doc.SectorOverrides) > 0 {
		rs.SectorOverrides = make(map[string]Weights, len(doc.SectorOverrides))
		for bucket, dims := range doc.SectorOverrides {
			if bucket == "" {
				return nil, shared.NewDomainError("ruleset", "Parse", shared.ErrConfiguration,
					"sector override bucket label cannot be empty")
			}
			if err := validateDimensions(fmt.Sprintf("sectorOverrides[%s]", bucket), dims); err != nil {
				return nil, err
			}
			rs.SectorOverrides[bucket] = dims.toWeights()
		}
	}

	return rs, nil
}

// validateDimensions checks an authored percentage block: non-negative
// values summing to 100 within tolerance.
func validateDimensions(field string, d DocumentDimensions) error {
	if d.Market < 0 || d.Moat < 0 || d.Financials < 0 || d.Team < 0 || d.Traction < 0 {
		return shared.NewDomainError("ruleset", "Parse", shared.ErrConfiguration,
			field+": percentages must not be negative")
	}
	if sum := d.Sum(); math.Abs(sum-100) > percentTolerance {
		return shared.NewDomainError("ruleset", "Parse", shared.ErrConfiguration,
			fmt.Sprintf("%s: percentages sum to %.2f, must sum to 100", field, sum))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SEED
// ══════════════════════════════════════════════════════════════════════════════

// SeedDocument is the initial methodology shipped with the product.
// Published as 0.1.0 on first startup when the store is empty.
func SeedDocument() Document {
	return Document{
		Version: "0.1.0",
		Dimensions: DocumentDimensions{
			Market:     15,
			Moat:       10,
			Financials: 25,
			Team:       25,
			Traction:   25,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SORTING
// ══════════════════════════════════════════════════════════════════════════════

// SortByVersion orders rulesets by semantic version ascending, in place.
// String ordering is wrong here: "0.10.0" must follow "0.9.0".
func SortByVersion(sets []*RuleSet) {
	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Version.LessThan(sets[j].Version)
	})
}
