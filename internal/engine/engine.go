// Package engine implements the rule-analysis core: normalization of raw
// policy exports into canonical records, shadow detection, merge clustering,
// usage classification, and recommendation aggregation. The engine reads one
// immutable rule snapshot per run and never mutates or reorders it.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"panos-policy-evaluator/internal/model"
)

// Config carries every tunable the analysis reads. It is passed explicitly
// into Analyze so runs are reproducible under injected clocks and thresholds;
// the engine keeps no ambient state.
type Config struct {
	// ZeroHitCutoff: rules with at most this many hits classify as unused.
	ZeroHitCutoff uint64

	// LowUseHitsPerDay: rules averaging fewer hits per elapsed day since
	// creation classify as low-use. Rules without a creation timestamp are
	// never low-use.
	LowUseHitsPerDay float64

	// Now is the reference timestamp for age calculations.
	Now time.Time

	// MaxDifferingDimensions bounds how many match dimensions may differ
	// between members of one merge candidate. Valid range 0..6.
	MaxDifferingDimensions int

	// DimensionWeights scores merge confidence; higher-weight dimensions
	// matter more when they match. Missing entries count as zero.
	DimensionWeights map[model.Dimension]float64

	// Workers bounds the shadow scan's parallelism. Defaults to NumCPU.
	Workers int
}

// DefaultDimensionWeights favor zone agreement over address, application
// and service agreement.
func DefaultDimensionWeights() map[model.Dimension]float64 {
	return map[model.Dimension]float64{
		model.DimFromZones:    0.20,
		model.DimToZones:      0.20,
		model.DimSources:      0.15,
		model.DimDestinations: 0.15,
		model.DimApplications: 0.15,
		model.DimServices:     0.15,
	}
}

// DefaultConfig returns the default analysis configuration relative to the
// given reference time.
func DefaultConfig(now time.Time) Config {
	return Config{
		ZeroHitCutoff:          0,
		LowUseHitsPerDay:       1.0,
		Now:                    now,
		MaxDifferingDimensions: 1,
		DimensionWeights:       DefaultDimensionWeights(),
		Workers:                runtime.NumCPU(),
	}
}

// Validate reports the first invalid option as a ConfigError.
func (c Config) Validate() error {
	if c.Now.IsZero() {
		return &ConfigError{Option: "now", Reason: "reference timestamp required"}
	}
	if c.LowUseHitsPerDay < 0 {
		return &ConfigError{Option: "low_use_hits_per_day", Reason: "must not be negative"}
	}
	if c.MaxDifferingDimensions < 0 || c.MaxDifferingDimensions > len(model.Dimensions) {
		return &ConfigError{
			Option: "max_differing_dimensions",
			Reason: fmt.Sprintf("must be between 0 and %d", len(model.Dimensions)),
		}
	}
	var sum float64
	for dim, w := range c.DimensionWeights {
		if w < 0 {
			return &ConfigError{
				Option: "dimension_weights",
				Reason: fmt.Sprintf("weight for %s must not be negative", dim),
			}
		}
		sum += w
	}
	if len(c.DimensionWeights) > 0 && sum == 0 {
		return &ConfigError{Option: "dimension_weights", Reason: "weights must not all be zero"}
	}
	return nil
}

// Report is the complete result of one analysis run. All streams come from
// the same snapshot; a failed run produces no Report at all.
type Report struct {
	Shadows         []model.ShadowFinding
	Merges          []model.MergeCandidate
	Usage           []model.UsageFinding
	Recommendations []model.Recommendation
	Summary         model.SummaryStats
}

// Analyze runs shadow detection, merge clustering and usage classification
// over the normalized rule list, then aggregates one recommendation per rule
// plus summary statistics. The rule list must be sorted by strictly
// increasing position (the normalizer guarantees this); violation is an
// AnalysisError. Cancellation of ctx aborts the run with an AnalysisError
// wrapping the context error; no partial report is returned.
func Analyze(ctx context.Context, rules []model.RuleRecord, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DimensionWeights == nil {
		cfg.DimensionWeights = DefaultDimensionWeights()
	}

	for i := 1; i < len(rules); i++ {
		if rules[i].Position <= rules[i-1].Position {
			return nil, &AnalysisError{
				Reason: fmt.Sprintf("rule list not ordered: position %d follows %d",
					rules[i].Position, rules[i-1].Position),
			}
		}
	}

	shadows, err := FindShadows(ctx, rules, cfg.Workers)
	if err != nil {
		return nil, err
	}

	merges, err := FindMergeCandidates(ctx, rules, cfg)
	if err != nil {
		return nil, err
	}

	usage, err := ClassifyUsage(ctx, rules, cfg)
	if err != nil {
		return nil, err
	}

	recs, summary := Aggregate(rules, shadows, merges, usage)

	return &Report{
		Shadows:         shadows,
		Merges:          merges,
		Usage:           usage,
		Recommendations: recs,
		Summary:         summary,
	}, nil
}
