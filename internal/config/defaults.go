// Package config provides configuration loading and defaults for the
// evaluator CLI. The loaded values are frozen into an engine.Config before
// analysis begins; the engine itself never reads ambient settings.
package config

// DefaultConfigDir is the default location for evaluator configuration.
const DefaultConfigDir = "~/.config/policy-evaluator"

// DefaultHistoryDB is the default path of the run-history SQLite database.
const DefaultHistoryDB = "~/.config/policy-evaluator/history.db"

// DefaultThresholds holds the default usage classification cutoffs.
var DefaultThresholds = Thresholds{
	ZeroHitCutoff:    0,
	LowUseHitsPerDay: 1.0,
}

// DefaultMerge holds the default merge clustering policy. Zones weigh more
// than addresses, applications and services.
var DefaultMerge = Merge{
	MaxDifferingDimensions: 1,
	Weights: map[string]float64{
		"fromZones":    0.20,
		"toZones":      0.20,
		"sources":      0.15,
		"destinations": 0.15,
		"applications": 0.15,
		"services":     0.15,
	},
}

// DefaultOutput holds the default report output preferences.
var DefaultOutput = Output{
	Directory: ".",
	Formats:   []string{"csv"},
}
