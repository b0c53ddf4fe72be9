package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/model"
)

// Config is the top-level evaluator configuration.
type Config struct {
	Thresholds Thresholds `mapstructure:"thresholds"`
	Merge      Merge      `mapstructure:"merge"`
	Workers    int        `mapstructure:"workers"`
	Output     Output     `mapstructure:"output"`
	HistoryDB  string     `mapstructure:"history_db"`
}

// Thresholds defines the usage classification cutoffs.
type Thresholds struct {
	ZeroHitCutoff    uint64  `mapstructure:"zero_hit_cutoff"`
	LowUseHitsPerDay float64 `mapstructure:"low_use_hits_per_day"`
}

// Merge defines the merge clustering policy.
type Merge struct {
	MaxDifferingDimensions int                `mapstructure:"max_differing_dimensions"`
	Weights                map[string]float64 `mapstructure:"weights"`
}

// Output defines export preferences.
type Output struct {
	Directory string   `mapstructure:"directory"`
	Formats   []string `mapstructure:"formats"`
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A missing config file is
// not an error; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("thresholds.zero_hit_cutoff", DefaultThresholds.ZeroHitCutoff)
	v.SetDefault("thresholds.low_use_hits_per_day", DefaultThresholds.LowUseHitsPerDay)
	v.SetDefault("merge.max_differing_dimensions", DefaultMerge.MaxDifferingDimensions)
	v.SetDefault("workers", 0)
	v.SetDefault("output.directory", DefaultOutput.Directory)
	v.SetDefault("output.formats", DefaultOutput.Formats)
	v.SetDefault("history_db", DefaultHistoryDB)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Merge.Weights) == 0 {
		cfg.Merge.Weights = DefaultMerge.Weights
	}
	cfg.HistoryDB = expandPath(cfg.HistoryDB)
	cfg.Output.Directory = expandPath(cfg.Output.Directory)

	return &cfg, nil
}

// EngineConfig freezes the loaded settings into the immutable value the
// engine consumes, with the given reference timestamp.
func (c *Config) EngineConfig(now time.Time) engine.Config {
	weights := make(map[model.Dimension]float64, len(c.Merge.Weights))
	for dim, w := range c.Merge.Weights {
		weights[model.Dimension(dim)] = w
	}
	return engine.Config{
		ZeroHitCutoff:          c.Thresholds.ZeroHitCutoff,
		LowUseHitsPerDay:       c.Thresholds.LowUseHitsPerDay,
		Now:                    now,
		MaxDifferingDimensions: c.Merge.MaxDifferingDimensions,
		DimensionWeights:       weights,
		Workers:                c.Workers,
	}
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
