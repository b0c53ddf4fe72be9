package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"panos-policy-evaluator/internal/model"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		option string
	}{
		{"zero-now", func(c *Config) { c.Now = time.Time{} }, "now"},
		{"negative-low-use", func(c *Config) { c.LowUseHitsPerDay = -1 }, "low_use_hits_per_day"},
		{"max-diff-too-high", func(c *Config) { c.MaxDifferingDimensions = 7 }, "max_differing_dimensions"},
		{"max-diff-negative", func(c *Config) { c.MaxDifferingDimensions = -1 }, "max_differing_dimensions"},
		{"negative-weight", func(c *Config) {
			c.DimensionWeights = map[model.Dimension]float64{model.DimSources: -0.5}
		}, "dimension_weights"},
		{"all-zero-weights", func(c *Config) {
			c.DimensionWeights = map[model.Dimension]float64{model.DimSources: 0}
		}, "dimension_weights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(testNow)
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Option != tt.option {
				t.Errorf("option: got %q, want %q", cerr.Option, tt.option)
			}
		})
	}

	if err := DefaultConfig(testNow).Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}

func TestAnalyzeRejectsUnorderedRules(t *testing.T) {
	rules := []model.RuleRecord{testRule("a", 2), testRule("b", 1)}
	rep, err := Analyze(context.Background(), rules, DefaultConfig(testNow))
	if rep != nil {
		t.Fatal("expected no report")
	}
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rules := []model.RuleRecord{testRule("a", 1), testRule("b", 2)}
	rep, err := Analyze(ctx, rules, DefaultConfig(testNow))
	if rep != nil {
		t.Fatal("expected no partial report on cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	allowAll := testRule("allow-all", 1)
	allowAll.HitCount = 5000
	allowAll.Created = testNow.AddDate(-1, 0, 0)

	shadowed := testRule("allow-web", 2)
	shadowed.Applications = model.NewFieldSet("web-browsing")
	shadowed.Services = model.NewFieldSet("https")

	sshA := adminRule("admin-ssh", 3, "ssh")
	sshA.HitCount = 900
	sshB := adminRule("admin-https", 4, "https")
	sshB.HitCount = 900

	rep, err := Analyze(context.Background(), []model.RuleRecord{allowAll, shadowed, sshA, sshB}, DefaultConfig(testNow))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(rep.Shadows) != 1 || rep.Shadows[0].ShadowedRule != "allow-web" {
		t.Fatalf("shadows: %+v", rep.Shadows)
	}
	if len(rep.Merges) != 1 {
		t.Fatalf("merges: %+v", rep.Merges)
	}
	if len(rep.Usage) != 4 {
		t.Fatalf("expected usage findings for all enabled rules, got %d", len(rep.Usage))
	}
	if len(rep.Recommendations) != 4 {
		t.Fatalf("expected one recommendation per rule, got %d", len(rep.Recommendations))
	}
	if rep.Summary.TotalRules != 4 || rep.Summary.ShadowedRules != 1 || rep.Summary.MergeGroups != 1 {
		t.Fatalf("summary: %+v", rep.Summary)
	}
}

func TestAnalyzeDefaultsWorkersAndWeights(t *testing.T) {
	cfg := Config{Now: testNow, LowUseHitsPerDay: 1, MaxDifferingDimensions: 1}
	rep, err := Analyze(context.Background(), []model.RuleRecord{testRule("a", 1)}, cfg)
	if err != nil {
		t.Fatalf("expected zero-value workers and weights to be defaulted, got %v", err)
	}
	if rep == nil {
		t.Fatal("expected a report")
	}
}
