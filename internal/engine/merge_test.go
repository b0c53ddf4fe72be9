package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"panos-policy-evaluator/internal/model"
)

func findMerges(t *testing.T, rules []model.RuleRecord, cfg Config) []model.MergeCandidate {
	t.Helper()
	candidates, err := FindMergeCandidates(context.Background(), rules, cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return candidates
}

func mergeConfig() Config {
	return Config{
		MaxDifferingDimensions: 1,
		DimensionWeights:       DefaultDimensionWeights(),
	}
}

func adminRule(name string, pos int, service string) model.RuleRecord {
	r := testRule(name, pos)
	r.FromZones = model.NewFieldSet("trust")
	r.ToZones = model.NewFieldSet("dmz")
	r.Sources = model.NewFieldSet("admin-net")
	r.Destinations = model.NewFieldSet("servers")
	r.Applications = model.NewFieldSet("any-app")
	r.Services = model.NewFieldSet(service)
	return r
}

func TestFindMergeCandidatesSingleDifferingDimension(t *testing.T) {
	rules := []model.RuleRecord{
		adminRule("admin-ssh", 1, "ssh"),
		adminRule("admin-https", 2, "https"),
	}

	candidates := findMerges(t, rules, mergeConfig())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if len(c.Rules) != 2 || c.Rules[0] != "admin-ssh" || c.Rules[1] != "admin-https" {
		t.Fatalf("wrong members: %v", c.Rules)
	}
	if len(c.DifferingFields) != 1 || c.DifferingFields[0] != model.DimServices {
		t.Fatalf("expected services as the differing field, got %v", c.DifferingFields)
	}
	// Default weights: everything matches except services (0.15).
	if math.Abs(c.Confidence-0.85) > 1e-9 {
		t.Errorf("expected confidence 0.85, got %v", c.Confidence)
	}
	if c.Rationale == "" {
		t.Error("expected a rationale")
	}
}

func TestFindMergeCandidatesActionMismatchSplits(t *testing.T) {
	allow := adminRule("admin-ssh", 1, "ssh")
	deny := adminRule("block-ssh", 2, "ssh")
	deny.Action = model.ActionDeny

	candidates := findMerges(t, []model.RuleRecord{allow, deny}, mergeConfig())
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates across actions, got %+v", candidates)
	}
}

func TestFindMergeCandidatesTooManyDifferencesSplits(t *testing.T) {
	a := adminRule("a", 1, "ssh")
	b := adminRule("b", 2, "https")
	b.Sources = model.NewFieldSet("ops-net")

	candidates := findMerges(t, []model.RuleRecord{a, b}, mergeConfig())
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates with 2 differing dimensions, got %+v", candidates)
	}

	cfg := mergeConfig()
	cfg.MaxDifferingDimensions = 2
	candidates = findMerges(t, []model.RuleRecord{a, b}, cfg)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate at the wider bound, got %d", len(candidates))
	}
	if math.Abs(candidates[0].Confidence-0.70) > 1e-9 {
		t.Errorf("expected confidence 0.70, got %v", candidates[0].Confidence)
	}
}

func TestFindMergeCandidatesCumulativeDifference(t *testing.T) {
	// a/b differ in services, b/c differ in sources: pairwise each is one
	// dimension, but the cluster as a whole differs in two.
	a := adminRule("a", 1, "ssh")
	b := adminRule("b", 2, "https")
	c := adminRule("c", 3, "https")
	c.Sources = model.NewFieldSet("ops-net")

	candidates := findMerges(t, []model.RuleRecord{a, b, c}, mergeConfig())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if got := candidates[0].Rules; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected cluster [a b], got %v", got)
	}
}

func TestFindMergeCandidatesNoncontiguousSplits(t *testing.T) {
	a := adminRule("a", 1, "ssh")
	between := testRule("between", 2) // wildcard rule, overlaps everything
	b := adminRule("b", 3, "https")

	candidates := findMerges(t, []model.RuleRecord{a, between, b}, mergeConfig())
	for _, c := range candidates {
		for _, name := range c.Rules {
			if name == "a" || name == "b" {
				t.Fatalf("a and b are separated by an overlapping rule, must not merge: %+v", c)
			}
		}
	}
}

func TestFindMergeCandidatesDisabledDisjointSpanned(t *testing.T) {
	a := adminRule("a", 1, "ssh")
	off := adminRule("off", 2, "ssh")
	off.Disabled = true
	off.FromZones = model.NewFieldSet("guest") // disjoint from trust
	b := adminRule("b", 3, "https")

	candidates := findMerges(t, []model.RuleRecord{a, off, b}, mergeConfig())
	if len(candidates) != 1 {
		t.Fatalf("expected the disjoint disabled rule to be spanned, got %d candidates", len(candidates))
	}
	if got := candidates[0].Rules; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected cluster [a b], got %v", got)
	}
}

func TestFindMergeCandidatesDisabledOverlappingSplits(t *testing.T) {
	a := adminRule("a", 1, "ssh")
	off := adminRule("off", 2, "ssh") // same scope as a, just disabled
	off.Disabled = true
	b := adminRule("b", 3, "https")

	candidates := findMerges(t, []model.RuleRecord{a, off, b}, mergeConfig())
	if len(candidates) != 0 {
		t.Fatalf("re-enabling off would change matching; expected no candidates, got %+v", candidates)
	}
}

func TestFindMergeCandidatesIdenticalRules(t *testing.T) {
	rules := []model.RuleRecord{
		adminRule("a", 1, "ssh"),
		adminRule("b", 2, "ssh"),
		adminRule("c", 3, "ssh"),
	}

	candidates := findMerges(t, rules, mergeConfig())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if len(c.Rules) != 3 {
		t.Fatalf("expected 3 members, got %v", c.Rules)
	}
	if len(c.DifferingFields) != 0 {
		t.Fatalf("expected no differing fields, got %v", c.DifferingFields)
	}
	if c.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", c.Confidence)
	}
}

func TestFindMergeCandidatesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindMergeCandidates(ctx, []model.RuleRecord{testRule("r1", 1)}, mergeConfig())
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}
