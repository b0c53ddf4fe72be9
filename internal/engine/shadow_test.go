package engine

import (
	"context"
	"errors"
	"testing"

	"panos-policy-evaluator/internal/model"
)

func findShadows(t *testing.T, rules []model.RuleRecord) []model.ShadowFinding {
	t.Helper()
	findings, err := FindShadows(context.Background(), rules, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return findings
}

func TestFindShadowsWildcardCoversEverything(t *testing.T) {
	allowAll := testRule("allow-all", 1)
	web := testRule("allow-web", 2)
	web.Sources = model.NewFieldSet("10.0.0.0/8")
	web.Applications = model.NewFieldSet("web-browsing")

	findings := findShadows(t, []model.RuleRecord{allowAll, web})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.ShadowedRule != "allow-web" || f.ShadowingRule != "allow-all" {
		t.Fatalf("wrong pairing: %+v", f)
	}
	if f.ShadowedPosition != 2 || f.ShadowingPosition != 1 {
		t.Fatalf("wrong positions: %+v", f)
	}
	if len(f.MatchedDimensions) != len(model.Dimensions) {
		t.Errorf("expected all %d dimensions matched, got %d", len(model.Dimensions), len(f.MatchedDimensions))
	}
}

func TestFindShadowsActionIgnored(t *testing.T) {
	denyAll := testRule("deny-all", 1)
	denyAll.Action = model.ActionDeny
	web := testRule("allow-web", 2)
	web.Applications = model.NewFieldSet("web-browsing")

	findings := findShadows(t, []model.RuleRecord{denyAll, web})
	if len(findings) != 1 {
		t.Fatalf("a fully covered rule is dead regardless of actions; got %d findings", len(findings))
	}
}

func TestFindShadowsOneDivergentDimensionSaves(t *testing.T) {
	a := testRule("dmz-allow", 1)
	a.Sources = model.NewFieldSet("10.1.0.0/16")
	b := testRule("branch-allow", 2)
	b.Sources = model.NewFieldSet("10.1.0.0/16", "10.2.0.0/16")

	// b's source set is strictly wider than a's, so a does not cover b.
	findings := findShadows(t, []model.RuleRecord{a, b})
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestFindShadowsConcreteNeverCoversWildcard(t *testing.T) {
	narrow := testRule("narrow", 1)
	narrow.Services = model.NewFieldSet("ssh")
	wide := testRule("wide", 2)

	findings := findShadows(t, []model.RuleRecord{narrow, wide})
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestFindShadowsEarliestSubsumerWins(t *testing.T) {
	first := testRule("first", 1)
	second := testRule("second", 5)
	victim := testRule("victim", 9)

	findings := findShadows(t, []model.RuleRecord{first, second, victim})
	// second is shadowed by first; victim is shadowed by first, not second.
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	for _, f := range findings {
		if f.ShadowingRule != "first" {
			t.Errorf("rule %q: expected shadowing rule first, got %q", f.ShadowedRule, f.ShadowingRule)
		}
	}
}

func TestFindShadowsSkipsDisabled(t *testing.T) {
	off := testRule("off", 1)
	off.Disabled = true
	live := testRule("live", 2)
	offLater := testRule("off-later", 3)
	offLater.Disabled = true

	findings := findShadows(t, []model.RuleRecord{off, live, offLater})
	if len(findings) != 0 {
		t.Fatalf("disabled rules neither shadow nor get shadowed; got %+v", findings)
	}
}

func TestFindShadowsSortedByShadowedPosition(t *testing.T) {
	rules := []model.RuleRecord{testRule("r1", 1)}
	for p := 2; p <= 20; p++ {
		rules = append(rules, testRule("r"+string(rune('a'+p)), p))
	}
	findings := findShadows(t, rules)
	if len(findings) != 19 {
		t.Fatalf("expected 19 findings, got %d", len(findings))
	}
	for i := 1; i < len(findings); i++ {
		if findings[i].ShadowedPosition <= findings[i-1].ShadowedPosition {
			t.Fatalf("findings not ordered at %d: %d after %d",
				i, findings[i].ShadowedPosition, findings[i-1].ShadowedPosition)
		}
	}
}

func TestFindShadowsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rules := []model.RuleRecord{testRule("r1", 1), testRule("r2", 2)}
	findings, err := FindShadows(ctx, rules, 2)
	if findings != nil {
		t.Fatal("expected no partial findings on cancellation")
	}
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}
