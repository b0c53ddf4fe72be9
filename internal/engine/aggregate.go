package engine

import (
	"fmt"
	"strings"

	"panos-policy-evaluator/internal/model"
)

// Aggregate joins the three finding streams into one recommendation per rule
// and derives summary statistics. Explanation text is composed in a fixed
// order (shadow, then merge, then usage) so reports are byte-identical for
// identical input. Input records are never modified.
func Aggregate(rules []model.RuleRecord, shadows []model.ShadowFinding, merges []model.MergeCandidate, usage []model.UsageFinding) ([]model.Recommendation, model.SummaryStats) {
	shadowText := make(map[string]string, len(shadows))
	for _, s := range shadows {
		shadowText[s.ShadowedRule] = fmt.Sprintf(
			"shadowed by %q (position %d); this rule can never match traffic, review and remove",
			s.ShadowingRule, s.ShadowingPosition)
	}

	mergeText := make(map[string]string)
	for _, m := range merges {
		for i, name := range m.Rules {
			others := make([]string, 0, len(m.Rules)-1)
			for j, other := range m.Rules {
				if j != i {
					others = append(others, fmt.Sprintf("%q (position %d)", other, m.Positions[j]))
				}
			}
			mergeText[name] = fmt.Sprintf("merge candidate with %s; confidence %.2f; %s",
				strings.Join(others, ", "), m.Confidence, m.Rationale)
		}
	}

	usageByRule := make(map[string]model.UsageFinding, len(usage))
	for _, u := range usage {
		usageByRule[u.Rule] = u
	}

	recs := make([]model.Recommendation, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		rec := model.Recommendation{Rule: r.Name, Position: r.Position}
		var parts []string

		if txt, ok := shadowText[r.Name]; ok {
			rec.Categories = append(rec.Categories, model.CategoryShadowed)
			parts = append(parts, txt)
		}
		if txt, ok := mergeText[r.Name]; ok {
			rec.Categories = append(rec.Categories, model.CategoryMergeCandidate)
			parts = append(parts, txt)
		}
		if u, ok := usageByRule[r.Name]; ok {
			switch u.Tier {
			case model.TierUnused:
				rec.Categories = append(rec.Categories, model.CategoryUnused)
				parts = append(parts, "no hits over the observation window; candidate to disable after review")
			case model.TierLowUse:
				parts = append(parts, fmt.Sprintf("low use: %d hits over %.0f days", u.HitCount, u.AgeDays))
			}
		}

		rec.Text = strings.Join(parts, " | ")
		recs = append(recs, rec)
	}

	return recs, summarize(rules, shadows, merges, usage)
}

func summarize(rules []model.RuleRecord, shadows []model.ShadowFinding, merges []model.MergeCandidate, usage []model.UsageFinding) model.SummaryStats {
	var s model.SummaryStats
	s.TotalRules = len(rules)

	apps := make(map[string]bool)
	svcs := make(map[string]bool)
	zones := make(map[string]bool)
	srcs := make(map[string]bool)
	dsts := make(map[string]bool)
	collect := func(set map[string]bool, f model.FieldSet) {
		for _, tok := range f.Tokens {
			set[tok] = true
		}
	}

	for i := range rules {
		r := &rules[i]
		if r.Disabled {
			s.DisabledRules++
		} else {
			s.EnabledRules++
		}
		switch r.Action {
		case model.ActionAllow:
			s.AllowRules++
		case model.ActionDeny:
			s.DenyRules++
		}
		if r.HitCount == 0 {
			s.ZeroHitRules++
		}
		s.TotalHits += r.HitCount

		collect(apps, r.Applications)
		collect(svcs, r.Services)
		collect(zones, r.FromZones)
		collect(zones, r.ToZones)
		collect(srcs, r.Sources)
		collect(dsts, r.Destinations)
	}

	s.UniqueApplications = len(apps)
	s.UniqueServices = len(svcs)
	s.UniqueZones = len(zones)
	s.UniqueSources = len(srcs)
	s.UniqueDestinations = len(dsts)

	s.ShadowedRules = len(shadows)
	s.MergeGroups = len(merges)
	for _, m := range merges {
		s.RulesInMergeGroups += len(m.Rules)
	}
	for _, u := range usage {
		switch u.Tier {
		case model.TierUnused:
			s.UnusedRules++
		case model.TierLowUse:
			s.LowUseRules++
		case model.TierActive:
			s.ActiveRules++
		}
	}
	return s
}
