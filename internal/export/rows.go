// Package export serializes analysis results for analyst review. It consumes
// only the normalized rule list, the summary statistics and the per-rule
// recommendations; it performs no analysis of its own.
package export

import (
	"fmt"
	"strings"
	"time"

	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/model"
)

// analysisHeader is the column set of the per-rule analysis section, shared
// by the CSV and XLSX writers so both exports line up.
var analysisHeader = []string{
	"Position", "Name", "Disabled", "Action",
	"Source Zone", "Destination Zone", "Source Address", "Destination Address",
	"Application", "Service", "Tags",
	"Hit Count", "Last Hit", "Created", "Modified",
	"Categories", "Recommendation",
}

func analysisRow(r *model.RuleRecord, rec *model.Recommendation) []string {
	cats := make([]string, len(rec.Categories))
	for i, c := range rec.Categories {
		cats[i] = string(c)
	}
	return []string{
		fmt.Sprintf("%d", r.Position),
		r.Name,
		fmt.Sprintf("%t", r.Disabled),
		string(r.Action),
		r.FromZones.String(),
		r.ToZones.String(),
		r.Sources.String(),
		r.Destinations.String(),
		r.Applications.String(),
		r.Services.String(),
		strings.Join(r.Tags, "; "),
		fmt.Sprintf("%d", r.HitCount),
		formatTime(r.LastHit),
		formatTime(r.Created),
		formatTime(r.Modified),
		strings.Join(cats, "; "),
		rec.Text,
	}
}

// overviewHeader is the column set of the overview section.
var overviewHeader = []string{"Category", "Metric", "Value"}

func overviewRows(s model.SummaryStats) [][]string {
	return [][]string{
		{"Rules", "Total", fmt.Sprintf("%d", s.TotalRules)},
		{"Rules", "Enabled", fmt.Sprintf("%d", s.EnabledRules)},
		{"Rules", "Disabled", fmt.Sprintf("%d", s.DisabledRules)},
		{"Actions", "Allow", fmt.Sprintf("%d", s.AllowRules)},
		{"Actions", "Deny", fmt.Sprintf("%d", s.DenyRules)},
		{"Hit Counts", "Zero-hit rules", fmt.Sprintf("%d", s.ZeroHitRules)},
		{"Hit Counts", "Total hits", fmt.Sprintf("%d", s.TotalHits)},
		{"Diversity", "Unique applications", fmt.Sprintf("%d", s.UniqueApplications)},
		{"Diversity", "Unique services", fmt.Sprintf("%d", s.UniqueServices)},
		{"Diversity", "Unique zones", fmt.Sprintf("%d", s.UniqueZones)},
		{"Diversity", "Unique sources", fmt.Sprintf("%d", s.UniqueSources)},
		{"Diversity", "Unique destinations", fmt.Sprintf("%d", s.UniqueDestinations)},
		{"Analysis", "Shadowed rules", fmt.Sprintf("%d", s.ShadowedRules)},
		{"Analysis", "Merge groups", fmt.Sprintf("%d", s.MergeGroups)},
		{"Analysis", "Rules in merge groups", fmt.Sprintf("%d", s.RulesInMergeGroups)},
		{"Analysis", "Unused rules", fmt.Sprintf("%d", s.UnusedRules)},
		{"Analysis", "Low-use rules", fmt.Sprintf("%d", s.LowUseRules)},
		{"Analysis", "Active rules", fmt.Sprintf("%d", s.ActiveRules)},
	}
}

// recommendationsByRule indexes the aggregated recommendations for row
// assembly. Every rule has exactly one.
func recommendationsByRule(rep *engine.Report) map[string]*model.Recommendation {
	byRule := make(map[string]*model.Recommendation, len(rep.Recommendations))
	for i := range rep.Recommendations {
		byRule[rep.Recommendations[i].Rule] = &rep.Recommendations[i]
	}
	return byRule
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006/01/02 15:04:05")
}
