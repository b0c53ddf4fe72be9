package report

import (
	"fmt"
	"strings"

	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/model"
)

// Summary renders the overview statistics of one analysis run.
func Summary(rep *engine.Report) string {
	s := rep.Summary
	var sb strings.Builder

	sb.WriteString(styleTitle.Render("Policy overview"))
	sb.WriteString("\n\n")

	tbl := NewTable("Metric", "Value")
	tbl.AddRow("Total rules", fmt.Sprintf("%d", s.TotalRules))
	tbl.AddRow("Enabled / disabled", fmt.Sprintf("%d / %d", s.EnabledRules, s.DisabledRules))
	tbl.AddRow("Allow / deny", fmt.Sprintf("%d / %d", s.AllowRules, s.DenyRules))
	tbl.AddRow("Zero-hit rules", fmt.Sprintf("%d", s.ZeroHitRules))
	tbl.AddRow("Total hits", fmt.Sprintf("%d", s.TotalHits))
	tbl.AddRow("Unique applications", fmt.Sprintf("%d", s.UniqueApplications))
	tbl.AddRow("Unique services", fmt.Sprintf("%d", s.UniqueServices))
	tbl.AddRow("Unique zones", fmt.Sprintf("%d", s.UniqueZones))
	tbl.AddRow("Shadowed rules", fmt.Sprintf("%d", s.ShadowedRules))
	tbl.AddRow("Merge groups", fmt.Sprintf("%d (%d rules)", s.MergeGroups, s.RulesInMergeGroups))
	tbl.AddRow("Usage tiers", fmt.Sprintf("%d unused / %d low-use / %d active",
		s.UnusedRules, s.LowUseRules, s.ActiveRules))
	sb.WriteString(tbl.Render())

	return sb.String()
}

// Findings renders the per-rule recommendations that carry at least one
// category or note. maxRows bounds the table; 0 means no bound.
func Findings(rep *engine.Report, maxRows int) string {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Findings"))
	sb.WriteString("\n\n")

	tbl := NewTable("Pos", "Rule", "Categories", "Recommendation")
	shown := 0
	truncated := 0
	for _, rec := range rep.Recommendations {
		if rec.Text == "" {
			continue
		}
		if maxRows > 0 && shown >= maxRows {
			truncated++
			continue
		}
		tbl.AddRow(
			fmt.Sprintf("%d", rec.Position),
			rec.Rule,
			categories(rec.Categories),
			truncate(rec.Text, 100),
		)
		shown++
	}
	if shown == 0 {
		return sb.String() + styleMuted.Render("no findings") + "\n"
	}
	sb.WriteString(tbl.Render())
	if truncated > 0 {
		sb.WriteString(styleWarning.Render(fmt.Sprintf("… %d more findings in the export\n", truncated)))
	}
	return sb.String()
}

func categories(cats []model.Category) string {
	if len(cats) == 0 {
		return "-"
	}
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
