package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/model"
)

// WriteCSV writes the overview and per-rule analysis into one CSV document,
// separated by section markers, matching the layout analysts get from the
// XLSX export's two sheets.
func WriteCSV(w io.Writer, rules []model.RuleRecord, rep *engine.Report) error {
	if _, err := fmt.Fprintln(w, "=== OVERVIEW ==="); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(overviewHeader); err != nil {
		return err
	}
	for _, row := range overviewRows(rep.Summary) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\n=== ANALYSIS ==="); err != nil {
		return err
	}
	cw = csv.NewWriter(w)
	if err := cw.Write(analysisHeader); err != nil {
		return err
	}
	byRule := recommendationsByRule(rep)
	for i := range rules {
		rec, ok := byRule[rules[i].Name]
		if !ok {
			rec = &model.Recommendation{Rule: rules[i].Name, Position: rules[i].Position}
		}
		if err := cw.Write(analysisRow(&rules[i], rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
