package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/model"
)

// WriteXLSX writes a two-sheet workbook (Overview, Analysis) to path, with a
// styled header row on each sheet.
func WriteXLSX(path string, rules []model.RuleRecord, rep *engine.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, "Overview", overviewHeader, overviewRows(rep.Summary), headerStyle); err != nil {
		return err
	}

	byRule := recommendationsByRule(rep)
	analysisRows := make([][]string, 0, len(rules))
	for i := range rules {
		rec, ok := byRule[rules[i].Name]
		if !ok {
			rec = &model.Recommendation{Rule: rules[i].Name, Position: rules[i].Position}
		}
		analysisRows = append(analysisRows, analysisRow(&rules[i], rec))
	}
	if err := writeSheet(f, "Analysis", analysisHeader, analysisRows, headerStyle); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]string, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	widths := make([]int, len(header))
	writeRow := func(rowNum int, cells []string) error {
		for col, val := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(name, cell, val); err != nil {
				return err
			}
			if col < len(widths) && len(val) > widths[col] {
				widths[col] = len(val)
			}
		}
		return nil
	}

	if err := writeRow(1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}

	endHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for col, w := range widths {
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(w) + 4
		if width > 60 {
			width = 60
		}
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return err
		}
	}
	return nil
}
