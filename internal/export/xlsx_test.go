package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	rules, rep := exportFixture()
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteXLSX(path, rules, rep); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("workbook must be readable: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Overview" || sheets[1] != "Analysis" {
		t.Fatalf("sheets: got %v", sheets)
	}

	name, err := f.GetCellValue("Analysis", "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if name != "allow-web" {
		t.Errorf("first analysis row name: got %q", name)
	}

	metric, err := f.GetCellValue("Overview", "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if metric != "Total" {
		t.Errorf("first overview metric: got %q", metric)
	}
}
