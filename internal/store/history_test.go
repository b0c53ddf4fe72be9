package store

import (
	"path/filepath"
	"testing"
	"time"

	"panos-policy-evaluator/internal/model"
)

func mustOpen(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndListRuns(t *testing.T) {
	db := mustOpen(t)
	ranAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := db.SaveRun(ranAt, "export.csv", model.SummaryStats{
		TotalRules:    42,
		ShadowedRules: 3,
		MergeGroups:   2,
		UnusedRules:   5,
		LowUseRules:   4,
		ActiveRules:   30,
		TotalHits:     12345,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a row ID")
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != id || r.Source != "export.csv" {
		t.Errorf("identity: %+v", r)
	}
	if !r.RanAt.Equal(ranAt) {
		t.Errorf("ran_at: got %v, want %v", r.RanAt, ranAt)
	}
	if r.TotalRules != 42 || r.Shadowed != 3 || r.MergeGroups != 2 {
		t.Errorf("analysis columns: %+v", r)
	}
	if r.Unused != 5 || r.LowUse != 4 || r.Active != 30 || r.TotalHits != 12345 {
		t.Errorf("usage columns: %+v", r)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := mustOpen(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := db.SaveRun(base.AddDate(0, 0, i), "export.csv", model.SummaryStats{TotalRules: i}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit applied, got %d runs", len(runs))
	}
	if runs[0].TotalRules != 2 || runs[1].TotalRules != 1 {
		t.Errorf("expected newest first, got %+v", runs)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer db.Close()

	if _, err := db.SaveRun(time.Now(), "export.csv", model.SummaryStats{}); err != nil {
		t.Fatalf("save after open: %v", err)
	}
}
