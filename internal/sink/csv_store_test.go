package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return records
}

func TestCSVStoreInitAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store := NewCSVStore(path)

	header := []string{"participant_id", "timestamp", "q1_stage1"}
	if err := store.Init(header); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := store.Append(header, []string{"p-1", "2025-06-01T12:00:00Z", "42"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(header, []string{"p-2", "2025-06-01T13:00:00Z", "58"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("record count = %d, want 3", len(records))
	}
	if !headerEqual(records[0], header) {
		t.Errorf("header row = %v, want %v", records[0], header)
	}
	if records[1][0] != "p-1" || records[2][0] != "p-2" {
		t.Errorf("data rows out of order: %v", records[1:])
	}
}

func TestCSVStoreAppendCreatesMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store := NewCSVStore(path)

	header := []string{"participant_id", "q1_stage1"}
	if err := store.Append(header, []string{"p-1", "42"}); err != nil {
		t.Fatalf("Append on missing store: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2 (header + row)", len(records))
	}
	if !headerEqual(records[0], header) {
		t.Errorf("header row = %v, want %v", records[0], header)
	}
}

func TestCSVStoreReconcilesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")

	// A store left behind by an older header layout.
	stale := "a,b\nold-1,old-2\n"
	if err := os.WriteFile(path, []byte(stale), 0600); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	store := NewCSVStore(path)
	header := []string{"participant_id", "q1_stage1", "q1_pred"}
	if err := store.Append(header, []string{"p-1", "42", "45"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("record count = %d, want 3", len(records))
	}
	if !headerEqual(records[0], header) {
		t.Errorf("header row = %v, want %v", records[0], header)
	}
	// Old data rows survive the header rewrite untouched.
	if records[1][0] != "old-1" || records[1][1] != "old-2" {
		t.Errorf("old data row changed: %v", records[1])
	}
	if records[2][0] != "p-1" {
		t.Errorf("new row = %v", records[2])
	}
}

func TestCSVStoreInitPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store := NewCSVStore(path)

	header := []string{"participant_id", "q1_stage1"}
	if err := store.Init(header); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.Append(header, []string{"p-1", "42"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Re-initializing a non-empty store only reconciles, never truncates.
	if err := store.Init(header); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	records := readCSV(t, path)
	if len(records) != 2 {
		t.Errorf("record count after re-init = %d, want 2", len(records))
	}
}

func TestCSVStoreLoadMissing(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"))
	if err := store.Load(); err == nil {
		t.Error("expected error loading missing store")
	}
}

func TestCSVStoreRowLengthMismatch(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	err := store.Append([]string{"a", "b"}, []string{"only-one"})
	if err == nil {
		t.Fatal("expected error for row/header length mismatch")
	}
}
