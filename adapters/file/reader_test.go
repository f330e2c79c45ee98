package file

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"fedstats/domain/table"
)

func TestBuildTable_TypeInference(t *testing.T) {
	rows := [][]string{
		{"age", "site", "weight"},
		{"30", "a", "70.5"},
		{"", "b", "80"},
		{"50", "", "90"},
	}
	tbl, err := BuildTable(rows)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	if tbl.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", tbl.NumRows())
	}

	age, ok := tbl.Lookup("age")
	if !ok || age.Type != table.TypeNumeric {
		t.Fatalf("age should be numeric, got %+v", age)
	}
	if !math.IsNaN(age.Floats[1]) {
		t.Errorf("empty cell should be missing, got %v", age.Floats[1])
	}

	site, ok := tbl.Lookup("site")
	if !ok || site.Type != table.TypeCategorical {
		t.Fatalf("site should be categorical, got %+v", site)
	}
	if !site.IsMissing(2) {
		t.Error("empty label should be missing")
	}

	weight, _ := tbl.Lookup("weight")
	if weight.Floats[0] != 70.5 {
		t.Errorf("weight[0] = %v, want 70.5", weight.Floats[0])
	}
}

func TestBuildTable_MixedColumnFallsBackToCategorical(t *testing.T) {
	rows := [][]string{
		{"code"},
		{"12"},
		{"x9"},
	}
	tbl, err := BuildTable(rows)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	code, _ := tbl.Lookup("code")
	if code.Type != table.TypeCategorical {
		t.Errorf("one non-numeric cell makes the whole column categorical, got %v", code.Type)
	}
}

func TestBuildTable_RaggedRows(t *testing.T) {
	rows := [][]string{
		{"a", "b"},
		{"1"},
		{"2", "3"},
	}
	tbl, err := BuildTable(rows)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	b, _ := tbl.Lookup("b")
	if !math.IsNaN(b.Floats[0]) {
		t.Errorf("short row should leave a missing cell, got %v", b.Floats[0])
	}
}

func TestDataReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.csv")
	content := "value,group\n10,X\n12,X\n20,Y\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tbl, err := NewDataReader(path, "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", tbl.NumRows())
	}
	value, _ := tbl.Lookup("value")
	if value.Type != table.TypeNumeric || value.Floats[2] != 20 {
		t.Errorf("value column = %+v", value)
	}
}

func TestDataReader_MissingFile(t *testing.T) {
	reader := NewDataReader(filepath.Join(t.TempDir(), "nope.csv"), "")
	if _, err := reader.Load(context.Background()); err == nil {
		t.Error("expected error for a missing file")
	}
}
