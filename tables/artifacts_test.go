package tables

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lecternproj/lectern/model"
)

// =============================================================================
// Artifact Tests
// =============================================================================

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	records := []*model.TableRecord{
		{
			RegionID:  "p000_r001",
			PageIndex: 0,
			Method:    MethodA,
			Accuracy:  1.0,
			Cells:     [][]string{{"Model", "BLEU"}, {"Base", "27.3"}},
		},
		{
			// Rejected grid: counted in the page ordinal, no files.
			RegionID:  "p000_r004",
			PageIndex: 0,
			Method:    MethodB,
			Accuracy:  0.54,
		},
		{
			RegionID:  "p000_r007",
			PageIndex: 0,
			Method:    MethodB,
			Accuracy:  0.95,
			Cells:     [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			RegionID:  "p002_r000",
			PageIndex: 2,
			Method:    MethodA,
			Accuracy:  1.0,
			Cells:     [][]string{{"x", "y"}, {"z", "w"}},
		},
	}

	if err := WriteArtifacts(dir, records); err != nil {
		t.Fatalf("WriteArtifacts() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "page_000_table_000_method_a.csv"))
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if got, want := string(data), "Model,BLEU\nBase,27.3\n"; got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}

	// The rejected record consumed ordinal 1, so the next grid is table 2.
	if _, err := os.Stat(filepath.Join(dir, "page_000_table_002_method_b.csv")); err != nil {
		t.Errorf("expected third record at table ordinal 2: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "page_002_table_000_method_a.json")); err != nil {
		t.Errorf("expected page 2 ordinals to restart at 0: %v", err)
	}

	if records[1].Artifacts != nil {
		t.Errorf("rejected record Artifacts = %v, want nil", records[1].Artifacts)
	}
	want := []string{"page_000_table_000_method_a.csv", "page_000_table_000_method_a.json"}
	if len(records[0].Artifacts) != 2 || records[0].Artifacts[0] != want[0] || records[0].Artifacts[1] != want[1] {
		t.Errorf("Artifacts = %v, want %v", records[0].Artifacts, want)
	}
}

func TestWriteArtifactsJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := []*model.TableRecord{{
		RegionID:  "p001_r002",
		PageIndex: 1,
		Method:    MethodA,
		Accuracy:  0.9,
		Cells:     [][]string{{"a", "b"}, {"", "d"}},
	}}

	if err := WriteArtifacts(dir, records); err != nil {
		t.Fatalf("WriteArtifacts() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "page_001_table_000_method_a.json"))
	if err != nil {
		t.Fatalf("reading json: %v", err)
	}
	var got model.TableRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RegionID != "p001_r002" || got.Method != MethodA {
		t.Errorf("record = %+v", got)
	}
	if got.Cells[1][1] != "d" {
		t.Errorf("Cells[1][1] = %q, want %q", got.Cells[1][1], "d")
	}
	// The JSON lists its own artifact names.
	if len(got.Artifacts) != 2 {
		t.Errorf("Artifacts = %v, want both file names", got.Artifacts)
	}
}
