package tables

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lecternproj/lectern/model"
)

// WriteArtifacts persists every record with a non-empty grid as a CSV
// and a JSON file under dir, named page_PPP_table_TTT_method, where TTT
// counts tables per page in record order. File names are stored back
// into each record's Artifacts field before the JSON is written, so the
// JSON artifact lists its own name.
func WriteArtifacts(dir string, records []*model.TableRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tables dir: %w", err)
	}

	perPage := make(map[int]int)
	for _, r := range records {
		index := perPage[r.PageIndex]
		perPage[r.PageIndex]++
		if len(r.Cells) == 0 {
			continue
		}

		base := fmt.Sprintf("page_%03d_table_%03d_%s", r.PageIndex, index, r.Method)
		csvName := base + ".csv"
		jsonName := base + ".json"
		r.Artifacts = []string{csvName, jsonName}

		if err := writeCSV(filepath.Join(dir, csvName), r.Cells); err != nil {
			return err
		}
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal table %s: %w", r.RegionID, err)
		}
		if err := os.WriteFile(filepath.Join(dir, jsonName), data, 0o644); err != nil {
			return fmt.Errorf("write table json: %w", err)
		}
	}
	return nil
}

func writeCSV(path string, cells [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range cells {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write table csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
