package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/de-tools/alca/pkg/models/domain"
)

const (
	StorageGroupedFile        = "storage_grouped.csv"
	CostsGroupedFile          = "costs_grouped.csv"
	CostsWorkspaceGroupedFile = "costs_workspace_grouped.csv"
	CostsSharedGroupedFile    = "costs_shared_grouped.csv"
)

// WriteAnalysis writes the grouped tables of an analysis as CSV files into dir and
// returns the paths written.
func WriteAnalysis(dir string, analysis *domain.Analysis) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	storage := [][]string{{"workspace_or_container", "Content-Length", "MB", "Total Size"}}
	for _, s := range analysis.StorageGrouped {
		storage = append(storage, []string{
			s.Key,
			strconv.FormatInt(s.ContentLength, 10),
			strconv.FormatFloat(s.MB, 'f', -1, 64),
			s.TotalSize,
		})
	}

	tables := []struct {
		name    string
		records [][]string
	}{
		{StorageGroupedFile, storage},
		{CostsGroupedFile, costRecords("workspace_or_category", analysis.CostsGrouped)},
		{CostsWorkspaceGroupedFile, costRecords("workspace_name", analysis.CostsWorkspaceGrouped)},
		{CostsSharedGroupedFile, costRecords("MeterCategory", analysis.CostsSharedGrouped)},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeCSV(path, t.records); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func costRecords(keyColumn string, groups []domain.CostSummary) [][]string {
	records := [][]string{{keyColumn, "Cost", "Rows"}}
	for _, g := range groups {
		records = append(records, []string{
			g.Key,
			strconv.FormatFloat(g.Cost, 'f', -1, 64),
			strconv.Itoa(g.Count),
		})
	}
	return records
}

func writeCSV(path string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
