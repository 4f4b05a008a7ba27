package gold

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/petrostat/eiapipe/pkg/models"
)

// balanceColumns are the derived columns appended after the metric
// columns, in order.
var balanceColumns = []string{"Total_Supply", "Total_Disposition", "Balance_Difference", "Balance_Pct_Diff"}

// WriteCSV persists the annual wide table as the gold artifact. Absent
// cells are written empty; the output is byte-stable for a given input.
func WriteCSV(table models.AnnualTable, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("gold: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gold: create %s: %w", path, err)
	}
	defer f.Close()

	header := append([]string{"year"}, table.Metrics...)
	header = append(header, balanceColumns...)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("gold: write header: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(row.Year))
		for _, metric := range table.Metrics {
			record = append(record, row.Value(metric).String())
		}
		record = append(record,
			row.TotalSupply.String(),
			row.TotalDisposition.String(),
			row.BalanceDifference.String(),
			row.BalancePctDiff.String(),
		)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("gold: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("gold: flush %s: %w", path, err)
	}
	return nil
}
