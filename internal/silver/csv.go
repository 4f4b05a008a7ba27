package silver

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/petrostat/eiapipe/pkg/models"
)

// csvHeader is the silver artifact column set, in order.
var csvHeader = []string{"date", "series_id", "metric_name", "value", "year", "month", "category"}

const dateLayout = "2006-01-02"

// WriteCSV persists observation rows as the silver artifact. Dates are
// written as ISO calendar dates with the day fixed to the 1st; values
// use the shortest representation that round-trips exactly.
func WriteCSV(rows []models.ObservationRow, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("silver: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("silver: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("silver: write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format(dateLayout),
			r.SeriesID,
			r.MetricName,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			string(r.Category),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("silver: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("silver: flush %s: %w", path, err)
	}
	return nil
}

// ReadCSV loads a silver artifact back into observation rows. It is the
// gold stage's input loader.
func ReadCSV(path string) ([]models.ObservationRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("silver: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]models.ObservationRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("silver: row %d: expected %d columns, got %d", i+2, len(csvHeader), len(rec))
		}
		date, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("silver: row %d: bad date %q: %w", i+2, rec[0], err)
		}
		value, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("silver: row %d: bad value %q: %w", i+2, rec[3], err)
		}
		year, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("silver: row %d: bad year %q: %w", i+2, rec[4], err)
		}
		month, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("silver: row %d: bad month %q: %w", i+2, rec[5], err)
		}
		rows = append(rows, models.ObservationRow{
			Date:       date,
			SeriesID:   rec[1],
			MetricName: rec[2],
			Value:      value,
			Year:       year,
			Month:      month,
			Category:   models.Category(rec[6]),
		})
	}
	return rows, nil
}
