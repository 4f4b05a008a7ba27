// Package silver implements the cleaning stage: raw bronze envelopes
// are flattened into a tidy long-format table, one row per month per
// metric, with typed values and supply/disposition classification.
// Units remain MBBL/D (thousand barrels per day).
package silver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petrostat/eiapipe/internal/bronze"
	"github.com/petrostat/eiapipe/internal/catalog"
	"github.com/petrostat/eiapipe/internal/eia"
	"github.com/petrostat/eiapipe/internal/pipeline"
	"github.com/petrostat/eiapipe/pkg/models"
)

// Transformer normalizes a bronze artifact into the silver table.
type Transformer struct {
	bronzePath string
	outPath    string
	catalog    catalog.Catalog
	log        *logrus.Logger
}

// New creates the transformation stage.
func New(bronzePath, outPath string, cat catalog.Catalog, log *logrus.Logger) *Transformer {
	return &Transformer{bronzePath: bronzePath, outPath: outPath, catalog: cat, log: log}
}

// Name implements pipeline.Stage.
func (t *Transformer) Name() string { return "silver" }

// Normalize flattens raw per-series envelopes into observation rows.
// Soft failures are absorbed and logged: a series with a missing or
// empty observation list is skipped, and individual records with an
// unparsable period or a non-numeric value are dropped. Every surviving
// row has a present value, and rows are sorted by (date, metric name).
func (t *Transformer) Normalize(raw map[string]json.RawMessage) []models.ObservationRow {
	type pending struct {
		row   models.ObservationRow
		value models.NullFloat64
	}
	var all []pending
	var badPeriods, badValues int

	for _, seriesID := range sortedKeys(raw) {
		entry, ok := t.catalog.Lookup(seriesID)
		if !ok {
			t.log.WithField("series_id", seriesID).Warn("Series not in catalog, skipping")
			continue
		}

		resp, ok, err := eia.DecodeResponse(raw[seriesID])
		if err != nil {
			t.log.WithError(err).WithField("series_id", seriesID).Warn("Failed to decode series envelope")
			continue
		}
		if !ok {
			t.log.WithField("series_id", seriesID).Warn("No data found for series")
			continue
		}
		if len(resp.Data) == 0 {
			t.log.WithField("series_id", seriesID).Warn("Empty data for series")
			continue
		}

		for _, rec := range resp.Data {
			date, err := parsePeriod(rec.Period)
			if err != nil {
				badPeriods++
				continue
			}
			all = append(all, pending{
				row: models.ObservationRow{
					Date:       date,
					SeriesID:   seriesID,
					MetricName: entry.MetricName,
					Year:       date.Year(),
					Month:      int(date.Month()),
					Category:   t.catalog.CategoryOf(entry.MetricName),
				},
				value: CoerceValue(rec.Value),
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].row.Date.Equal(all[j].row.Date) {
			return all[i].row.Date.Before(all[j].row.Date)
		}
		return all[i].row.MetricName < all[j].row.MetricName
	})

	rows := make([]models.ObservationRow, 0, len(all))
	for _, p := range all {
		if !p.value.Valid {
			badValues++
			continue
		}
		p.row.Value = p.value.Float64
		rows = append(rows, p.row)
	}

	if badPeriods > 0 {
		t.log.WithField("dropped", badPeriods).Warn("Dropped rows with unparsable periods")
	}
	if badValues > 0 {
		t.log.WithField("dropped", badValues).Info("Removed rows with missing values")
	}
	if len(rows) > 0 {
		t.log.WithFields(logrus.Fields{
			"rows": len(rows),
			"from": rows[0].Date.Format("2006-01-02"),
			"to":   rows[len(rows)-1].Date.Format("2006-01-02"),
		}).Info("Normalized dataset")
	}
	return rows
}

// CoerceValue converts a raw observation value to a typed number. The
// API emits both JSON numbers and numeric strings; anything that fails
// coercion becomes absent, never zero. This is the single coercion
// boundary: no untyped value escapes the silver layer.
func CoerceValue(v any) models.NullFloat64 {
	switch x := v.(type) {
	case float64:
		return models.Float(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return models.Null()
		}
		return models.Float(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return models.Null()
		}
		return models.Float(f)
	default:
		return models.Null()
	}
}

// parsePeriod parses a YYYY-MM period into the first of that month.
func parsePeriod(period string) (time.Time, error) {
	return time.Parse("2006-01", period)
}

// Run implements pipeline.Stage: load bronze, normalize, persist CSV.
func (t *Transformer) Run(ctx context.Context) error {
	raw, err := bronze.Load(t.bronzePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &pipeline.ArtifactMissingError{Path: t.bronzePath, RunFirst: "eiapipe fetch"}
		}
		return err
	}
	t.log.WithField("series", len(raw)).Info("Loaded raw data")

	rows := t.Normalize(raw)
	if err := WriteCSV(rows, t.outPath); err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{
		"rows": len(rows),
		"path": t.outPath,
	}).Info("Clean data saved")
	return nil
}

// sortedKeys returns map keys in a stable order so reruns on the same
// bronze artifact visit series deterministically.
func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
