// Package gold implements the aggregation stage: monthly silver rows
// become annual averages, pivoted to wide format with one column per
// metric and a supply/disposition balance check per year.
package gold

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/petrostat/eiapipe/internal/catalog"
	"github.com/petrostat/eiapipe/internal/pipeline"
	"github.com/petrostat/eiapipe/internal/silver"
	"github.com/petrostat/eiapipe/pkg/models"
)

// ErrEmptyInput is returned when aggregation is asked to run on zero
// rows; a vacuous gold table is never produced.
var ErrEmptyInput = errors.New("gold: no input rows to aggregate")

// Aggregation computes the annual wide table from the silver artifact.
type Aggregation struct {
	silverPath string
	outPath    string
	catalog    catalog.Catalog
	log        *logrus.Logger
	table      *models.AnnualTable // set after a successful Run
}

// New creates the aggregation stage.
func New(silverPath, outPath string, cat catalog.Catalog, log *logrus.Logger) *Aggregation {
	return &Aggregation{silverPath: silverPath, outPath: outPath, catalog: cat, log: log}
}

// Name implements pipeline.Stage.
func (a *Aggregation) Name() string { return "gold" }

// Table returns the result of the last successful Run, nil before.
func (a *Aggregation) Table() *models.AnnualTable { return a.table }

// CalculateAnnualAverages groups rows by (year, metric) and computes
// the unweighted arithmetic mean of each group. Partial years are
// averaged over however many months are present; duplicate
// (date, metric) rows simply average together.
func CalculateAnnualAverages(rows []models.ObservationRow) []models.AnnualMetric {
	type key struct {
		year   int
		metric string
	}
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[key]*acc)
	for _, r := range rows {
		k := key{year: r.Year, metric: r.MetricName}
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
		}
		g.sum += r.Value
		g.count++
	}

	metrics := make([]models.AnnualMetric, 0, len(groups))
	for k, g := range groups {
		metrics = append(metrics, models.AnnualMetric{
			Year:       k.year,
			MetricName: k.metric,
			AnnualAvg:  g.sum / float64(g.count),
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Year != metrics[j].Year {
			return metrics[i].Year < metrics[j].Year
		}
		return metrics[i].MetricName < metrics[j].MetricName
	})
	return metrics
}

// PivotToWide reshapes long annual metrics into one row per year with
// one column per metric present anywhere in the input. A (year, metric)
// pair with no observation stays absent — never zero. Column order is
// the catalog's ordering hint (supply block, then disposition block);
// metrics outside the catalog carry no hint and are appended after it
// in name order.
func PivotToWide(metrics []models.AnnualMetric, cat catalog.Catalog) models.AnnualTable {
	present := make(map[string]bool)
	years := make(map[int]map[string]models.NullFloat64)
	for _, m := range metrics {
		present[m.MetricName] = true
		if years[m.Year] == nil {
			years[m.Year] = make(map[string]models.NullFloat64)
		}
		years[m.Year][m.MetricName] = models.Float(m.AnnualAvg)
	}

	var columns []string
	for _, name := range cat.MetricOrder() {
		if present[name] {
			columns = append(columns, name)
			delete(present, name)
		}
	}
	var extras []string
	for name := range present {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	yearKeys := make([]int, 0, len(years))
	for y := range years {
		yearKeys = append(yearKeys, y)
	}
	sort.Ints(yearKeys)

	rows := make([]models.AnnualWideRow, 0, len(yearKeys))
	for _, y := range yearKeys {
		rows = append(rows, models.AnnualWideRow{Year: y, Values: years[y]})
	}
	return models.AnnualTable{Metrics: columns, Rows: rows}
}

// AddBalanceCheck derives the reconciliation columns for each year.
// Totals are presence-aware sums: absent cells contribute nothing, and
// a category with every cell absent yields an absent total. The
// difference needs both totals; the percentage needs a present,
// non-zero total supply.
func AddBalanceCheck(table *models.AnnualTable, cat catalog.Catalog) {
	supplyCols := intersect(table.Metrics, cat.MetricsIn(models.CategorySupply))
	dispCols := intersect(table.Metrics, cat.MetricsIn(models.CategoryDisposition))

	for i := range table.Rows {
		row := &table.Rows[i]

		row.TotalSupply = sumColumns(*row, supplyCols)
		row.TotalDisposition = sumColumns(*row, dispCols)

		if row.TotalSupply.Valid && row.TotalDisposition.Valid {
			row.BalanceDifference = models.Float(row.TotalSupply.Float64 - row.TotalDisposition.Float64)
		} else {
			row.BalanceDifference = models.Null()
		}

		if row.BalanceDifference.Valid && row.TotalSupply.Valid && row.TotalSupply.Float64 != 0 {
			pct := row.BalanceDifference.Float64 / row.TotalSupply.Float64 * 100
			row.BalancePctDiff = models.Float(round3(pct))
		} else {
			row.BalancePctDiff = models.Null()
		}
	}
}

// Aggregate runs the full gold computation: annual means, wide pivot,
// balance check, then 3-decimal rounding of every numeric column except
// the year. Zero input rows fail with ErrEmptyInput.
func Aggregate(rows []models.ObservationRow, cat catalog.Catalog) (models.AnnualTable, error) {
	if len(rows) == 0 {
		return models.AnnualTable{}, ErrEmptyInput
	}

	annual := CalculateAnnualAverages(rows)
	table := PivotToWide(annual, cat)
	AddBalanceCheck(&table, cat)
	roundTable(&table)
	return table, nil
}

// roundTable rounds all numeric cells to 3 decimals before persistence
// so reruns on identical input emit identical bytes.
func roundTable(table *models.AnnualTable) {
	for i := range table.Rows {
		row := &table.Rows[i]
		for name, v := range row.Values {
			if v.Valid {
				row.Values[name] = models.Float(round3(v.Float64))
			}
		}
		row.TotalSupply = roundNull(row.TotalSupply)
		row.TotalDisposition = roundNull(row.TotalDisposition)
		row.BalanceDifference = roundNull(row.BalanceDifference)
		row.BalancePctDiff = roundNull(row.BalancePctDiff)
	}
}

func roundNull(v models.NullFloat64) models.NullFloat64 {
	if !v.Valid {
		return v
	}
	return models.Float(round3(v.Float64))
}

// round3 rounds half away from zero at 3 decimals via decimal
// arithmetic, avoiding float accumulation artifacts.
func round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}

// sumColumns is the presence-aware sum of a row's cells.
func sumColumns(row models.AnnualWideRow, columns []string) models.NullFloat64 {
	total := models.Null()
	for _, name := range columns {
		total = total.Add(row.Value(name))
	}
	return total
}

// intersect keeps the elements of order that appear in allowed,
// preserving order's sequence.
func intersect(order, allowed []string) []string {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	var out []string
	for _, o := range order {
		if set[o] {
			out = append(out, o)
		}
	}
	return out
}

// Run implements pipeline.Stage: load silver, aggregate, persist CSV.
func (a *Aggregation) Run(ctx context.Context) error {
	rows, err := silver.ReadCSV(a.silverPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &pipeline.ArtifactMissingError{Path: a.silverPath, RunFirst: "eiapipe normalize"}
		}
		return err
	}
	a.log.WithField("rows", len(rows)).Info("Loaded clean data")

	table, err := Aggregate(rows, a.catalog)
	if err != nil {
		return err
	}
	if err := WriteCSV(table, a.outPath); err != nil {
		return err
	}
	a.table = &table

	a.log.WithFields(logrus.Fields{
		"years":   len(table.Rows),
		"columns": len(table.Metrics),
		"path":    a.outPath,
	}).Info("Annual data saved")
	return nil
}
