package gold

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrostat/eiapipe/internal/catalog"
	"github.com/petrostat/eiapipe/internal/pipeline"
	"github.com/petrostat/eiapipe/internal/silver"
	"github.com/petrostat/eiapipe/pkg/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Entry{
		{SeriesID: "S1", MetricName: "Production", Category: models.CategorySupply},
		{SeriesID: "S2", MetricName: "Imports", Category: models.CategorySupply},
		{SeriesID: "S3", MetricName: "Exports", Category: models.CategoryDisposition},
		{SeriesID: "S4", MetricName: "Product_Supplied", Category: models.CategoryDisposition},
	})
	require.NoError(t, err)
	return c
}

// obs builds a monthly observation row for tests.
func obs(year, month int, metric string, value float64) models.ObservationRow {
	date := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return models.ObservationRow{
		Date:       date,
		MetricName: metric,
		Value:      value,
		Year:       year,
		Month:      month,
	}
}

func TestAnnualAverageIdenticalMonths(t *testing.T) {
	var rows []models.ObservationRow
	for m := 1; m <= 12; m++ {
		rows = append(rows, obs(2020, m, "Production", 150.0))
	}

	annual := CalculateAnnualAverages(rows)
	require.Len(t, annual, 1)
	assert.Equal(t, 2020, annual[0].Year)
	assert.Equal(t, 150.0, annual[0].AnnualAvg)
}

func TestAnnualAverageMixedMonths(t *testing.T) {
	var rows []models.ObservationRow
	for m := 1; m <= 6; m++ {
		rows = append(rows, obs(2020, m, "Production", 100.0))
	}
	for m := 7; m <= 12; m++ {
		rows = append(rows, obs(2020, m, "Production", 200.0))
	}

	annual := CalculateAnnualAverages(rows)
	require.Len(t, annual, 1)
	assert.Equal(t, 150.0, annual[0].AnnualAvg)
}

func TestAnnualAveragePartialYear(t *testing.T) {
	// Partial coverage averages over the months present, no
	// normalization by 12.
	rows := []models.ObservationRow{
		obs(2024, 1, "Production", 100),
		obs(2024, 2, "Production", 200),
		obs(2024, 3, "Production", 300),
	}

	annual := CalculateAnnualAverages(rows)
	require.Len(t, annual, 1)
	assert.Equal(t, 200.0, annual[0].AnnualAvg)
}

func TestPivotNeverFabricatesZero(t *testing.T) {
	metrics := []models.AnnualMetric{
		{Year: 2020, MetricName: "Production", AnnualAvg: 100},
		{Year: 2021, MetricName: "Exports", AnnualAvg: 50},
	}

	table := PivotToWide(metrics, testCatalog(t))
	require.Len(t, table.Rows, 2)

	missing := table.Rows[0].Value("Exports")
	assert.False(t, missing.Valid, "missing (year, metric) must be absent")
	assert.NotEqual(t, models.Float(0), missing)

	missing = table.Rows[1].Value("Production")
	assert.False(t, missing.Valid)
}

func TestPivotColumnOrder(t *testing.T) {
	metrics := []models.AnnualMetric{
		{Year: 2020, MetricName: "Exports", AnnualAvg: 1},
		{Year: 2020, MetricName: "Production", AnnualAvg: 2},
		{Year: 2020, MetricName: "Imports", AnnualAvg: 3},
		{Year: 2020, MetricName: "Product_Supplied", AnnualAvg: 4},
	}

	table := PivotToWide(metrics, testCatalog(t))
	assert.Equal(t, []string{"Production", "Imports", "Exports", "Product_Supplied"}, table.Metrics)
}

func TestPivotKeepsUncataloguedMetricAsDataColumn(t *testing.T) {
	metrics := []models.AnnualMetric{
		{Year: 2020, MetricName: "Production", AnnualAvg: 2},
		{Year: 2020, MetricName: "Refinery_Losses", AnnualAvg: 9},
	}

	table := PivotToWide(metrics, testCatalog(t))
	assert.Equal(t, []string{"Production", "Refinery_Losses"}, table.Metrics)
	assert.Equal(t, models.Float(9), table.Rows[0].Value("Refinery_Losses"))
}

func TestBalanceCheckEqualTotals(t *testing.T) {
	rows := []models.ObservationRow{
		obs(2020, 1, "Production", 100),
		obs(2020, 1, "Imports", 80),
		obs(2020, 1, "Exports", 30),
		obs(2020, 1, "Product_Supplied", 150),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, models.Float(180), row.TotalSupply)
	assert.Equal(t, models.Float(180), row.TotalDisposition)
	assert.Equal(t, models.Float(0), row.BalanceDifference)
	assert.Equal(t, models.Float(0), row.BalancePctDiff)
}

func TestBalanceCheckImbalance(t *testing.T) {
	rows := []models.ObservationRow{
		obs(2020, 1, "Production", 100),
		obs(2020, 1, "Imports", 80),
		obs(2020, 1, "Exports", 20),
		obs(2020, 1, "Product_Supplied", 150),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)

	row := table.Rows[0]
	require.True(t, row.BalanceDifference.Valid)
	assert.InDelta(t, 10.0, row.BalanceDifference.Float64, 1e-9)
	require.True(t, row.BalancePctDiff.Valid)
	assert.InDelta(t, 5.56, row.BalancePctDiff.Float64, 0.01)
}

func TestBalancePctAbsentWhenSupplyAbsent(t *testing.T) {
	// Disposition-only year: supply total is absent, so the difference
	// and percentage are absent too.
	rows := []models.ObservationRow{
		obs(2020, 1, "Exports", 30),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)

	row := table.Rows[0]
	assert.False(t, row.TotalSupply.Valid)
	assert.Equal(t, models.Float(30), row.TotalDisposition)
	assert.False(t, row.BalanceDifference.Valid)
	assert.False(t, row.BalancePctDiff.Valid)
}

func TestBalancePctAbsentWhenSupplyZero(t *testing.T) {
	rows := []models.ObservationRow{
		obs(2020, 1, "Production", 0),
		obs(2020, 1, "Exports", 30),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)

	row := table.Rows[0]
	assert.Equal(t, models.Float(0), row.TotalSupply)
	assert.Equal(t, models.Float(-30), row.BalanceDifference)
	assert.False(t, row.BalancePctDiff.Valid, "division by zero must yield absent, not error")
}

func TestAggregateRoundsToThreeDecimals(t *testing.T) {
	// Monthly thirds: 100, 100, 101 → 100.333...
	rows := []models.ObservationRow{
		obs(2020, 1, "Production", 100),
		obs(2020, 2, "Production", 100),
		obs(2020, 3, "Production", 101),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, models.Float(100.333), table.Rows[0].Value("Production"))
	assert.Equal(t, models.Float(100.333), table.Rows[0].TotalSupply)
}

func TestAggregateEmptyInput(t *testing.T) {
	_, err := Aggregate(nil, testCatalog(t))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Aggregate([]models.ObservationRow{}, testCatalog(t))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAggregateSortsYearsAscending(t *testing.T) {
	rows := []models.ObservationRow{
		obs(2022, 1, "Production", 3),
		obs(2019, 1, "Production", 1),
		obs(2020, 1, "Production", 2),
	}

	table, err := Aggregate(rows, testCatalog(t))
	require.NoError(t, err)

	years := []int{table.Rows[0].Year, table.Rows[1].Year, table.Rows[2].Year}
	assert.Equal(t, []int{2019, 2020, 2022}, years)
}

func TestGoldOutputIdempotent(t *testing.T) {
	// Re-running aggregation on an unchanged silver artifact produces
	// byte-identical gold output.
	dir := t.TempDir()
	silverPath := filepath.Join(dir, "clean.csv")
	goldPath := filepath.Join(dir, "annual.csv")

	var rows []models.ObservationRow
	for m := 1; m <= 12; m++ {
		rows = append(rows, obs(2020, m, "Production", 100+float64(m)*0.77))
		rows = append(rows, obs(2020, m, "Exports", 50+float64(m)*0.33))
	}
	require.NoError(t, silver.WriteCSV(rows, silverPath))

	agg := New(silverPath, goldPath, testCatalog(t), testLogger())
	require.NoError(t, agg.Run(context.Background()))
	first, err := os.ReadFile(goldPath)
	require.NoError(t, err)

	require.NoError(t, agg.Run(context.Background()))
	second, err := os.ReadFile(goldPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunMissingSilverArtifact(t *testing.T) {
	agg := New(filepath.Join(t.TempDir(), "missing.csv"), "", testCatalog(t), testLogger())

	err := agg.Run(context.Background())
	var artErr *pipeline.ArtifactMissingError
	require.ErrorAs(t, err, &artErr)
	assert.Contains(t, artErr.Error(), "eiapipe normalize")
}

func TestRunWritesGoldCSV(t *testing.T) {
	dir := t.TempDir()
	silverPath := filepath.Join(dir, "clean.csv")
	goldPath := filepath.Join(dir, "gold", "annual.csv")

	rows := []models.ObservationRow{
		obs(2020, 1, "Production", 180),
		obs(2020, 1, "Exports", 170),
	}
	require.NoError(t, silver.WriteCSV(rows, silverPath))

	agg := New(silverPath, goldPath, testCatalog(t), testLogger())
	require.NoError(t, agg.Run(context.Background()))

	data, err := os.ReadFile(goldPath)
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, "year,Production,Exports,Total_Supply,Total_Disposition,Balance_Difference,Balance_Pct_Diff")
	assert.Contains(t, got, "2020,180,170,180,170,10,5.556")

	require.NotNil(t, agg.Table())
	assert.Len(t, agg.Table().Rows, 1)
}
