package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrostat/eiapipe/pkg/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 6, c.Len())

	entry, ok := c.Lookup("MDIRPP32")
	require.True(t, ok)
	assert.Equal(t, "Production", entry.MetricName)
	assert.Equal(t, models.CategorySupply, entry.Category)

	entry, ok = c.Lookup("MDIUPP32")
	require.True(t, ok)
	assert.Equal(t, "Product_Supplied", entry.MetricName)
	assert.Equal(t, models.CategoryDisposition, entry.Category)

	_, ok = c.Lookup("NOPE")
	assert.False(t, ok)
}

func TestMetricOrderSupplyFirst(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{
		"Production", "Imports", "Net_Receipts",
		"Stock_Change", "Exports", "Product_Supplied",
	}, c.MetricOrder())
}

func TestCategoryOf(t *testing.T) {
	c := Default()
	assert.Equal(t, models.CategorySupply, c.CategoryOf("Imports"))
	assert.Equal(t, models.CategoryDisposition, c.CategoryOf("Exports"))
	assert.Equal(t, models.CategoryOther, c.CategoryOf("Refinery_Losses"))
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Entry{
		{SeriesID: "A", MetricName: "One", Category: models.CategorySupply},
		{SeriesID: "A", MetricName: "Two", Category: models.CategorySupply},
	})
	assert.Error(t, err)

	_, err = New([]Entry{
		{SeriesID: "A", MetricName: "One", Category: models.CategorySupply},
		{SeriesID: "B", MetricName: "One", Category: models.CategoryDisposition},
	})
	assert.Error(t, err)
}

func TestMetricsIn(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"Production", "Imports", "Net_Receipts"}, c.MetricsIn(models.CategorySupply))
	assert.Equal(t, []string{"Stock_Change", "Exports", "Product_Supplied"}, c.MetricsIn(models.CategoryDisposition))
	assert.Empty(t, c.MetricsIn(models.CategoryOther))
}
