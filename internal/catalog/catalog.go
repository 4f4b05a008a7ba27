// Package catalog defines the static series catalog: the mapping from
// EIA series identifiers to human-readable metric names and their
// supply/disposition classification. The catalog is immutable and is
// passed explicitly into each pipeline stage so tests can substitute
// their own.
package catalog

import (
	"fmt"

	"github.com/petrostat/eiapipe/pkg/models"
)

// Entry is one configured series.
type Entry struct {
	SeriesID   string
	MetricName string
	Category   models.Category
}

// Catalog is an ordered, immutable set of series entries. Declaration
// order is significant: it drives the column order of the gold table.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
	byName  map[string]Entry
}

// New builds a catalog from entries, rejecting duplicate series ids or
// metric names.
func New(entries []Entry) (Catalog, error) {
	byID := make(map[string]Entry, len(entries))
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if _, dup := byID[e.SeriesID]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate series id %q", e.SeriesID)
		}
		if _, dup := byName[e.MetricName]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate metric name %q", e.MetricName)
		}
		byID[e.SeriesID] = e
		byName[e.MetricName] = e
	}
	return Catalog{entries: append([]Entry(nil), entries...), byID: byID, byName: byName}, nil
}

// MustNew is New for static catalogs that are known valid.
func MustNew(entries []Entry) Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Default is the PADD 3 distillate fuel oil catalog: three supply and
// three disposition series, monthly, in thousand barrels per day.
func Default() Catalog {
	return MustNew([]Entry{
		{SeriesID: "MDIRPP32", MetricName: "Production", Category: models.CategorySupply},
		{SeriesID: "MDIIMP32", MetricName: "Imports", Category: models.CategorySupply},
		{SeriesID: "MDINRP32", MetricName: "Net_Receipts", Category: models.CategorySupply},
		{SeriesID: "MDISCP32", MetricName: "Stock_Change", Category: models.CategoryDisposition},
		{SeriesID: "MDIEXP32", MetricName: "Exports", Category: models.CategoryDisposition},
		{SeriesID: "MDIUPP32", MetricName: "Product_Supplied", Category: models.CategoryDisposition},
	})
}

// Len returns the number of configured series.
func (c Catalog) Len() int { return len(c.entries) }

// SeriesIDs returns series ids in declaration order.
func (c Catalog) SeriesIDs() []string {
	ids := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		ids = append(ids, e.SeriesID)
	}
	return ids
}

// Lookup returns the entry for a series id.
func (c Catalog) Lookup(seriesID string) (Entry, bool) {
	e, ok := c.byID[seriesID]
	return e, ok
}

// CategoryOf classifies a metric name. Metrics outside the catalog are
// CategoryOther.
func (c Catalog) CategoryOf(metricName string) models.Category {
	if e, ok := c.byName[metricName]; ok {
		return e.Category
	}
	return models.CategoryOther
}

// MetricOrder returns metric names in output order: supply metrics in
// declaration order, then disposition metrics in declaration order.
// Other-category metrics carry no ordering hint and are excluded.
func (c Catalog) MetricOrder() []string {
	order := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Category == models.CategorySupply {
			order = append(order, e.MetricName)
		}
	}
	for _, e := range c.entries {
		if e.Category == models.CategoryDisposition {
			order = append(order, e.MetricName)
		}
	}
	return order
}

// MetricsIn returns the catalog's metric names for one category, in
// declaration order.
func (c Catalog) MetricsIn(cat models.Category) []string {
	var names []string
	for _, e := range c.entries {
		if e.Category == cat {
			names = append(names, e.MetricName)
		}
	}
	return names
}
