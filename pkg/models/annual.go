package models

// AnnualWideRow is one pivoted year: one optional cell per metric plus
// the derived balance columns. Cells and totals are NullFloat64 so a
// year/metric pair with no observations stays distinguishable from a
// genuine zero.
type AnnualWideRow struct {
	Year              int
	Values            map[string]NullFloat64 // keyed by metric name
	TotalSupply       NullFloat64
	TotalDisposition  NullFloat64
	BalanceDifference NullFloat64
	BalancePctDiff    NullFloat64
}

// Value returns the cell for a metric, absent when the metric has no
// data for this year.
func (r AnnualWideRow) Value(metric string) NullFloat64 {
	if v, ok := r.Values[metric]; ok {
		return v
	}
	return Null()
}

// AnnualTable is the final wide-format artifact: an explicit column
// order (the pivot's ordering hint) plus one row per year, ascending.
type AnnualTable struct {
	Metrics []string // metric columns in output order
	Rows    []AnnualWideRow
}
