// Package models defines the data shapes shared across pipeline stages:
// normalized monthly observations, annual aggregates, and the nullable
// numeric type used to keep "no data" distinct from zero.
package models

import (
	"strconv"
	"time"
)

// Category classifies a metric on the supply/disposition balance.
type Category string

const (
	CategorySupply      Category = "Supply"
	CategoryDisposition Category = "Disposition"
	CategoryOther       Category = "Other"
)

// ObservationRow is one normalized monthly observation: a single
// (month, metric) data point in thousand barrels per day.
type ObservationRow struct {
	Date       time.Time `json:"date"` // first of the month
	SeriesID   string    `json:"series_id"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"` // MBBL/D
	Year       int       `json:"year"`
	Month      int       `json:"month"` // 1-12
	Category   Category  `json:"category"`
}

// AnnualMetric is one (year, metric) annual average in long format.
type AnnualMetric struct {
	Year       int
	MetricName string
	AnnualAvg  float64
}

// NullFloat64 is a float64 that can be absent. Absence means "no
// observation", which must never collapse into 0 when summing or
// rendering.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float returns a present NullFloat64.
func Float(v float64) NullFloat64 {
	return NullFloat64{Float64: v, Valid: true}
}

// Null returns an absent NullFloat64.
func Null() NullFloat64 {
	return NullFloat64{}
}

// Add is presence-aware addition: absent operands contribute nothing,
// and the result is absent only when both operands are absent.
func (n NullFloat64) Add(other NullFloat64) NullFloat64 {
	switch {
	case n.Valid && other.Valid:
		return Float(n.Float64 + other.Float64)
	case n.Valid:
		return n
	case other.Valid:
		return other
	default:
		return Null()
	}
}

// String renders the value for tabular output. Absent values render as
// an empty cell, never as 0.
func (n NullFloat64) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// SumNullFloat64 folds values with presence-aware addition. An input with
// no present value yields an absent result.
func SumNullFloat64(values ...NullFloat64) NullFloat64 {
	total := Null()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
