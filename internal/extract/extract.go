// Package extract implements the local statistic extractors: each reduces a
// station's table to a small, privacy-safe sufficient statistic. Extractors
// are pure functions of the validated column set and depend on nothing else
// in the core; failures come back as errors from the station error taxonomy
// and never cross the station boundary as panics.
package extract

import (
	"fedstats/domain/core"
	"fedstats/domain/table"
)

// selectFeatures resolves the requested columns against a table following
// the shared validation ladder: empty table, then schema presence, then
// numeric-only default selection.
func selectFeatures(tbl *table.Table, requested []string) ([]string, error) {
	if tbl.IsEmpty() {
		return nil, core.ErrEmptyTable
	}
	if len(requested) > 0 {
		if missing := tbl.MissingColumns(requested); len(missing) > 0 {
			return nil, core.NewSchemaError(missing)
		}
		return requested, nil
	}
	features := tbl.NumericColumns()
	if len(features) == 0 {
		return nil, core.ErrNoUsableRows
	}
	return features, nil
}

// completeRows computes the rows usable after dropping any row with a
// missing value in the selected columns; zero remaining rows is a data
// error.
func completeRows(tbl *table.Table, features []string) ([]bool, int, error) {
	mask, err := tbl.CompleteMask(features)
	if err != nil {
		return nil, 0, err
	}
	n := table.CountTrue(mask)
	if n == 0 {
		return nil, 0, core.ErrNoUsableRows
	}
	return mask, n, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance is the unbiased (n-1 denominator) variance; zero when
// fewer than two values, so count-1 weighting drops it from pooling.
func sampleVariance(values []float64, mu float64) float64 {
	if len(values) < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		dev := v - mu
		ss += dev * dev
	}
	return ss / float64(len(values)-1)
}
