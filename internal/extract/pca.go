package extract

import (
	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
)

// PCA reduces a station's table to the linear sufficient statistics of a
// principal component analysis: row count, column-wise sums and the
// uncentered second-moment matrix X'X. No mean or covariance is computed
// here; only linear statistics leave the station.
func PCA(tbl *table.Table, features []string) (*stats.PCAPartial, error) {
	cols, err := selectFeatures(tbl, features)
	if err != nil {
		return nil, err
	}
	if bad := tbl.NonNumericColumns(cols); len(bad) > 0 {
		return nil, core.NewNonNumericError(bad)
	}

	mask, n, err := completeRows(tbl, cols)
	if err != nil {
		return nil, err
	}

	d := len(cols)
	columns := make([][]float64, d)
	for c, name := range cols {
		values, err := tbl.MaskedFloats(name, mask)
		if err != nil {
			return nil, err
		}
		columns[c] = values
	}

	partial := &stats.PCAPartial{
		N:       n,
		Columns: append([]string(nil), cols...),
		Sum:     make([]float64, d),
		SumSq:   make([][]float64, d),
	}
	for i := range partial.SumSq {
		partial.SumSq[i] = make([]float64, d)
	}

	for i := 0; i < d; i++ {
		for _, v := range columns[i] {
			partial.Sum[i] += v
		}
		// X'X is symmetric; fill the upper triangle and mirror.
		for j := i; j < d; j++ {
			dot := 0.0
			for r := 0; r < n; r++ {
				dot += columns[i][r] * columns[j][r]
			}
			partial.SumSq[i][j] = dot
			partial.SumSq[j][i] = dot
		}
	}

	return partial, nil
}
