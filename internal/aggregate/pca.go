package aggregate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/internal"
	"fedstats/ports"
)

// PCA folds per-station linear sufficient statistics (n, sum, X'X) into the
// global covariance and its eigendecomposition. The first usable station
// fixes the column set; a station with different columns is a structural
// mismatch and fails the run, while a station with a malformed shape is
// skipped. nComponents is clamped to [1, d].
func PCA(results []ports.StationResult, nComponents int, center bool) (*stats.PCAResult, error) {
	var (
		columns []string
		moments stats.MomentAccumulator
	)

	for _, res := range results {
		var p stats.PCAPartial
		if !decode(res, &p) {
			continue
		}
		if len(p.Columns) == 0 {
			internal.DefaultLogger.Warn("empty column set in result from station %s, skipping", res.Station)
			continue
		}
		if columns == nil {
			columns = p.Columns
		} else if !sameGroups(columns, p.Columns) {
			return nil, fmt.Errorf("%w: station %s reports columns %v, expected %v; "+
				"ensure all stations use the same feature set and ordering",
				core.ErrShapeMismatch, res.Station, p.Columns, columns)
		}
		if len(p.Sum) != len(columns) || len(p.SumSq) != len(columns) {
			internal.DefaultLogger.Warn("shape mismatch in result from station %s, skipping", res.Station)
			continue
		}
		if err := moments.Merge(p.Moments()); err != nil {
			internal.DefaultLogger.Warn("unmergeable result from station %s, skipping: %v", res.Station, err)
			continue
		}
	}

	if columns == nil || moments.N == 0 {
		return nil, core.ErrNoUsableResults
	}

	d := len(columns)
	n := float64(moments.N)

	mean := make([]float64, d)
	for i, s := range moments.Sum {
		mean[i] = s / n
	}

	covariance := globalCovariance(moments, center)
	eigenvalues, eigenvectors, err := eigh(covariance)
	if err != nil {
		return nil, err
	}

	// Zero means every component; negative requests clamp to one.
	k := nComponents
	if k == 0 || k > d {
		k = d
	}
	if k < 1 {
		k = 1
	}

	components := make([][]float64, d)
	for i := range components {
		components[i] = append([]float64(nil), eigenvectors[i][:k]...)
	}
	explained := append([]float64(nil), eigenvalues[:k]...)

	totalVariance := 0.0
	for _, v := range eigenvalues {
		totalVariance += v
	}
	// Zero total variance yields zero ratios, not NaNs.
	ratios := make([]float64, k)
	if totalVariance > 0 {
		for i, v := range explained {
			ratios[i] = v / totalVariance
		}
	}

	return &stats.PCAResult{
		Columns:                columns,
		NTotal:                 moments.N,
		Mean:                   mean,
		Components:             components,
		ExplainedVariance:      explained,
		ExplainedVarianceRatio: ratios,
		Centered:               center,
		Covariance:             covariance,
	}, nil
}

// globalCovariance derives the covariance matrix from the merged moments.
// With centering, scatter = X'X - (1/n) * outer(sum, sum); without, the
// raw second moment is the scatter. A single feature degenerates to a 1x1
// zero covariance.
func globalCovariance(moments stats.MomentAccumulator, center bool) [][]float64 {
	d := len(moments.Sum)
	if d == 1 {
		return [][]float64{{0}}
	}
	n := float64(moments.N)
	denom := n - 1
	if denom < 1 {
		denom = 1
	}
	cov := make([][]float64, d)
	for i := range cov {
		cov[i] = make([]float64, d)
		for j := 0; j < d; j++ {
			scatter := moments.SumSq[i][j]
			if center {
				scatter -= moments.Sum[i] * moments.Sum[j] / n
			}
			cov[i][j] = scatter / denom
		}
	}
	return cov
}

// eigh decomposes a symmetric matrix, returning eigenvalues in descending
// order and the matching eigenvectors as matrix columns.
func eigh(matrix [][]float64) ([]float64, [][]float64, error) {
	d := len(matrix)
	data := make([]float64, 0, d*d)
	for _, row := range matrix {
		data = append(data, row...)
	}
	sym := mat.NewSymDense(d, data)

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, nil, fmt.Errorf("%w: eigendecomposition failed", core.ErrAggregation)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// gonum reports eigenvalues ascending; flip to descending.
	order := make([]int, d)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	sortedValues := make([]float64, d)
	sortedVectors := make([][]float64, d)
	for i := range sortedVectors {
		sortedVectors[i] = make([]float64, d)
	}
	for rank, idx := range order {
		sortedValues[rank] = values[idx]
		for row := 0; row < d; row++ {
			sortedVectors[row][rank] = vectors.At(row, idx)
		}
	}
	return sortedValues, sortedVectors, nil
}
