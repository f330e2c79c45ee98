package stats

import (
	"fmt"

	"fedstats/domain/core"
)

// Combine combines per-site scalar summaries for one group into a single
// global summary using the parallel-variance identity:
//
//	N            = sum(count_i)
//	mean         = sum(mean_i * count_i) / N
//	corrected SS = sum[(count_i - 1)*var_i + count_i*(mean_i - mean)^2]
//	variance     = corrected SS / (N - 1)
//
// The result reproduces, within floating-point error, the variance of the
// pooled raw data. The reduction is commutative and associative, so the
// order of the input list never changes the outcome. Returns ok=false when
// the pooled count is too small for a sample variance (N <= 1).
func Combine(summaries []ScalarGroupSummary) (ScalarGroupSummary, bool) {
	var totalN float64
	for _, s := range summaries {
		totalN += s.Count
	}
	if totalN <= 1 {
		return ScalarGroupSummary{}, false
	}

	var weightedSum float64
	for _, s := range summaries {
		weightedSum += s.Average * s.Count
	}
	globalMean := weightedSum / totalN

	var totalSS float64
	for _, s := range summaries {
		dev := s.Average - globalMean
		totalSS += (s.Count-1)*s.Variance + s.Count*dev*dev
	}

	return ScalarGroupSummary{
		Average:  globalMean,
		Count:    totalN,
		Variance: totalSS / (totalN - 1),
	}, true
}

// Merge folds another accumulator into m by element-wise addition of n, sum
// and the second-moment matrix. Both accumulators must cover the same column
// set in the same order; a shape disagreement is a structural error, never
// coerced.
func (m *MomentAccumulator) Merge(other MomentAccumulator) error {
	if m.N == 0 && m.Sum == nil {
		// First contribution initializes the shape.
		m.N = other.N
		m.Sum = append([]float64(nil), other.Sum...)
		m.SumSq = make([][]float64, len(other.SumSq))
		for i, row := range other.SumSq {
			m.SumSq[i] = append([]float64(nil), row...)
		}
		return nil
	}
	if len(other.Sum) != len(m.Sum) || len(other.SumSq) != len(m.SumSq) {
		return fmt.Errorf("%w: got %dx%d, expected %dx%d",
			core.ErrShapeMismatch, len(other.Sum), len(other.SumSq), len(m.Sum), len(m.SumSq))
	}
	for i, row := range other.SumSq {
		if len(row) != len(m.SumSq[i]) {
			return fmt.Errorf("%w: ragged second-moment row %d", core.ErrShapeMismatch, i)
		}
	}
	m.N += other.N
	for i, v := range other.Sum {
		m.Sum[i] += v
	}
	for i, row := range other.SumSq {
		for j, v := range row {
			m.SumSq[i][j] += v
		}
	}
	return nil
}

// CombineGroupMatrices pools per-station k x d group means and variances
// into global ones using the same identity as Combine, column by column.
// counts sums per-station row counts per group; every station must report
// the identical group set in identical order.
func CombineGroupMatrices(means, variances [][][]float64, counts [][]float64) ([][]float64, [][]float64, error) {
	if len(means) == 0 {
		return nil, nil, core.ErrNoUsableResults
	}
	if len(variances) != len(means) || len(counts) != len(means) {
		return nil, nil, fmt.Errorf("%w: %d mean, %d variance and %d count matrices",
			core.ErrShapeMismatch, len(means), len(variances), len(counts))
	}
	k := len(means[0])
	if k == 0 {
		return nil, nil, core.ErrNoUsableResults
	}
	d := len(means[0][0])

	for s := range means {
		if len(means[s]) != k || len(variances[s]) != k || len(counts[s]) != k {
			return nil, nil, fmt.Errorf("%w: station %d group matrix", core.ErrShapeMismatch, s)
		}
		for g := 0; g < k; g++ {
			if len(means[s][g]) != d || len(variances[s][g]) != d {
				return nil, nil, fmt.Errorf("%w: station %d group %d row", core.ErrShapeMismatch, s, g)
			}
		}
	}

	globalMeans := zeros(k, d)
	globalVars := zeros(k, d)

	for g := 0; g < k; g++ {
		for c := 0; c < d; c++ {
			cell := make([]ScalarGroupSummary, 0, len(means))
			for s := range means {
				cell = append(cell, ScalarGroupSummary{
					Average:  means[s][g][c],
					Count:    counts[s][g],
					Variance: variances[s][g][c],
				})
			}
			combined, ok := Combine(cell)
			if !ok {
				// A group with fewer than 2 pooled rows carries no
				// variance; leave zeros rather than failing the run.
				continue
			}
			globalMeans[g][c] = combined.Average
			globalVars[g][c] = combined.Variance
		}
	}
	return globalMeans, globalVars, nil
}

func zeros(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}
