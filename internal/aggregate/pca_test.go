package aggregate

import (
	"math"
	"testing"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// Two stations, three rows each, two uncorrelated columns of equal
// variance. One requested component must explain half the variance.
func TestPCA_UncorrelatedColumnsScenario(t *testing.T) {
	results := []ports.StationResult{
		// rows (1,1), (1,-1), (0,0)
		wire(t, "alpha", stats.PCAPartial{
			N:       3,
			Columns: []string{"x", "y"},
			Sum:     []float64{2, 0},
			SumSq:   [][]float64{{2, 0}, {0, 2}},
		}),
		// rows (-1,1), (-1,-1), (0,0)
		wire(t, "beta", stats.PCAPartial{
			N:       3,
			Columns: []string{"x", "y"},
			Sum:     []float64{-2, 0},
			SumSq:   [][]float64{{2, 0}, {0, 2}},
		}),
	}

	result, err := PCA(results, 1, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	if result.NTotal != 6 {
		t.Errorf("NTotal = %d, want 6", result.NTotal)
	}
	if len(result.ExplainedVarianceRatio) != 1 {
		t.Fatalf("expected 1 component, got %d", len(result.ExplainedVarianceRatio))
	}
	ratio := result.ExplainedVarianceRatio[0]
	if math.IsNaN(ratio) {
		t.Fatal("ratio is NaN")
	}
	if !closeTo(ratio, 0.5) {
		t.Errorf("explained variance ratio = %v, want 0.5", ratio)
	}
	if !closeTo(result.ExplainedVariance[0], 0.8) {
		t.Errorf("explained variance = %v, want 0.8", result.ExplainedVariance[0])
	}
}

// Pooled rows (1,2), (3,4), (5,6) have the rank-one covariance
// [[4,4],[4,4]]: eigenvalues 8 and 0, first direction (1,1)/sqrt(2).
func TestPCA_MatchesPooledEigendecomposition(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.PCAPartial{
			N:       2,
			Columns: []string{"x", "y"},
			Sum:     []float64{4, 6},
			SumSq:   [][]float64{{10, 14}, {14, 20}},
		}),
		wire(t, "beta", stats.PCAPartial{
			N:       1,
			Columns: []string{"x", "y"},
			Sum:     []float64{5, 6},
			SumSq:   [][]float64{{25, 30}, {30, 36}},
		}),
	}

	result, err := PCA(results, 0, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}

	if !closeTo(result.Mean[0], 3) || !closeTo(result.Mean[1], 4) {
		t.Errorf("mean = %v, want [3 4]", result.Mean)
	}
	wantCov := [][]float64{{4, 4}, {4, 4}}
	for i := range wantCov {
		for j := range wantCov[i] {
			if !closeTo(result.Covariance[i][j], wantCov[i][j]) {
				t.Errorf("covariance[%d][%d] = %v, want %v", i, j, result.Covariance[i][j], wantCov[i][j])
			}
		}
	}

	if !closeTo(result.ExplainedVariance[0], 8) {
		t.Errorf("first eigenvalue = %v, want 8", result.ExplainedVariance[0])
	}
	if !closeTo(result.ExplainedVariance[1], 0) {
		t.Errorf("second eigenvalue = %v, want 0", result.ExplainedVariance[1])
	}
	if !closeTo(result.ExplainedVarianceRatio[0], 1) {
		t.Errorf("first ratio = %v, want 1", result.ExplainedVarianceRatio[0])
	}

	// First principal direction is (1,1)/sqrt(2) up to sign.
	invRoot2 := 1 / math.Sqrt(2)
	if !closeTo(math.Abs(result.Components[0][0]), invRoot2) ||
		!closeTo(math.Abs(result.Components[1][0]), invRoot2) {
		t.Errorf("first component = [%v %v], want +-%v each",
			result.Components[0][0], result.Components[1][0], invRoot2)
	}
	if !closeTo(result.Components[0][0], result.Components[1][0]) {
		t.Errorf("first component entries should share a sign: %v vs %v",
			result.Components[0][0], result.Components[1][0])
	}
}

func TestPCA_OrderIndependence(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.PCAPartial{
			N: 2, Columns: []string{"x", "y"},
			Sum: []float64{4, 6}, SumSq: [][]float64{{10, 14}, {14, 20}},
		}),
		wire(t, "beta", stats.PCAPartial{
			N: 1, Columns: []string{"x", "y"},
			Sum: []float64{5, 6}, SumSq: [][]float64{{25, 30}, {30, 36}},
		}),
	}
	reversed := []ports.StationResult{results[1], results[0]}

	a, err := PCA(results, 0, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	b, err := PCA(reversed, 0, true)
	if err != nil {
		t.Fatalf("PCA (reversed) failed: %v", err)
	}
	for i := range a.ExplainedVariance {
		if !closeTo(a.ExplainedVariance[i], b.ExplainedVariance[i]) {
			t.Errorf("eigenvalue %d changed with order: %v vs %v",
				i, a.ExplainedVariance[i], b.ExplainedVariance[i])
		}
	}
}

func TestPCA_ColumnMismatchFails(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.PCAPartial{
			N: 2, Columns: []string{"x", "y"},
			Sum: []float64{1, 2}, SumSq: [][]float64{{1, 0}, {0, 1}},
		}),
		wire(t, "beta", stats.PCAPartial{
			N: 2, Columns: []string{"y", "x"},
			Sum: []float64{1, 2}, SumSq: [][]float64{{1, 0}, {0, 1}},
		}),
	}
	if _, err := PCA(results, 0, true); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error on column mismatch", err)
	}
}

func TestPCA_SingleColumnDegenerates(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.PCAPartial{
			N: 3, Columns: []string{"x"},
			Sum: []float64{6}, SumSq: [][]float64{{14}},
		}),
	}
	result, err := PCA(results, 1, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	if result.Covariance[0][0] != 0 {
		t.Errorf("single-column covariance = %v, want [[0]]", result.Covariance)
	}
	if result.ExplainedVarianceRatio[0] != 0 {
		t.Errorf("zero total variance must give zero ratio, got %v", result.ExplainedVarianceRatio[0])
	}
}

func TestPCA_ComponentCountClamped(t *testing.T) {
	partial := stats.PCAPartial{
		N: 3, Columns: []string{"x", "y"},
		Sum: []float64{0, 0}, SumSq: [][]float64{{2, 0}, {0, 2}},
	}

	result, err := PCA([]ports.StationResult{wire(t, "alpha", partial)}, 99, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	if len(result.ExplainedVariance) != 2 {
		t.Errorf("oversized component request: got %d components, want 2", len(result.ExplainedVariance))
	}

	result, err = PCA([]ports.StationResult{wire(t, "alpha", partial)}, -1, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	if len(result.ExplainedVariance) != 1 {
		t.Errorf("negative component request clamps to one: got %d, want 1", len(result.ExplainedVariance))
	}
}

func TestPCA_EmptyColumnSetUnusable(t *testing.T) {
	empty := wire(t, "alpha", stats.PCAPartial{
		N: 1, Columns: []string{}, Sum: []float64{}, SumSq: [][]float64{},
	})

	if _, err := PCA([]ports.StationResult{empty}, 1, true); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error for an empty column set", err)
	}

	good := wire(t, "beta", stats.PCAPartial{
		N: 3, Columns: []string{"x", "y"},
		Sum: []float64{0, 0}, SumSq: [][]float64{{2, 0}, {0, 2}},
	})
	result, err := PCA([]ports.StationResult{empty, good}, 1, true)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	if result.NTotal != 3 {
		t.Errorf("NTotal = %d, want 3 with the empty station skipped", result.NTotal)
	}
}

func TestPCA_NoUsableResults(t *testing.T) {
	results := []ports.StationResult{errorWire("alpha", "empty table")}
	if _, err := PCA(results, 1, true); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error", err)
	}
}
