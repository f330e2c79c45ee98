package aggregate

import (
	"math"
	"testing"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// Station 1 holds A=[1,2,3], B=[4,6]; station 2 holds A=[2,4], B=[5,7,9].
func anovaScenario(t *testing.T) []ports.StationResult {
	t.Helper()
	return []ports.StationResult{
		wire(t, "alpha", stats.ANOVAPartial{
			N:           5,
			Groups:      []string{"A", "B"},
			GroupCounts: []float64{3, 2},
			Means:       [][]float64{{2}, {5}},
			Variances:   [][]float64{{1}, {2}},
			SSBetween:   10.8,
			SSWithin:    4,
		}),
		wire(t, "beta", stats.ANOVAPartial{
			N:           5,
			Groups:      []string{"A", "B"},
			GroupCounts: []float64{2, 3},
			Means:       [][]float64{{3}, {7}},
			Variances:   [][]float64{{2}, {4}},
			SSBetween:   19.2,
			SSWithin:    10,
		}),
	}
}

func TestANOVA_TwoStations(t *testing.T) {
	result, err := ANOVA(anovaScenario(t))
	if err != nil {
		t.Fatalf("ANOVA failed: %v", err)
	}

	// N=10, k=2: F = (30/1) / (14/8).
	wantF := 30.0 / (14.0 / 8.0)
	if !closeTo(result.FStatistic, wantF) {
		t.Errorf("F = %v, want %v", result.FStatistic, wantF)
	}
	if result.PValue <= 0 || result.PValue >= 1 {
		t.Errorf("p = %v, want a value in (0,1)", result.PValue)
	}

	// Pooled group A raw [1,2,3,2,4]: mean 2.4, var 1.3.
	if !closeTo(result.GroupMeans[0][0], 2.4) || !closeTo(result.GroupVariances[0][0], 1.3) {
		t.Errorf("group A = mean %v var %v, want 2.4 / 1.3",
			result.GroupMeans[0][0], result.GroupVariances[0][0])
	}
	// Pooled group B raw [4,6,5,7,9]: mean 6.2, var 3.7.
	if !closeTo(result.GroupMeans[1][0], 6.2) || !closeTo(result.GroupVariances[1][0], 3.7) {
		t.Errorf("group B = mean %v var %v, want 6.2 / 3.7",
			result.GroupMeans[1][0], result.GroupVariances[1][0])
	}
}

func TestANOVA_OrderIndependence(t *testing.T) {
	results := anovaScenario(t)
	reversed := []ports.StationResult{results[1], results[0]}

	a, err := ANOVA(results)
	if err != nil {
		t.Fatalf("ANOVA failed: %v", err)
	}
	b, err := ANOVA(reversed)
	if err != nil {
		t.Fatalf("ANOVA (reversed) failed: %v", err)
	}
	if a.FStatistic != b.FStatistic || a.PValue != b.PValue {
		t.Errorf("order changed the result: F %v/%v, p %v/%v",
			a.FStatistic, b.FStatistic, a.PValue, b.PValue)
	}
}

// Every station reports zero within-group scatter: msWithin collapses to
// zero and F degenerates to +Inf with p = 0, without a division fault.
func TestANOVA_ZeroVarianceGroups(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.ANOVAPartial{
			N:           4,
			Groups:      []string{"A", "B"},
			GroupCounts: []float64{2, 2},
			Means:       [][]float64{{1}, {5}},
			Variances:   [][]float64{{0}, {0}},
			SSBetween:   16,
			SSWithin:    0,
		}),
		wire(t, "beta", stats.ANOVAPartial{
			N:           4,
			Groups:      []string{"A", "B"},
			GroupCounts: []float64{2, 2},
			Means:       [][]float64{{1}, {5}},
			Variances:   [][]float64{{0}, {0}},
			SSBetween:   16,
			SSWithin:    0,
		}),
	}

	result, err := ANOVA(results)
	if err != nil {
		t.Fatalf("ANOVA failed: %v", err)
	}
	if !math.IsInf(result.FStatistic, 1) {
		t.Errorf("F = %v, want +Inf", result.FStatistic)
	}
	if result.PValue != 0 {
		t.Errorf("p = %v, want 0", result.PValue)
	}
}

func TestANOVA_GroupMismatchFails(t *testing.T) {
	results := anovaScenario(t)
	results[1] = wire(t, "beta", stats.ANOVAPartial{
		N:           3,
		Groups:      []string{"A", "C"},
		GroupCounts: []float64{2, 1},
		Means:       [][]float64{{3}, {7}},
		Variances:   [][]float64{{2}, {0}},
	})
	if _, err := ANOVA(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error on group mismatch", err)
	}
}

func TestANOVA_OneGroupFails(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.ANOVAPartial{
			N:           3,
			Groups:      []string{"A"},
			GroupCounts: []float64{3},
			Means:       [][]float64{{2}},
			Variances:   [][]float64{{1}},
		}),
	}
	if _, err := ANOVA(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want explicit failure with one group", err)
	}
}

func TestANOVA_MissingGroupCountsFails(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.ANOVAPartial{
			N:         5,
			Groups:    []string{"A", "B"},
			Means:     [][]float64{{2}, {5}},
			Variances: [][]float64{{1}, {2}},
			SSBetween: 10.8,
			SSWithin:  4,
		}),
	}
	if _, err := ANOVA(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error when group counts are absent", err)
	}
}

func TestANOVA_RaggedVariancesFails(t *testing.T) {
	results := anovaScenario(t)
	results[1] = wire(t, "beta", stats.ANOVAPartial{
		N:           5,
		Groups:      []string{"A", "B"},
		GroupCounts: []float64{2, 3},
		Means:       [][]float64{{3}, {7}},
		Variances:   [][]float64{{2, 8}, {4}},
		SSBetween:   19.2,
		SSWithin:    10,
	})
	if _, err := ANOVA(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error on a ragged variance matrix", err)
	}
}

func TestANOVA_NoUsableResults(t *testing.T) {
	results := []ports.StationResult{
		errorWire("alpha", "schema error: [dose]"),
		{Station: core.StationID("beta")},
	}
	if _, err := ANOVA(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error", err)
	}
}

func TestANOVA_SkipsErroredStation(t *testing.T) {
	results := anovaScenario(t)
	results = append(results, errorWire("gamma", "data error: no usable rows"))

	result, err := ANOVA(results)
	if err != nil {
		t.Fatalf("ANOVA failed: %v", err)
	}
	wantF := 30.0 / (14.0 / 8.0)
	if !closeTo(result.FStatistic, wantF) {
		t.Errorf("errored station must be skipped, not zero-filled: F = %v, want %v",
			result.FStatistic, wantF)
	}
}
