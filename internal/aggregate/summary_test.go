package aggregate

import (
	"math"
	"testing"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// Station alpha holds weight=[1,2,3], station beta holds weight=[4,5]. The
// two-round scheme must recover the pooled mean 3 and the pooled sample
// standard deviation sqrt(10/4).
func TestSummary_TwoRoundScenario(t *testing.T) {
	round1 := []ports.StationResult{
		wire(t, "alpha", stats.SummaryPartial{
			Numeric: map[string]stats.NumericColumnSummary{
				"weight": {Count: 3, Missing: 1, Min: 1, Max: 3, Sum: 6, Q25: 1.5, Q50: 2, Q75: 2.5, IQR: 1},
			},
			Categorical: map[string]stats.CategoricalColumnSummary{
				"site": {Count: 4, Missing: 0},
			},
			CountsUniqueValues: map[string]map[string]float64{
				"site": {"a": 3, "b": 1},
			},
			NumCompleteRows: 3,
		}),
		wire(t, "beta", stats.SummaryPartial{
			Numeric: map[string]stats.NumericColumnSummary{
				"weight": {Count: 2, Missing: 0, Min: 4, Max: 5, Sum: 9, Q25: 4.25, Q50: 4.5, Q75: 4.75, IQR: 0.5},
			},
			Categorical: map[string]stats.CategoricalColumnSummary{
				"site": {Count: 2, Missing: 0},
			},
			CountsUniqueValues: map[string]map[string]float64{
				"site": {"b": 2},
			},
			NumCompleteRows: 2,
		}),
	}

	round, err := Summary(round1)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	weight := round.Result.Numeric["weight"]
	if weight.Count != 5 || weight.Missing != 1 || weight.Sum != 15 {
		t.Errorf("count/missing/sum = %v/%v/%v, want 5/1/15", weight.Count, weight.Missing, weight.Sum)
	}
	if weight.Min != 1 || weight.Max != 5 {
		t.Errorf("min/max = %v/%v, want 1/5", weight.Min, weight.Max)
	}
	if !closeTo(weight.Mean, 3) {
		t.Errorf("mean = %v, want 3", weight.Mean)
	}
	if len(weight.Q50) != 2 || weight.Q50[0] != 2 || weight.Q50[1] != 4.5 {
		t.Errorf("medians must stay per-station entries, got %v", weight.Q50)
	}
	if len(round.NumericColumns) != 1 || round.NumericColumns[0] != "weight" {
		t.Errorf("NumericColumns = %v, want [weight]", round.NumericColumns)
	}
	if len(round.Means) != 1 || !closeTo(round.Means[0], 3) {
		t.Errorf("Means = %v, want [3]", round.Means)
	}

	site := round.Result.Categorical["site"]
	if site.Count != 6 || site.Missing != 0 {
		t.Errorf("site count/missing = %v/%v, want 6/0", site.Count, site.Missing)
	}
	counts := round.Result.CountsUniqueValues["site"]
	if counts["a"] != 3 || counts["b"] != 3 {
		t.Errorf("value counts = %v, want a:3 b:3 (absent cells as zero)", counts)
	}
	if len(round.Result.NumCompleteRowsPerNode) != 2 {
		t.Errorf("NumCompleteRowsPerNode = %v, want one entry per station", round.Result.NumCompleteRowsPerNode)
	}

	// Round 2: SSDs against the global mean 3.
	// alpha: (1-3)^2+(2-3)^2+(3-3)^2 = 5; beta: (4-3)^2+(5-3)^2 = 5.
	round2 := []ports.StationResult{
		wire(t, "alpha", stats.VariancePartial{"weight": {SSD: 5, Count: 3}}),
		wire(t, "beta", stats.VariancePartial{"weight": {SSD: 5, Count: 2}}),
	}
	if err := Finish(round, round2); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	weight = round.Result.Numeric["weight"]
	if weight.Std == nil {
		t.Fatal("Std not set after round 2")
	}
	wantStd := math.Sqrt(10.0 / 4.0)
	if !closeTo(*weight.Std, wantStd) {
		t.Errorf("std = %v, want %v (pooled sample std)", *weight.Std, wantStd)
	}
}

func TestSummary_SkipsUnusableStations(t *testing.T) {
	results := []ports.StationResult{
		errorWire("alpha", "schema error: [weight]"),
		wire(t, "beta", stats.SummaryPartial{
			Numeric: map[string]stats.NumericColumnSummary{
				"weight": {Count: 2, Min: 4, Max: 5, Sum: 9},
			},
		}),
	}
	round, err := Summary(results)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if round.Result.Numeric["weight"].Count != 2 {
		t.Errorf("count = %v, want the usable station's 2", round.Result.Numeric["weight"].Count)
	}
}

func TestSummary_NoUsableResults(t *testing.T) {
	results := []ports.StationResult{
		errorWire("alpha", "empty table"),
		{Station: core.StationID("beta")},
	}
	if _, err := Summary(results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error", err)
	}
}

func TestFinish_NoUsableResults(t *testing.T) {
	round := &Round1{
		Result: &stats.SummaryResult{
			Numeric: map[string]*stats.NumericAggregate{"weight": {Count: 5}},
		},
		NumericColumns: []string{"weight"},
		Means:          []float64{3},
	}
	results := []ports.StationResult{errorWire("alpha", "empty table")}
	if err := Finish(round, results); !core.IsAggregationError(err) {
		t.Errorf("got %v, want aggregation error", err)
	}
}

func TestSummary_AllMissingColumnKeepsEmptyExtremes(t *testing.T) {
	results := []ports.StationResult{
		wire(t, "alpha", stats.SummaryPartial{
			Numeric: map[string]stats.NumericColumnSummary{
				"ghost": {Count: 0, Missing: 4},
			},
		}),
	}
	round, err := Summary(results)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	ghost := round.Result.Numeric["ghost"]
	if ghost.Count != 0 || ghost.Missing != 4 {
		t.Errorf("count/missing = %v/%v, want 0/4", ghost.Count, ghost.Missing)
	}
	if math.IsInf(ghost.Min, 0) || math.IsInf(ghost.Max, 0) {
		t.Errorf("min/max = %v/%v, must not stay infinite", ghost.Min, ghost.Max)
	}
	// No contributing values: the column stays out of the round-2 request.
	if len(round.NumericColumns) != 0 {
		t.Errorf("NumericColumns = %v, want empty", round.NumericColumns)
	}
}
