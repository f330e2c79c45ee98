package aggregate

import (
	"math"
	"sort"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// Round1 is the state carried between the two summary rounds: the partially
// aggregated result plus the global means the round-2 request must ship to
// every station.
type Round1 struct {
	Result         *stats.SummaryResult
	NumericColumns []string
	Means          []float64
}

// Summary folds round-1 descriptive partials: additive fields (count,
// missing, sum) by addition, extremes by comparison, categorical count
// tables cell-wise with absent cells as zero, and local quantiles retained
// as per-station list entries - the global quartiles are deliberately the
// collection of per-station estimates, not a single pooled value. The
// global mean is derived once all sums are in.
func Summary(results []ports.StationResult) (*Round1, error) {
	agg := &stats.SummaryResult{
		Numeric:            make(map[string]*stats.NumericAggregate),
		Categorical:        make(map[string]stats.CategoricalColumnSummary),
		CountsUniqueValues: make(map[string]map[string]float64),
	}
	usable := 0

	for _, res := range results {
		var p stats.SummaryPartial
		if !decode(res, &p) {
			continue
		}
		usable++

		for column, numeric := range p.Numeric {
			entry, ok := agg.Numeric[column]
			if !ok {
				entry = &stats.NumericAggregate{Min: math.Inf(1), Max: math.Inf(-1)}
				agg.Numeric[column] = entry
			}
			if numeric.Count > 0 {
				entry.Min = math.Min(entry.Min, numeric.Min)
				entry.Max = math.Max(entry.Max, numeric.Max)
			}
			entry.Count += numeric.Count
			entry.Missing += numeric.Missing
			entry.Sum += numeric.Sum
			entry.Q25 = append(entry.Q25, numeric.Q25)
			entry.Q50 = append(entry.Q50, numeric.Q50)
			entry.Q75 = append(entry.Q75, numeric.Q75)
			entry.IQR = append(entry.IQR, numeric.IQR)
		}

		for column, categorical := range p.Categorical {
			entry := agg.Categorical[column]
			entry.Count += categorical.Count
			entry.Missing += categorical.Missing
			agg.Categorical[column] = entry
		}

		for column, counts := range p.CountsUniqueValues {
			cell, ok := agg.CountsUniqueValues[column]
			if !ok {
				cell = make(map[string]float64, len(counts))
				agg.CountsUniqueValues[column] = cell
			}
			for value, count := range counts {
				cell[value] += count
			}
		}

		agg.NumCompleteRowsPerNode = append(agg.NumCompleteRowsPerNode, p.NumCompleteRows)
	}

	if usable == 0 {
		return nil, core.ErrNoUsableResults
	}

	round := &Round1{Result: agg}
	for column, entry := range agg.Numeric {
		if entry.Count > 0 {
			entry.Mean = entry.Sum / entry.Count
			round.NumericColumns = append(round.NumericColumns, column)
		} else {
			// No station contributed a value; clear the infinite extremes
			// so the result stays JSON-serializable.
			entry.Min, entry.Max = 0, 0
		}
	}
	sort.Strings(round.NumericColumns)
	round.Means = make([]float64, len(round.NumericColumns))
	for i, column := range round.NumericColumns {
		round.Means[i] = agg.Numeric[column].Mean
	}
	return round, nil
}

// Finish folds the round-2 variance partials into the round-1 result: the
// per-station sums of squared deviations from the global mean add up to the
// global corrected sum of squares, and the sample standard deviation is
// sqrt(SSD_total / (count - 1)).
func Finish(round *Round1, results []ports.StationResult) error {
	ssdTotals := make(map[string]float64, len(round.NumericColumns))
	usable := 0

	for _, res := range results {
		var p stats.VariancePartial
		if !decode(res, &p) {
			continue
		}
		usable++
		for column, entry := range p {
			ssdTotals[column] += entry.SSD
		}
	}
	if usable == 0 {
		return core.ErrNoUsableResults
	}

	for _, column := range round.NumericColumns {
		entry := round.Result.Numeric[column]
		if entry.Count > 1 {
			std := math.Sqrt(ssdTotals[column] / (entry.Count - 1))
			entry.Std = &std
		}
	}
	return nil
}
