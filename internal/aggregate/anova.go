package aggregate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// ANOVA folds per-station one-way ANOVA partials into the global F-test.
// The group set is taken from the first usable station and must match on
// every other; stations reporting errors are skipped, not zero-filled.
func ANOVA(results []ports.StationResult) (*stats.ANOVAResult, error) {
	var (
		groups    []string
		nTotal    int
		ssBetween float64
		ssWithin  float64
		allMeans  [][][]float64
		allVars   [][][]float64
		allCounts [][]float64
	)

	for _, res := range results {
		var p stats.ANOVAPartial
		if !decode(res, &p) {
			continue
		}
		if groups == nil {
			groups = p.Groups
		} else if !sameGroups(groups, p.Groups) {
			return nil, fmt.Errorf("%w: station %s reports groups %v, expected %v",
				core.ErrShapeMismatch, res.Station, p.Groups, groups)
		}
		nTotal += p.N
		ssBetween += p.SSBetween
		ssWithin += p.SSWithin
		allMeans = append(allMeans, p.Means)
		allVars = append(allVars, p.Variances)
		allCounts = append(allCounts, p.GroupCounts)
	}

	if groups == nil || nTotal == 0 {
		return nil, core.ErrNoUsableResults
	}
	k := len(groups)
	if k < 2 {
		return nil, fmt.Errorf("%w: one-way ANOVA needs at least two groups, found %d", core.ErrAggregation, k)
	}
	if nTotal <= k {
		return nil, fmt.Errorf("%w: %d pooled rows leave no within-group degrees of freedom for %d groups",
			core.ErrAggregation, nTotal, k)
	}

	groupMeans, groupVariances, err := stats.CombineGroupMatrices(allMeans, allVars, allCounts)
	if err != nil {
		return nil, err
	}

	msBetween := ssBetween / float64(k-1)
	msWithin := ssWithin / float64(nTotal-k)

	// A group with zero within-group scatter everywhere drives msWithin to
	// zero; the F statistic degenerates to +Inf with p = 0 rather than a
	// division fault.
	fStatistic := msBetween / msWithin
	var pValue float64
	switch {
	case math.IsInf(fStatistic, 1):
		pValue = 0
	case math.IsNaN(fStatistic):
		return nil, fmt.Errorf("%w: indeterminate F statistic", core.ErrZeroDenominator)
	default:
		dist := distuv.F{D1: float64(k - 1), D2: float64(nTotal - k)}
		pValue = dist.Survival(fStatistic)
	}

	return &stats.ANOVAResult{
		FStatistic:     fStatistic,
		PValue:         pValue,
		Groups:         groups,
		GroupMeans:     groupMeans,
		GroupVariances: groupVariances,
	}, nil
}

func sameGroups(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
