package aggregate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/ports"
)

// TTestGrouped aggregates grouped t-test partials: it unions the group
// labels across all stations, requires exactly two labels globally, pools
// each (label, column) cell with the parallel-variance identity and runs a
// pooled-variance two-sample t-test per column. Columns that cannot be
// resolved are recorded with a skip reason instead of disappearing.
func TTestGrouped(results []ports.StationResult) (*stats.TTestResult, error) {
	var partials []stats.GroupedTTestPartial
	for _, res := range results {
		var p stats.GroupedTTestPartial
		if decode(res, &p) {
			partials = append(partials, p)
		}
	}
	if len(partials) == 0 {
		return nil, core.ErrNoUsableResults
	}

	labelSet := make(map[string]struct{})
	for _, p := range partials {
		for label := range p {
			labelSet[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	if len(labels) != 2 {
		return nil, fmt.Errorf("%w globally, found %v", core.ErrGroupCount, labels)
	}
	groupA, groupB := labels[0], labels[1]

	columnSet := make(map[string]struct{})
	for _, p := range partials {
		for _, byColumn := range p {
			for column := range byColumn {
				columnSet[column] = struct{}{}
			}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	result := &stats.TTestResult{
		Columns: make(map[string]stats.TTestColumnResult),
		GroupA:  groupA,
		GroupB:  groupB,
	}

	for _, column := range columns {
		var cellA, cellB []stats.ScalarGroupSummary
		for _, p := range partials {
			if s, ok := p[groupA][column]; ok {
				cellA = append(cellA, s)
			}
			if s, ok := p[groupB][column]; ok {
				cellB = append(cellB, s)
			}
		}
		testColumn(result, column, cellA, cellB)
	}

	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("%w: no column could be resolved", core.ErrAggregation)
	}
	return result, nil
}

// TTestLegacy aggregates whole-table t-test partials from exactly two
// stations, treating each station's data as one group.
func TTestLegacy(results []ports.StationResult) (*stats.TTestResult, error) {
	if len(results) != 2 {
		return nil, core.NewUserInputError("legacy t-test requires exactly two stations, got %d", len(results))
	}
	var a, b stats.LegacyTTestPartial
	if !decode(results[0], &a) || !decode(results[1], &b) {
		return nil, core.ErrNoUsableResults
	}

	columnSet := make(map[string]struct{})
	for column := range a {
		columnSet[column] = struct{}{}
	}
	for column := range b {
		columnSet[column] = struct{}{}
	}
	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	result := &stats.TTestResult{
		Columns: make(map[string]stats.TTestColumnResult),
		GroupA:  results[0].Station.String(),
		GroupB:  results[1].Station.String(),
	}
	for _, column := range columns {
		var cellA, cellB []stats.ScalarGroupSummary
		if s, ok := a[column]; ok {
			cellA = append(cellA, s)
		}
		if s, ok := b[column]; ok {
			cellB = append(cellB, s)
		}
		testColumn(result, column, cellA, cellB)
	}

	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("%w: no column could be resolved", core.ErrAggregation)
	}
	return result, nil
}

// testColumn pools both groups' cells for one column and appends either a
// test result or a skip record.
func testColumn(result *stats.TTestResult, column string, cellA, cellB []stats.ScalarGroupSummary) {
	if len(cellA) == 0 || len(cellB) == 0 {
		result.Skipped = append(result.Skipped, stats.ColumnSkip{Column: column, Reason: stats.SkipOneGroupOnly})
		return
	}
	combinedA, okA := stats.Combine(cellA)
	combinedB, okB := stats.Combine(cellB)
	if !okA || !okB {
		result.Skipped = append(result.Skipped, stats.ColumnSkip{Column: column, Reason: stats.SkipInsufficientRecords})
		return
	}
	test, reason := pooledTTest(combinedA, combinedB)
	if reason != "" {
		result.Skipped = append(result.Skipped, stats.ColumnSkip{Column: column, Reason: reason})
		return
	}
	result.Columns[column] = test
}

// pooledTTest runs the equal-variance two-sample t-test on two combined
// group summaries. The empty skip reason marks success.
func pooledTTest(a, b stats.ScalarGroupSummary) (stats.TTestColumnResult, stats.SkipReason) {
	if a.Count < 2 || b.Count < 2 {
		return stats.TTestColumnResult{}, stats.SkipInsufficientRecords
	}
	pooledVar := ((a.Count-1)*a.Variance + (b.Count-1)*b.Variance) / (a.Count + b.Count - 2)
	denom := math.Sqrt(pooledVar/a.Count + pooledVar/b.Count)
	if denom == 0 {
		return stats.TTestColumnResult{}, stats.SkipZeroPooledVariance
	}
	tScore := (a.Average - b.Average) / denom
	dof := a.Count + b.Count - 2

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	pValue := 2 * (1 - dist.CDF(math.Abs(tScore)))

	return stats.TTestColumnResult{TScore: tScore, PValue: pValue}, ""
}
