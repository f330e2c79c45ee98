package extract

import (
	"math"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
)

// TTest reduces a station's table to per-column ScalarGroupSummary values.
// With a group column, summaries are produced per observed group label
// (grouped mode); without one, a single whole-table summary per column is
// produced (legacy mode, where each station acts as one group).
//
// minRecords is the minimum-disclosure threshold: tables with that many
// rows or fewer are refused outright before any statistic is computed.
func TTest(tbl *table.Table, columns []string, groupColumn string, minRecords int) (stats.GroupedTTestPartial, stats.LegacyTTestPartial, error) {
	if tbl.IsEmpty() {
		return nil, nil, core.ErrEmptyTable
	}
	if tbl.NumRows() <= minRecords {
		return nil, nil, core.NewPrivacyError(tbl.NumRows(), minRecords)
	}

	cols, err := selectFeatures(tbl, columns)
	if err != nil {
		return nil, nil, err
	}
	if bad := tbl.NonNumericColumns(cols); len(bad) > 0 {
		return nil, nil, core.NewNonNumericError(bad)
	}

	if groupColumn == "" {
		summary, err := summarizeColumns(tbl, cols, nil)
		if err != nil {
			return nil, nil, err
		}
		return nil, summary, nil
	}

	if _, ok := tbl.Lookup(groupColumn); !ok {
		return nil, nil, core.NewSchemaError([]string{groupColumn})
	}
	labels, err := tbl.GroupLabels(groupColumn)
	if err != nil {
		return nil, nil, err
	}

	grouped := make(stats.GroupedTTestPartial, len(labels))
	for _, label := range labels {
		groupMask, err := tbl.GroupMask(groupColumn, label)
		if err != nil {
			return nil, nil, err
		}
		summary, err := summarizeColumns(tbl, cols, groupMask)
		if err != nil {
			return nil, nil, err
		}
		if len(summary) > 0 {
			grouped[label] = summary
		}
	}
	return grouped, nil, nil
}

// summarizeColumns computes mean, count and sample variance per column over
// the masked rows (all rows when mask is nil), independently per column.
// Columns with fewer than two values are left out: their variance is
// undefined and they must not enter pooling.
func summarizeColumns(tbl *table.Table, cols []string, mask []bool) (map[string]stats.ScalarGroupSummary, error) {
	out := make(map[string]stats.ScalarGroupSummary, len(cols))
	for _, name := range cols {
		col, ok := tbl.Lookup(name)
		if !ok {
			return nil, core.NewSchemaError([]string{name})
		}
		var values []float64
		for r := 0; r < col.Len(); r++ {
			if mask != nil && !mask[r] {
				continue
			}
			if v := col.Floats[r]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) < 2 {
			continue
		}
		mu := mean(values)
		out[name] = stats.ScalarGroupSummary{
			Average:  mu,
			Count:    float64(len(values)),
			Variance: sampleVariance(values, mu),
		}
	}
	return out, nil
}
