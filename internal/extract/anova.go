package extract

import (
	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
)

// ANOVA reduces a station's table to the one-way ANOVA sufficient
// statistic: per-group column means and sample variances plus the local
// between- and within-group sums of squares, all computed over rows that
// are complete in the selected feature columns.
func ANOVA(tbl *table.Table, groupColumn string, features []string) (*stats.ANOVAPartial, error) {
	cols, err := selectFeatures(tbl, features)
	if err != nil {
		return nil, err
	}
	if _, ok := tbl.Lookup(groupColumn); !ok {
		return nil, core.NewSchemaError([]string{groupColumn})
	}
	if bad := tbl.NonNumericColumns(cols); len(bad) > 0 {
		return nil, core.NewNonNumericError(bad)
	}

	mask, n, err := completeRows(tbl, cols)
	if err != nil {
		return nil, err
	}

	labels, err := tbl.GroupLabels(groupColumn)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, core.ErrNoUsableRows
	}

	// Local grand mean per column, over all usable rows.
	grandMean := make([]float64, len(cols))
	for c, name := range cols {
		values, err := tbl.MaskedFloats(name, mask)
		if err != nil {
			return nil, err
		}
		grandMean[c] = mean(values)
	}

	partial := &stats.ANOVAPartial{
		N:           n,
		Groups:      labels,
		GroupCounts: make([]float64, len(labels)),
		Means:       make([][]float64, len(labels)),
		Variances:   make([][]float64, len(labels)),
	}

	for g, label := range labels {
		groupMask, err := tbl.GroupMask(groupColumn, label)
		if err != nil {
			return nil, err
		}
		rows := table.And(mask, groupMask)
		nGroup := table.CountTrue(rows)
		partial.GroupCounts[g] = float64(nGroup)
		partial.Means[g] = make([]float64, len(cols))
		partial.Variances[g] = make([]float64, len(cols))

		for c, name := range cols {
			values, err := tbl.MaskedFloats(name, rows)
			if err != nil {
				return nil, err
			}
			mu := mean(values)
			partial.Means[g][c] = mu
			partial.Variances[g][c] = sampleVariance(values, mu)

			dev := mu - grandMean[c]
			partial.SSBetween += float64(nGroup) * dev * dev
			for _, v := range values {
				d := v - mu
				partial.SSWithin += d * d
			}
		}
	}

	return partial, nil
}
