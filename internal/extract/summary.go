package extract

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
)

// Summary reduces a station's table to its round-1 descriptive summary:
// count/missing/min/max/sum and local quartiles per numeric column, value
// counts per categorical column, and the number of rows complete across
// every requested column. columns defaults to all columns;
// numericColumns overrides the inferred numeric split and must be a subset
// of columns (enforced at the coordinator boundary).
func Summary(tbl *table.Table, columns, numericColumns []string) (*stats.SummaryPartial, error) {
	if tbl.IsEmpty() {
		return nil, core.ErrEmptyTable
	}
	if len(columns) == 0 {
		columns = tbl.ColumnNames()
	} else if missing := tbl.MissingColumns(columns); len(missing) > 0 {
		return nil, core.NewSchemaError(missing)
	}

	numeric := make(map[string]bool)
	if len(numericColumns) > 0 {
		if missing := tbl.MissingColumns(numericColumns); len(missing) > 0 {
			return nil, core.NewSchemaError(missing)
		}
		for _, name := range numericColumns {
			numeric[name] = true
		}
	} else {
		for _, name := range columns {
			if col, ok := tbl.Lookup(name); ok && col.Type == table.TypeNumeric {
				numeric[name] = true
			}
		}
	}

	partial := &stats.SummaryPartial{
		Numeric:            make(map[string]stats.NumericColumnSummary),
		Categorical:        make(map[string]stats.CategoricalColumnSummary),
		CountsUniqueValues: make(map[string]map[string]float64),
	}

	for _, name := range columns {
		col, ok := tbl.Lookup(name)
		if !ok {
			return nil, core.NewSchemaError([]string{name})
		}
		if numeric[name] {
			summary, err := summarizeNumeric(col)
			if err != nil {
				return nil, err
			}
			partial.Numeric[name] = summary
		} else {
			partial.Categorical[name], partial.CountsUniqueValues[name] = summarizeCategorical(col)
		}
	}

	mask, err := tbl.CompleteMask(columns)
	if err != nil {
		return nil, err
	}
	partial.NumCompleteRows = table.CountTrue(mask)

	return partial, nil
}

func summarizeNumeric(col *table.Column) (stats.NumericColumnSummary, error) {
	var values []float64
	missing := 0
	for _, v := range col.Floats {
		if math.IsNaN(v) {
			missing++
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		// All cells missing: report counts only, with empty extremes.
		return stats.NumericColumnSummary{Missing: float64(missing)}, nil
	}

	min, err := mstats.Min(values)
	if err != nil {
		return stats.NumericColumnSummary{}, err
	}
	max, err := mstats.Max(values)
	if err != nil {
		return stats.NumericColumnSummary{}, err
	}
	sum, err := mstats.Sum(values)
	if err != nil {
		return stats.NumericColumnSummary{}, err
	}
	q25, _ := mstats.Percentile(values, 25)
	q50, _ := mstats.Percentile(values, 50)
	q75, _ := mstats.Percentile(values, 75)

	return stats.NumericColumnSummary{
		Count:   float64(len(values)),
		Missing: float64(missing),
		Min:     min,
		Max:     max,
		Sum:     sum,
		Q25:     q25,
		Q50:     q50,
		Q75:     q75,
		IQR:     q75 - q25,
	}, nil
}

func summarizeCategorical(col *table.Column) (stats.CategoricalColumnSummary, map[string]float64) {
	counts := make(map[string]float64)
	missing := 0
	n := 0
	for r := 0; r < col.Len(); r++ {
		if col.IsMissing(r) {
			missing++
			continue
		}
		n++
		counts[col.LabelAt(r)]++
	}
	return stats.CategoricalColumnSummary{
		Count:   float64(n),
		Missing: float64(missing),
	}, counts
}
