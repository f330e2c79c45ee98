package extract

import (
	"math"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
)

// Variance is the round-2 extractor of the descriptive summary: given the
// global means computed after round 1, it returns each column's local sum
// of squared deviations from the global mean together with the local count.
// Sample variance needs the global mean, which no station knows until the
// coordinator has folded round 1 - hence the second pass.
func Variance(tbl *table.Table, columns []string, means []float64) (stats.VariancePartial, error) {
	if tbl.IsEmpty() {
		return nil, core.ErrEmptyTable
	}
	if len(columns) != len(means) {
		return nil, core.NewUserInputError("got %d columns but %d means", len(columns), len(means))
	}
	if missing := tbl.MissingColumns(columns); len(missing) > 0 {
		return nil, core.NewSchemaError(missing)
	}
	if bad := tbl.NonNumericColumns(columns); len(bad) > 0 {
		return nil, core.NewNonNumericError(bad)
	}

	partial := make(stats.VariancePartial, len(columns))
	for i, name := range columns {
		col, _ := tbl.Lookup(name)
		entry := stats.VarianceEntry{}
		for _, v := range col.Floats {
			if math.IsNaN(v) {
				continue
			}
			dev := v - means[i]
			entry.SSD += dev * dev
			entry.Count++
		}
		partial[name] = entry
	}
	return partial, nil
}
