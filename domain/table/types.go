package table

import (
	"fmt"
	"math"
	"sort"

	"fedstats/domain/core"
)

// ColumnType classifies a column for analysis purposes
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
)

// Column holds one column of a station's local table. Numeric columns store
// values in Floats with NaN marking a missing cell; categorical columns store
// values in Labels with "" marking a missing cell. Both slices, when present,
// have length equal to the table's row count.
type Column struct {
	Name   string
	Type   ColumnType
	Floats []float64
	Labels []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Type == TypeNumeric {
		return len(c.Floats)
	}
	return len(c.Labels)
}

// IsMissing reports whether the cell at row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Type == TypeNumeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Labels[i] == ""
}

// Table is a station-local, column-ordered tabular dataset. It is a value
// object: construct it once from a data source, then read it.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a table from columns and validates that all columns agree on
// row count.
func New(columns []Column) (*Table, error) {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		t.index[col.Name] = i
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool { return t == nil || t.rows == 0 || len(t.columns) == 0 }

// ColumnNames returns all column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the named column.
func (t *Table) Lookup(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.columns[i], true
}

// NumericColumns returns the names of all numeric columns in table order.
// This is the default feature selection when the caller names no columns.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.Type == TypeNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumns returns the names of all categorical columns in table order.
func (t *Table) CategoricalColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.Type == TypeCategorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// MissingColumns returns the subset of requested names absent from the schema.
func (t *Table) MissingColumns(requested []string) []string {
	var missing []string
	for _, name := range requested {
		if _, ok := t.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// NonNumericColumns returns the subset of requested names that exist but are
// not numeric.
func (t *Table) NonNumericColumns(requested []string) []string {
	var bad []string
	for _, name := range requested {
		if col, ok := t.Lookup(name); ok && col.Type != TypeNumeric {
			bad = append(bad, name)
		}
	}
	return bad
}

// CompleteMask returns, for each row, whether every named column holds a
// value in that row. Extractors use the mask to drop rows with any missing
// value in the selected columns.
func (t *Table) CompleteMask(names []string) ([]bool, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		col, ok := t.Lookup(name)
		if !ok {
			return nil, core.NewSchemaError([]string{name})
		}
		cols[i] = col
	}
	mask := make([]bool, t.rows)
	for r := 0; r < t.rows; r++ {
		mask[r] = true
		for _, col := range cols {
			if col.IsMissing(r) {
				mask[r] = false
				break
			}
		}
	}
	return mask, nil
}

// CountTrue returns the number of set entries in a row mask.
func CountTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

// GroupLabels returns the distinct non-missing labels of a grouping column,
// sorted for deterministic downstream ordering. Numeric grouping columns are
// formatted to their shortest decimal representation.
func (t *Table) GroupLabels(name string) ([]string, error) {
	col, ok := t.Lookup(name)
	if !ok {
		return nil, core.NewSchemaError([]string{name})
	}
	seen := make(map[string]struct{})
	var labels []string
	for r := 0; r < t.rows; r++ {
		if col.IsMissing(r) {
			continue
		}
		label := col.LabelAt(r)
		if _, dup := seen[label]; !dup {
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// LabelAt formats the cell at row i as a group label.
func (c *Column) LabelAt(i int) string {
	if c.Type == TypeCategorical {
		return c.Labels[i]
	}
	return fmt.Sprintf("%g", c.Floats[i])
}

// GroupMask returns the row mask selecting rows whose grouping column equals
// the given label.
func (t *Table) GroupMask(name, label string) ([]bool, error) {
	col, ok := t.Lookup(name)
	if !ok {
		return nil, core.NewSchemaError([]string{name})
	}
	mask := make([]bool, t.rows)
	for r := 0; r < t.rows; r++ {
		if col.IsMissing(r) {
			continue
		}
		mask[r] = col.LabelAt(r) == label
	}
	return mask, nil
}

// And intersects two row masks of equal length.
func And(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] && b[i]
	}
	return out
}

// MaskedFloats returns the values of a numeric column at the set rows of the
// mask, in row order.
func (t *Table) MaskedFloats(name string, mask []bool) ([]float64, error) {
	col, ok := t.Lookup(name)
	if !ok {
		return nil, core.NewSchemaError([]string{name})
	}
	if col.Type != TypeNumeric {
		return nil, core.NewNonNumericError([]string{name})
	}
	out := make([]float64, 0, len(mask))
	for r, keep := range mask {
		if keep {
			out = append(out, col.Floats[r])
		}
	}
	return out, nil
}
