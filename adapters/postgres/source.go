// Package postgres loads station tables from a PostgreSQL database.
package postgres

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"fedstats/domain/table"
	"fedstats/internal/errors"
	"fedstats/ports"
)

// identPattern restricts table names to plain identifiers; the name is
// interpolated into the query text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableSource reads one database table into a station table.
type TableSource struct {
	db        *sqlx.DB
	tableName string
}

var _ ports.TableSource = (*TableSource)(nil)

// Connect opens a database connection and binds it to a table.
func Connect(databaseURL, tableName string) (*TableSource, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return NewTableSource(db, tableName)
}

// NewTableSource wraps an existing connection.
func NewTableSource(db *sqlx.DB, tableName string) (*TableSource, error) {
	if !identPattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}
	return &TableSource{db: db, tableName: tableName}, nil
}

// Close releases the database connection.
func (s *TableSource) Close() error { return s.db.Close() }

// Load reads every row of the bound table and infers column types from the
// driver values: numeric database types become numeric columns, everything
// else becomes categorical. NULL cells become missing values.
func (s *TableSource) Load(ctx context.Context) (*table.Table, error) {
	query := fmt.Sprintf(`SELECT * FROM %s`, s.tableName)
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query table %s", s.tableName)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read columns of %s", s.tableName)
	}

	var records [][]interface{}
	for rows.Next() {
		record, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan row of %s", s.tableName)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read table %s", s.tableName)
	}

	columns := make([]table.Column, len(names))
	for c, name := range names {
		columns[c] = buildColumn(name, c, records)
	}
	return table.New(columns)
}

func buildColumn(name string, c int, records [][]interface{}) table.Column {
	numeric := true
	for _, record := range records {
		if record[c] == nil {
			continue
		}
		if _, ok := asFloat(record[c]); !ok {
			numeric = false
			break
		}
	}

	if numeric {
		floats := make([]float64, len(records))
		for r, record := range records {
			if record[c] == nil {
				floats[r] = math.NaN()
				continue
			}
			v, _ := asFloat(record[c])
			floats[r] = v
		}
		return table.Column{Name: name, Type: table.TypeNumeric, Floats: floats}
	}

	labels := make([]string, len(records))
	for r, record := range records {
		if record[c] == nil {
			continue
		}
		labels[r] = asLabel(record[c])
	}
	return table.Column{Name: name, Type: table.TypeCategorical, Labels: labels}
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case []byte:
		// lib/pq returns NUMERIC as raw bytes
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asLabel(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
