// Package file loads station tables from CSV and Excel files.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"fedstats/domain/table"
	"fedstats/internal/errors"
	"fedstats/ports"
)

// DataReader reads a tabular file into a station table. The file type is
// picked from the extension: ".csv" is parsed as CSV, everything else is
// opened as an Excel workbook.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

var _ ports.TableSource = (*DataReader)(nil)

// NewDataReader creates a reader for a CSV or Excel file. sheet is the
// workbook sheet to read; empty means Sheet1.
func NewDataReader(filePath, sheet string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet}
}

// Load reads the file and builds a typed table.
func (r *DataReader) Load(ctx context.Context) (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		err = fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildTable(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.DataSourceError(fmt.Sprintf("failed to read sheet %s", r.sheet), err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataSourceError("failed to read CSV file", err)
	}
	return rows, nil
}

// BuildTable converts raw string rows (header first) into a typed table.
// A column is numeric when every non-empty cell parses as a float;
// otherwise it is categorical. Empty cells become missing values.
func BuildTable(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return table.New(nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	data := rows[1:]

	cells := make([][]string, len(headers))
	for c := range headers {
		cells[c] = make([]string, len(data))
		for r, row := range data {
			if c < len(row) {
				cells[c][r] = strings.TrimSpace(row[c])
			}
		}
	}

	columns := make([]table.Column, 0, len(headers))
	for c, name := range headers {
		if name == "" {
			name = fmt.Sprintf("column_%d", c+1)
		}
		columns = append(columns, buildColumn(name, cells[c]))
	}
	return table.New(columns)
}

func buildColumn(name string, cells []string) table.Column {
	numeric := true
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
			break
		}
	}

	if numeric {
		floats := make([]float64, len(cells))
		for i, cell := range cells {
			if cell == "" {
				floats[i] = math.NaN()
				continue
			}
			v, _ := strconv.ParseFloat(cell, 64)
			floats[i] = v
		}
		return table.Column{Name: name, Type: table.TypeNumeric, Floats: floats}
	}

	labels := make([]string, len(cells))
	copy(labels, cells)
	return table.Column{Name: name, Type: table.TypeCategorical, Labels: labels}
}
