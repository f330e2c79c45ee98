package ports

import (
	"context"

	"fedstats/domain/table"
)

// TableSource loads a station's local table from wherever it lives (CSV or
// Excel file, Postgres table). Loading happens once per extraction request;
// raw rows never travel further than the extractor that reads them.
type TableSource interface {
	Load(ctx context.Context) (*table.Table, error)
}
