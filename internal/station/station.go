// Package station hosts the extraction side of a federation round: it
// receives a method name with keyword arguments, runs the matching local
// statistic extractor over the station's table, and answers with a wire
// payload. Failures never escape this boundary - they are returned as
// tagged error payloads so the coordinator's skip policy can weigh them.
package station

import (
	"context"
	"encoding/json"
	"fmt"

	"fedstats/domain/core"
	"fedstats/internal"
	"fedstats/internal/extract"
	"fedstats/ports"
)

// Method names of the partial computations a station understands.
const (
	MethodSummary  = "summary_per_data_station"
	MethodVariance = "variance_per_data_station"
	MethodANOVA    = "anova_partial"
	MethodPCA      = "pca_partial"
	MethodTTest    = "t_test_partial"
)

// SummaryKwargs parameterizes the round-1 descriptive summary.
type SummaryKwargs struct {
	Columns        []string `json:"columns,omitempty"`
	NumericColumns []string `json:"numeric_columns,omitempty"`
}

// VarianceKwargs parameterizes the round-2 variance pass; Means carries the
// global means computed by the coordinator after round 1.
type VarianceKwargs struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
}

// ANOVAKwargs parameterizes the ANOVA partial. The first group column
// defines the grouping.
type ANOVAKwargs struct {
	Groups   []string `json:"groups"`
	Features []string `json:"features,omitempty"`
}

// PCAKwargs parameterizes the PCA partial.
type PCAKwargs struct {
	Features []string `json:"features,omitempty"`
}

// TTestKwargs parameterizes the t-test partial.
type TTestKwargs struct {
	Columns  []string `json:"columns,omitempty"`
	GroupCol string   `json:"group_col,omitempty"`
}

// Station binds a table source to the extractor dispatch.
type Station struct {
	id         core.StationID
	source     ports.TableSource
	minRecords int
	log        *internal.Logger
}

// New creates a station over a table source. minRecords is the t-test
// minimum-disclosure threshold.
func New(id core.StationID, source ports.TableSource, minRecords int) *Station {
	return &Station{
		id:         id,
		source:     source,
		minRecords: minRecords,
		log:        internal.DefaultLogger,
	}
}

// ID returns the station identifier.
func (s *Station) ID() core.StationID { return s.id }

// Handle executes one partial computation and always returns a wire
// payload: the sufficient statistic on success, {"error": ...} on failure.
func (s *Station) Handle(ctx context.Context, method string, kwargs json.RawMessage) json.RawMessage {
	payload, err := s.dispatch(ctx, method, kwargs)
	if err != nil {
		// Refusals within the station's own failure domain are normal
		// round outcomes; anything else deserves a warning.
		if core.IsStationError(err) {
			s.log.Info("station %s: %s declined: %v", s.id, method, err)
		} else {
			s.log.Warn("station %s: %s failed: %v", s.id, method, err)
		}
		return errorWire(err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorWire(fmt.Errorf("encoding %s result: %w", method, err))
	}
	return raw
}

func (s *Station) dispatch(ctx context.Context, method string, kwargs json.RawMessage) (interface{}, error) {
	tbl, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading station table: %w", err)
	}

	switch method {
	case MethodSummary:
		var kw SummaryKwargs
		if err := unmarshalKwargs(kwargs, &kw); err != nil {
			return nil, err
		}
		return extract.Summary(tbl, kw.Columns, kw.NumericColumns)

	case MethodVariance:
		var kw VarianceKwargs
		if err := unmarshalKwargs(kwargs, &kw); err != nil {
			return nil, err
		}
		return extract.Variance(tbl, kw.Columns, kw.Means)

	case MethodANOVA:
		var kw ANOVAKwargs
		if err := unmarshalKwargs(kwargs, &kw); err != nil {
			return nil, err
		}
		if len(kw.Groups) == 0 {
			return nil, core.NewUserInputError("anova requires a group column")
		}
		return extract.ANOVA(tbl, kw.Groups[0], kw.Features)

	case MethodPCA:
		var kw PCAKwargs
		if err := unmarshalKwargs(kwargs, &kw); err != nil {
			return nil, err
		}
		return extract.PCA(tbl, kw.Features)

	case MethodTTest:
		var kw TTestKwargs
		if err := unmarshalKwargs(kwargs, &kw); err != nil {
			return nil, err
		}
		grouped, legacy, err := extract.TTest(tbl, kw.Columns, kw.GroupCol, s.minRecords)
		if err != nil {
			return nil, err
		}
		if kw.GroupCol != "" {
			return grouped, nil
		}
		return legacy, nil

	default:
		return nil, core.NewUserInputError("unknown method %q", method)
	}
}

func unmarshalKwargs(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return core.NewUserInputError("malformed kwargs: %v", err)
	}
	return nil
}

func errorWire(err error) json.RawMessage {
	raw, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"error":"internal error"}`)
	}
	return raw
}
