package app

import (
	"context"
	"fmt"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/internal"
	"fedstats/internal/aggregate"
	"fedstats/internal/station"
	"fedstats/ports"
)

// AnalysisService orchestrates federated analyses: it ships partial
// requests to the stations through the task runner and folds the collected
// sufficient statistics into global results.
type AnalysisService struct {
	runner ports.TaskRunner
	log    *internal.Logger
}

// NewAnalysisService creates the orchestrator over a task runner.
func NewAnalysisService(runner ports.TaskRunner) *AnalysisService {
	return &AnalysisService{
		runner: runner,
		log:    internal.DefaultLogger,
	}
}

// SummaryRequest parameterizes a federated descriptive summary. Empty
// Columns means every column of each station's table; empty NumericColumns
// means infer numeric columns by type. Empty Stations means all stations.
type SummaryRequest struct {
	Columns        []string         `json:"columns,omitempty"`
	NumericColumns []string         `json:"numeric_columns,omitempty"`
	Stations       []core.StationID `json:"stations,omitempty"`
}

// TTestRequest parameterizes a federated two-sample t-test. A non-empty
// GroupCol selects grouped mode; otherwise each of exactly two stations
// acts as one group.
type TTestRequest struct {
	Columns  []string         `json:"columns,omitempty"`
	GroupCol string           `json:"group_col,omitempty"`
	Stations []core.StationID `json:"stations,omitempty"`
}

// ANOVARequest parameterizes a federated one-way ANOVA.
type ANOVARequest struct {
	GroupColumn string           `json:"group_column"`
	Features    []string         `json:"features,omitempty"`
	Stations    []core.StationID `json:"stations,omitempty"`
}

// PCARequest parameterizes a federated PCA. Center defaults to true.
type PCARequest struct {
	Features    []string         `json:"features,omitempty"`
	NComponents int              `json:"n_components,omitempty"`
	Center      *bool            `json:"center,omitempty"`
	Stations    []core.StationID `json:"stations,omitempty"`
}

// RunSummary executes the two-round descriptive summary: round 1 collects
// per-station summaries and derives global means, round 2 ships those means
// back so each station can report squared deviations, from which global
// standard deviations are finished.
func (s *AnalysisService) RunSummary(ctx context.Context, req SummaryRequest) (*stats.SummaryResult, error) {
	if err := validateNumericSubset(req.Columns, req.NumericColumns); err != nil {
		return nil, err
	}

	kwargs := station.SummaryKwargs{Columns: req.Columns, NumericColumns: req.NumericColumns}
	results, err := s.run(ctx, station.MethodSummary, kwargs, req.Stations)
	if err != nil {
		return nil, err
	}
	round, err := aggregate.Summary(results)
	if err != nil {
		return nil, err
	}

	if len(round.NumericColumns) > 0 {
		varianceKwargs := station.VarianceKwargs{Columns: round.NumericColumns, Means: round.Means}
		varianceResults, err := s.run(ctx, station.MethodVariance, varianceKwargs, req.Stations)
		if err != nil {
			return nil, err
		}
		if err := aggregate.Finish(round, varianceResults); err != nil {
			return nil, err
		}
	}
	return round.Result, nil
}

// RunTTest executes a federated two-sample t-test in grouped or legacy
// mode, depending on whether a group column is given.
func (s *AnalysisService) RunTTest(ctx context.Context, req TTestRequest) (*stats.TTestResult, error) {
	targets := req.Stations
	if req.GroupCol == "" {
		if len(targets) == 0 {
			targets = s.runner.Stations()
		}
		if len(targets) != 2 {
			return nil, core.NewUserInputError(
				"a t-test without a group column needs exactly 2 stations, got %d", len(targets))
		}
	}

	kwargs := station.TTestKwargs{Columns: req.Columns, GroupCol: req.GroupCol}
	results, err := s.run(ctx, station.MethodTTest, kwargs, targets)
	if err != nil {
		return nil, err
	}
	if req.GroupCol != "" {
		return aggregate.TTestGrouped(results)
	}
	return aggregate.TTestLegacy(results)
}

// RunANOVA executes a federated one-way ANOVA over the given group column.
func (s *AnalysisService) RunANOVA(ctx context.Context, req ANOVARequest) (*stats.ANOVAResult, error) {
	if req.GroupColumn == "" {
		return nil, core.NewUserInputError("anova requires a group column")
	}
	kwargs := station.ANOVAKwargs{Groups: []string{req.GroupColumn}, Features: req.Features}
	results, err := s.run(ctx, station.MethodANOVA, kwargs, req.Stations)
	if err != nil {
		return nil, err
	}
	return aggregate.ANOVA(results)
}

// RunPCA executes a federated principal component analysis.
func (s *AnalysisService) RunPCA(ctx context.Context, req PCARequest) (*stats.PCAResult, error) {
	center := true
	if req.Center != nil {
		center = *req.Center
	}
	kwargs := station.PCAKwargs{Features: req.Features}
	results, err := s.run(ctx, station.MethodPCA, kwargs, req.Stations)
	if err != nil {
		return nil, err
	}
	return aggregate.PCA(results, req.NComponents, center)
}

func (s *AnalysisService) run(ctx context.Context, method string, kwargs interface{}, targets []core.StationID) ([]ports.StationResult, error) {
	handle, err := s.runner.Submit(ctx, method, kwargs, targets)
	if err != nil {
		return nil, fmt.Errorf("dispatching %s: %w", method, err)
	}
	n := len(targets)
	if n == 0 {
		n = len(s.runner.Stations())
	}
	s.log.Info("dispatched %s to %d station(s), task %s", method, n, handle.ID)
	results, err := s.runner.AwaitResults(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("collecting %s results: %w", method, err)
	}
	return results, nil
}

// validateNumericSubset rejects numeric column selections that fall outside
// the requested column set. Checked at the coordinator boundary so every
// station would fail identically anyway.
func validateNumericSubset(columns, numericColumns []string) error {
	if len(columns) == 0 || len(numericColumns) == 0 {
		return nil
	}
	requested := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		requested[c] = struct{}{}
	}
	for _, n := range numericColumns {
		if _, ok := requested[n]; !ok {
			return core.NewUserInputError("numeric column %q is not in the requested columns", n)
		}
	}
	return nil
}
