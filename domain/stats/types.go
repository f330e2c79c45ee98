package stats

import (
	"encoding/json"
	"math"
)

// ============================================================================
// SUFFICIENT STATISTICS (wire contract between station and coordinator)
// ============================================================================
//
// Every type here is a plain, JSON-serializable value object. A station
// builds one per extraction request, the coordinator folds the collected
// list into a global statistic, and the object is discarded once the
// finishing computation has run. Nothing is mutated after construction
// except through the explicit combination operations in combine.go.

// ScalarGroupSummary is the single-column sufficient statistic used by the
// two-sample t-test: mean, unbiased sample variance and count for one group
// at one station.
//
// INVARIANTS:
// - Variance >= 0
// - undefined when Count < 2; producers must not emit such a summary
type ScalarGroupSummary struct {
	Average  float64 `json:"average"`
	Count    float64 `json:"count"`
	Variance float64 `json:"variance"`
}

// MomentAccumulator is the linear sufficient statistic behind PCA: row
// count, column-wise sums and the uncentered second-moment matrix X'X.
// Two accumulators over disjoint row sets combine by element-wise addition
// with no information loss.
type MomentAccumulator struct {
	N     int         `json:"n"`
	Sum   []float64   `json:"sum"`
	SumSq [][]float64 `json:"sum_sq"`
}

// ============================================================================
// PER-ANALYSIS PARTIAL PAYLOADS
// ============================================================================

// ANOVAPartial is one station's contribution to a federated one-way ANOVA.
// Means and Variances are k x d (group by column). SSBetween and SSWithin
// are scalar sums across all requested columns.
type ANOVAPartial struct {
	N           int         `json:"n"`
	Groups      []string    `json:"groups"`
	GroupCounts []float64   `json:"group_counts"`
	Means       [][]float64 `json:"means"`
	Variances   [][]float64 `json:"variances"`
	SSBetween   float64     `json:"ss_between"`
	SSWithin    float64     `json:"ss_within"`
}

// PCAPartial is one station's contribution to a federated PCA: only the
// linear sufficient statistics leave the station, never a covariance or
// mean.
type PCAPartial struct {
	N       int         `json:"n"`
	Columns []string    `json:"columns"`
	Sum     []float64   `json:"sum"`
	SumSq   [][]float64 `json:"sum_sq"`
}

// Moments converts the partial into its accumulator form.
func (p *PCAPartial) Moments() MomentAccumulator {
	return MomentAccumulator{N: p.N, Sum: p.Sum, SumSq: p.SumSq}
}

// GroupedTTestPartial maps group label -> column -> summary.
type GroupedTTestPartial map[string]map[string]ScalarGroupSummary

// LegacyTTestPartial maps column -> whole-table summary; used when no group
// column is given and each of exactly two stations acts as one group.
type LegacyTTestPartial map[string]ScalarGroupSummary

// NumericColumnSummary is the round-1 descriptive statistic for one numeric
// column at one station. Quantile fields hold single-station order
// statistics; the coordinator keeps them as per-station list entries rather
// than merging them (a disclosed approximation).
type NumericColumnSummary struct {
	Count   float64 `json:"count"`
	Missing float64 `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
	Q25     float64 `json:"25%"`
	Q50     float64 `json:"50%"`
	Q75     float64 `json:"75%"`
	IQR     float64 `json:"IQR"`
}

// CategoricalColumnSummary is the round-1 descriptive statistic for one
// categorical column at one station.
type CategoricalColumnSummary struct {
	Count   float64 `json:"count"`
	Missing float64 `json:"missing"`
}

// SummaryPartial is one station's round-1 descriptive summary.
type SummaryPartial struct {
	Numeric            map[string]NumericColumnSummary     `json:"numeric"`
	Categorical        map[string]CategoricalColumnSummary `json:"categorical"`
	CountsUniqueValues map[string]map[string]float64       `json:"counts_unique_values"`
	NumCompleteRows    int                                 `json:"num_complete_rows_per_node"`
}

// VarianceEntry is one column's round-2 contribution: the local sum of
// squared deviations from the global mean, and the local count it covers.
type VarianceEntry struct {
	SSD   float64 `json:"ssd"`
	Count float64 `json:"count"`
}

// VariancePartial is one station's round-2 payload, keyed by column.
type VariancePartial map[string]VarianceEntry

// ============================================================================
// COORDINATOR OUTPUTS
// ============================================================================

// SkipReason is a structured code recording why a column was excluded from
// an aggregated result.
type SkipReason string

const (
	SkipOneGroupOnly           SkipReason = "ONE_GROUP_ONLY"          // column has data in only one group globally
	SkipInsufficientRecords    SkipReason = "INSUFFICIENT_RECORDS"    // fewer than 2 pooled records in a group
	SkipZeroPooledVariance     SkipReason = "ZERO_POOLED_VARIANCE"    // t denominator exactly zero
	SkipNoStationContributions SkipReason = "NO_STATION_CONTRIBUTION" // every station errored for this column
)

// ColumnSkip surfaces a skipped column and its reason in the final result,
// so columns never disappear without a trace.
type ColumnSkip struct {
	Column string     `json:"column"`
	Reason SkipReason `json:"reason"`
}

// TTestColumnResult reports the pooled two-sample t-test for one column.
type TTestColumnResult struct {
	TScore float64 `json:"t_score"`
	PValue float64 `json:"p_value"`
}

// TTestResult is the coordinator output of a federated t-test.
type TTestResult struct {
	Columns map[string]TTestColumnResult `json:"columns"`
	GroupA  string                       `json:"group_a"`
	GroupB  string                       `json:"group_b"`
	Skipped []ColumnSkip                 `json:"skipped,omitempty"`
}

// ANOVAResult is the coordinator output of a federated one-way ANOVA.
// GroupMeans and GroupVariances are the count-weighted global combinations
// of the per-station group statistics, k x d.
type ANOVAResult struct {
	FStatistic     float64     `json:"f_statistic"`
	PValue         float64     `json:"p_value"`
	Groups         []string    `json:"groups"`
	GroupMeans     [][]float64 `json:"group_means"`
	GroupVariances [][]float64 `json:"group_variances"`
}

// MarshalJSON encodes a non-finite F statistic as the string sentinel
// "Infinity" (a zero within-group scatter drives F there legitimately);
// encoding/json rejects infinite floats outright.
func (r ANOVAResult) MarshalJSON() ([]byte, error) {
	type alias ANOVAResult
	out := struct {
		alias
		FStatistic interface{} `json:"f_statistic"`
	}{alias: alias(r), FStatistic: r.FStatistic}
	if math.IsInf(r.FStatistic, 1) {
		out.FStatistic = "Infinity"
	}
	return json.Marshal(out)
}

// PCAResult is the coordinator output of a federated PCA. Components holds
// the principal directions as columns (shape d x k).
type PCAResult struct {
	Columns                []string    `json:"columns"`
	NTotal                 int         `json:"n_total"`
	Mean                   []float64   `json:"mean"`
	Components             [][]float64 `json:"components"`
	ExplainedVariance      []float64   `json:"explained_variance"`
	ExplainedVarianceRatio []float64   `json:"explained_variance_ratio"`
	Centered               bool        `json:"centered"`
	Covariance             [][]float64 `json:"covariance"`
}

// NumericAggregate is the pooled descriptive summary of one numeric column.
// The quantile slices hold one entry per contributing station.
type NumericAggregate struct {
	Count   float64   `json:"count"`
	Missing float64   `json:"missing"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Sum     float64   `json:"sum"`
	Mean    float64   `json:"mean"`
	Q25     []float64 `json:"25%"`
	Q50     []float64 `json:"50%"`
	Q75     []float64 `json:"75%"`
	IQR     []float64 `json:"IQR"`
	Std     *float64  `json:"std,omitempty"`
}

// SummaryResult is the coordinator output of the two-round descriptive
// summary.
type SummaryResult struct {
	Numeric                map[string]*NumericAggregate        `json:"numeric"`
	Categorical            map[string]CategoricalColumnSummary `json:"categorical"`
	CountsUniqueValues     map[string]map[string]float64       `json:"counts_unique_values"`
	NumCompleteRowsPerNode []int                               `json:"num_complete_rows_per_node"`
}
