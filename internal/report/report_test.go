package report

import (
	"math"
	"strings"
	"testing"

	"fedstats/domain/stats"
)

func TestSummaryReport(t *testing.T) {
	std := math.Sqrt(2.5)
	result := &stats.SummaryResult{
		Numeric: map[string]*stats.NumericAggregate{
			"weight": {Count: 5, Missing: 1, Min: 1, Max: 5, Sum: 15, Mean: 3, Std: &std},
		},
		Categorical: map[string]stats.CategoricalColumnSummary{
			"site": {Count: 6},
		},
	}

	md := Summary(result)
	for _, want := range []string{"Descriptive Summary", "| weight |", "| site |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestTTestReport_IncludesSkips(t *testing.T) {
	result := &stats.TTestResult{
		Columns: map[string]stats.TTestColumnResult{
			"value": {TScore: -6.38, PValue: 0.0002},
		},
		GroupA:  "X",
		GroupB:  "Y",
		Skipped: []stats.ColumnSkip{{Column: "flat", Reason: stats.SkipZeroPooledVariance}},
	}

	md := TTest(result)
	if !strings.Contains(md, "ZERO_POOLED_VARIANCE") {
		t.Errorf("skip reason missing from report:\n%s", md)
	}
	if !strings.Contains(md, "| value |") {
		t.Errorf("column row missing from report:\n%s", md)
	}
}

func TestANOVAReport_InfiniteF(t *testing.T) {
	result := &stats.ANOVAResult{
		FStatistic: math.Inf(1),
		Groups:     []string{"A", "B"},
		GroupMeans: [][]float64{{1}, {5}},
		GroupVariances: [][]float64{
			{0}, {0},
		},
	}
	md := ANOVA(result)
	if !strings.Contains(md, "+Inf") {
		t.Errorf("infinite F should render as +Inf:\n%s", md)
	}
}

func TestToHTML_RendersTables(t *testing.T) {
	html := ToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if !strings.Contains(html, "<table>") {
		t.Errorf("table extension not active:\n%s", html)
	}
}
