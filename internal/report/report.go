// Package report renders analysis results as markdown and HTML.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"fedstats/domain/stats"
)

// TTest renders a two-sample t-test result.
func TTest(result *stats.TTestResult) string {
	var b strings.Builder
	b.WriteString("## Two-Sample T-Test\n\n")
	if result.GroupA != "" || result.GroupB != "" {
		fmt.Fprintf(&b, "Groups: `%s` vs `%s`\n\n", result.GroupA, result.GroupB)
	}
	if len(result.Columns) > 0 {
		b.WriteString("| Column | t | p |\n|---|---|---|\n")
		for _, name := range sortedKeys(result.Columns) {
			col := result.Columns[name]
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, formatStat(col.TScore), formatStat(col.PValue))
		}
		b.WriteString("\n")
	}
	writeSkips(&b, result.Skipped)
	return b.String()
}

// ANOVA renders a one-way ANOVA result.
func ANOVA(result *stats.ANOVAResult) string {
	var b strings.Builder
	b.WriteString("## One-Way ANOVA\n\n")
	fmt.Fprintf(&b, "F = %s, p = %s\n\n", formatStat(result.FStatistic), formatStat(result.PValue))
	if len(result.Groups) > 0 && len(result.GroupMeans) == len(result.Groups) {
		b.WriteString("| Group | Means | Variances |\n|---|---|---|\n")
		for i, g := range result.Groups {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				g, formatVector(result.GroupMeans[i]), formatVector(result.GroupVariances[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// PCA renders a principal component analysis result.
func PCA(result *stats.PCAResult) string {
	var b strings.Builder
	b.WriteString("## Principal Component Analysis\n\n")
	fmt.Fprintf(&b, "Rows pooled: %d, features: %d\n\n", result.NTotal, len(result.Columns))
	b.WriteString("| Component | Explained Variance | Ratio |\n|---|---|---|\n")
	for i := range result.ExplainedVariance {
		fmt.Fprintf(&b, "| PC%d | %s | %s |\n",
			i+1, formatStat(result.ExplainedVariance[i]), formatStat(result.ExplainedVarianceRatio[i]))
	}
	b.WriteString("\n")
	return b.String()
}

// Summary renders a federated descriptive summary.
func Summary(result *stats.SummaryResult) string {
	var b strings.Builder
	b.WriteString("## Descriptive Summary\n\n")
	if len(result.Numeric) > 0 {
		b.WriteString("### Numeric Columns\n\n")
		b.WriteString("| Column | Count | Missing | Min | Max | Mean | Std |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, name := range sortedNumericKeys(result.Numeric) {
			agg := result.Numeric[name]
			std := "-"
			if agg.Std != nil {
				std = formatStat(*agg.Std)
			}
			fmt.Fprintf(&b, "| %s | %.0f | %.0f | %s | %s | %s | %s |\n",
				name, agg.Count, agg.Missing,
				formatStat(agg.Min), formatStat(agg.Max), formatStat(agg.Mean), std)
		}
		b.WriteString("\n")
	}
	if len(result.Categorical) > 0 {
		b.WriteString("### Categorical Columns\n\n")
		b.WriteString("| Column | Count | Missing |\n|---|---|---|\n")
		for _, name := range sortedCategoricalKeys(result.Categorical) {
			agg := result.Categorical[name]
			fmt.Fprintf(&b, "| %s | %.0f | %.0f |\n", name, agg.Count, agg.Missing)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ToHTML converts a markdown report into an HTML fragment.
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

func writeSkips(b *strings.Builder, skips []stats.ColumnSkip) {
	if len(skips) == 0 {
		return
	}
	b.WriteString("### Skipped Columns\n\n")
	for _, s := range skips {
		fmt.Fprintf(b, "- `%s`: %s\n", s.Column, s.Reason)
	}
	b.WriteString("\n")
}

func formatStat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return fmt.Sprintf("%.6g", v)
	}
}

func sortedKeys(m map[string]stats.TTestColumnResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNumericKeys(m map[string]*stats.NumericAggregate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatStat(x)
	}
	return strings.Join(parts, ", ")
}

func sortedCategoricalKeys(m map[string]stats.CategoricalColumnSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
