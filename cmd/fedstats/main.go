package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fedstats/adapters/file"
	"fedstats/adapters/runner"
	"fedstats/app"
	"fedstats/domain/core"
	"fedstats/internal/config"
	"fedstats/internal/report"
	"fedstats/internal/station"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedstats",
		Short: "Federated statistics over local data files",
		Long: `Run federated analyses where each data file acts as one station.
Only sufficient statistics cross the station boundary; raw rows never do.`,
	}

	rootCmd.AddCommand(
		newSummaryCmd(),
		newTTestCmd(),
		newANOVACmd(),
		newPCACmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildService wires one in-process station per data file.
func buildService(dataFiles []string, minRecords int) (*app.AnalysisService, error) {
	if len(dataFiles) == 0 {
		return nil, fmt.Errorf("at least one --data file is required")
	}
	stations := make([]*station.Station, 0, len(dataFiles))
	for i, path := range dataFiles {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		id, err := core.ParseStationID(fmt.Sprintf("%s-%d", name, i+1))
		if err != nil {
			return nil, err
		}
		stations = append(stations, station.New(id, file.NewDataReader(path, ""), minRecords))
	}
	return app.NewAnalysisService(runner.NewLocal(stations)), nil
}

func newSummaryCmd() *cobra.Command {
	var dataFiles, columns, numericColumns []string
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Federated descriptive summary across data files",
		Long: `Compute a two-round federated summary: counts, extremes, sums and
per-station quartiles in round one, then exact pooled standard deviations
against the global means in round two.

Example: fedstats summary --data clinic_a.csv --data clinic_b.csv --columns age,weight`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(dataFiles, config.DefaultTTestMinRecords)
			if err != nil {
				return err
			}
			result, err := service.RunSummary(cmd.Context(), app.SummaryRequest{
				Columns:        columns,
				NumericColumns: numericColumns,
			})
			if err != nil {
				return err
			}
			return printResult(result, format, func() string { return report.Summary(result) })
		},
	}

	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "Data file acting as one station (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to summarize (default: all)")
	cmd.Flags().StringSliceVar(&numericColumns, "numeric-columns", nil, "Columns to treat as numeric (default: inferred)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	return cmd
}

func newTTestCmd() *cobra.Command {
	var dataFiles, columns []string
	var groupCol, format string
	var minRecords int

	cmd := &cobra.Command{
		Use:   "ttest",
		Short: "Federated two-sample t-test",
		Long: `Pool per-group means and variances across stations and compute a
two-sample t-test per column. With --group-col the two groups come from a
categorical column; without it, exactly two data files act as the groups.

Example: fedstats ttest --data a.csv --data b.csv --columns weight --group-col treatment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(dataFiles, minRecords)
			if err != nil {
				return err
			}
			result, err := service.RunTTest(cmd.Context(), app.TTestRequest{
				Columns:  columns,
				GroupCol: groupCol,
			})
			if err != nil {
				return err
			}
			return printResult(result, format, func() string { return report.TTest(result) })
		},
	}

	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "Data file acting as one station (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to test (default: all numeric)")
	cmd.Flags().StringVar(&groupCol, "group-col", "", "Grouping column with exactly two values globally")
	cmd.Flags().IntVar(&minRecords, "min-records", config.DefaultTTestMinRecords, "Minimum station rows before a t-test partial is disclosed")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	return cmd
}

func newANOVACmd() *cobra.Command {
	var dataFiles, features []string
	var groupColumn, format string

	cmd := &cobra.Command{
		Use:   "anova",
		Short: "Federated one-way ANOVA",
		Long: `Pool within and between group sums of squares across stations and
compute a one-way ANOVA F-test.

Example: fedstats anova --data a.csv --data b.csv --group-column site --features weight,height`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(dataFiles, config.DefaultTTestMinRecords)
			if err != nil {
				return err
			}
			result, err := service.RunANOVA(cmd.Context(), app.ANOVARequest{
				GroupColumn: groupColumn,
				Features:    features,
			})
			if err != nil {
				return err
			}
			return printResult(result, format, func() string { return report.ANOVA(result) })
		},
	}

	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "Data file acting as one station (repeatable)")
	cmd.Flags().StringVar(&groupColumn, "group-column", "", "Grouping column (required)")
	cmd.Flags().StringSliceVar(&features, "features", nil, "Feature columns (default: all numeric)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	return cmd
}

func newPCACmd() *cobra.Command {
	var dataFiles, features []string
	var format string
	var nComponents int
	var noCenter bool

	cmd := &cobra.Command{
		Use:   "pca",
		Short: "Federated principal component analysis",
		Long: `Pool linear sufficient statistics (sums and second moments) across
stations and compute principal components of the global covariance.

Example: fedstats pca --data a.csv --data b.csv --features x,y,z --n-components 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(dataFiles, config.DefaultTTestMinRecords)
			if err != nil {
				return err
			}
			center := !noCenter
			result, err := service.RunPCA(cmd.Context(), app.PCARequest{
				Features:    features,
				NComponents: nComponents,
				Center:      &center,
			})
			if err != nil {
				return err
			}
			return printResult(result, format, func() string { return report.PCA(result) })
		},
	}

	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "Data file acting as one station (repeatable)")
	cmd.Flags().StringSliceVar(&features, "features", nil, "Feature columns (default: all numeric)")
	cmd.Flags().IntVar(&nComponents, "n-components", 0, "Number of components to keep (default: all)")
	cmd.Flags().BoolVar(&noCenter, "no-center", false, "Analyze second moments without centering")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	return cmd
}

func printResult(v interface{}, format string, render func() string) error {
	switch format {
	case "markdown":
		fmt.Print(render())
		return nil
	case "html":
		fmt.Print(report.ToHTML(render()))
		return nil
	default:
		return printJSON(v)
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
