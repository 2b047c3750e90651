package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/paveg/medviz"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Draw the count plot and the correlation heat map",
		Example: `  medviz run --input medical_examination.csv --output-dir figures
  medviz run --format svg --export-dir tables --export-format parquet
  MEDVIZ_SHOW_DIAGONAL=true medviz run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			p, err := medviz.New(cfg, medviz.WithLogger(a.logger(cmd, cfg)))
			if err != nil {
				return err
			}
			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "examination table (.csv or .parquet)")
	flags.StringP("output-dir", "o", "", "directory the figures are written to")
	flags.StringP("format", "f", "", "figure format: png, svg, pdf, jpg, tiff or eps")
	flags.String("export-dir", "", "also write the long and filtered tables here")
	flags.String("export-format", "", "export format: csv or parquet")
	flags.Bool("show-diagonal", false, "draw the diagonal of the heat map")
	flags.Bool("metrics", false, "collect per stage metrics")

	for flag, key := range map[string]string{
		"input":         "input_path",
		"output-dir":    "output_dir",
		"format":        "format",
		"export-dir":    "export_dir",
		"export-format": "export_format",
		"show-diagonal": "show_diagonal",
		"metrics":       "metrics_collection",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func printSummary(w io.Writer, r *medviz.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", cyan("medviz run"), gray(r.RunID))
	fmt.Fprintf(w, "  rows:       %d (%d overweight, %.1f%%)\n", r.Rows, r.OverweightRows, 100*r.OverweightShare())
	fmt.Fprintf(w, "  long rows:  %d\n", r.LongRows)
	fmt.Fprintf(w, "  filtered:   %d (height %.1f-%.1f cm, weight %.1f-%.1f kg)\n",
		r.FilteredRows, r.Bounds.HeightLow, r.Bounds.HeightHigh, r.Bounds.WeightLow, r.Bounds.WeightHigh)

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w, cyan("stages"))
		for _, m := range r.Metrics {
			fmt.Fprintf(w, "  %-10s %10s  %d -> %d rows\n", m.Stage, m.Duration.Round(time.Microsecond), m.RowsIn, m.RowsOut)
		}
	}

	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", yellow("⚠"), msg)
	}

	artifacts := append([]string(nil), r.Artifacts...)
	sort.Strings(artifacts)
	for _, path := range artifacts {
		fmt.Fprintf(w, "%s %s\n", green("✓"), path)
	}
}
