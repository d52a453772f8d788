package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leonardobora/eco-dashboard-renault/pkg/reporter"
)

var (
	reportFormat string
	reportOutput string
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current metrics as CSV, JSON or HTML",
		RunE:  runExport,
	}
	cmd.Flags().StringVar(&reportFormat, "format", "csv", "Report format: csv, json, html")
	cmd.Flags().StringVar(&reportOutput, "output", "", "Output file (default eco_dashboard_data.<format>, - for stdout)")
	cmd.Flags().IntVar(&hour, "hour", -1, "Evaluate at this hour of day (0-23) instead of now")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := reporter.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	eng, snap, err := collectSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	rep := reporter.New(format)
	report := rep.Generate(snap, eng.Config(), eng.HourlyTrend(), eng.SectorBreakdown(cfg.Sectors))

	outputFile := reportOutput
	if outputFile == "" {
		outputFile = rep.Filename()
	}

	var w io.Writer = os.Stdout
	if outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputFile, err)
		}
		defer f.Close()
		w = f
	}

	if err := rep.Write(report, w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if outputFile != "-" {
		fmt.Printf("[INFO] %s report generated: %s\n", format, outputFile)
	}
	return nil
}
