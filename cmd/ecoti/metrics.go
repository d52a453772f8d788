package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonardobora/eco-dashboard-renault/pkg/datasource"
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

var (
	outputFormat string
	hour         int
	period       string
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute the current sustainability metrics once",
		RunE:  runMetrics,
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	cmd.Flags().IntVar(&hour, "hour", -1, "Evaluate at this hour of day (0-23) instead of now")
	return cmd
}

func newTrendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show the daily or weekly consumption trend",
		RunE:  runTrends,
	}
	cmd.Flags().StringVar(&period, "period", "day", "Trend period: day, week")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	return cmd
}

func engineOptions() ([]engine.Option, error) {
	if hour == -1 {
		return nil, nil
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("--hour must be between 0 and 23, got %d", hour)
	}
	return []engine.Option{engine.WithClock(clockAtHour(hour))}, nil
}

func collectSnapshot(ctx context.Context) (*engine.Engine, *models.Snapshot, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, nil, err
	}
	eng, err := newEngine(opts...)
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource(eng)
	if err != nil {
		return nil, nil, err
	}

	snap, err := src.GetMetrics(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect metrics from %s: %w", src.Name(), err)
	}
	return eng, snap, nil
}

func runMetrics(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("output must be text or json")
	}

	_, snap, err := collectSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(snap)
	}

	fmt.Println("=== EcoTI Metrics ===")
	fmt.Println()
	fmt.Printf("Source:              %s\n", snap.Source)
	if snap.Source == datasource.LocalName {
		fmt.Printf("Hour:                %02d:00 (usage factor %.1f)\n", snap.Hour, snap.UsageFactor)
		fmt.Printf("Active workstations: %d / %d\n", snap.State.ActiveWorkstations, cfg.Infrastructure.TotalWorkstations)
		fmt.Printf("Active servers:      %d / %d\n", snap.State.ActiveServers, cfg.Infrastructure.TotalServers)
	}
	fmt.Println()
	fmt.Printf("Current consumption: %.2f kWh\n", snap.Metrics.CurrentConsumption)
	fmt.Printf("CO2 emissions:       %.2f kg/year\n", snap.Metrics.AnnualEmissions)
	fmt.Printf("Potential savings:   R$ %.2f/year\n", snap.Metrics.PotentialSavings)
	fmt.Printf("Tree equivalent:     %d trees\n", snap.Metrics.TreeEquivalent)
	return nil
}

func runTrends(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	trend, err := eng.Trend(period)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(trend)
	}

	fmt.Printf("=== %s Trend ===\n\n", strings.ToUpper(trend.Period[:1])+trend.Period[1:])
	fmt.Printf("%-10s %11s %12s %12s %10s\n", "PERIOD", "UTILIZATION", "KWH", "CO2 (KG)", "COST")
	for _, p := range trend.Points {
		marker := ""
		switch p.Index {
		case trend.PeakIndex:
			marker = "  <- peak"
		case trend.LowestIndex:
			marker = "  <- lowest"
		}
		fmt.Printf("%-10s %10.0f%% %12.2f %12.2f %10.2f%s\n",
			p.Label, p.Utilization*100, p.ConsumptionKWh, p.CO2Kg, p.Cost, marker)
	}
	fmt.Printf("\nTotal: %.2f kWh, average %.2f kWh\n", trend.TotalKWh, trend.AverageKWh)
	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}
