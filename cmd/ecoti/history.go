package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardobora/eco-dashboard-renault/pkg/storage"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored snapshots, newest first",
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of snapshots to show")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	// In-memory history does not outlive a serve process
	if !cfg.StorageEnabled {
		return fmt.Errorf("history requires storage (set ECO_STORAGE_ENABLED=true and ECO_DB_CONNECTION)")
	}

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	snapshots, err := store.ListSnapshots(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots stored yet")
		return nil
	}

	fmt.Printf("%-20s %-8s %12s %14s %8s %6s\n", "COLLECTED", "SOURCE", "KWH", "CO2 KG/YEAR", "TREES", "STALE")
	for _, s := range snapshots {
		fmt.Printf("%-20s %-8s %12.2f %14.2f %8d %6t\n",
			s.CollectedAt.Local().Format("2006-01-02 15:04:05"),
			s.Source,
			s.Metrics.CurrentConsumption,
			s.Metrics.AnnualEmissions,
			s.Metrics.TreeEquivalent,
			s.Stale)
	}
	return nil
}
