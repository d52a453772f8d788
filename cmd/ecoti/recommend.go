package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardobora/eco-dashboard-renault/pkg/recommender"
)

var (
	recLimit    int
	recCategory string
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "List prioritized energy and carbon optimization actions",
		RunE:  runRecommend,
	}
	cmd.Flags().IntVar(&recLimit, "limit", 5, "Maximum recommendations to show (0 for all)")
	cmd.Flags().StringVar(&recCategory, "category", "", "Only show one category: energy_savings, carbon_reduction, cost_optimization, automation, infrastructure")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	cmd.Flags().IntVar(&hour, "hour", -1, "Evaluate at this hour of day (0-23) instead of now")
	return cmd
}

func newSavingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "savings",
		Short: "Project the yearly savings of the optimization actions",
		RunE:  runSavings,
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	cmd.Flags().IntVar(&hour, "hour", -1, "Evaluate at this hour of day (0-23) instead of now")
	return cmd
}

func newRecommender() (*recommender.Recommender, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(opts...)
	if err != nil {
		return nil, err
	}
	return recommender.New(eng, cfg.Datacenter)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	category, err := recommender.ParseCategory(recCategory)
	if err != nil {
		return err
	}
	advisor, err := newRecommender()
	if err != nil {
		return err
	}

	recs := recommender.Filter(advisor.Recommendations(), category, recLimit)
	if outputFormat == "json" {
		return printJSON(recs)
	}

	fmt.Printf("=== Recommendations (%d) ===\n\n", len(recs))
	for i := range recs {
		fmt.Println(recs[i].String())
		fmt.Println()
	}

	total := recommender.TotalImpact(recs)
	fmt.Printf("Total: %.2f kWh, %.2f kg CO2, R$ %.2f per year\n", total.EnergyKWh, total.CO2Kg, total.CostSavings)
	return nil
}

func runSavings(cmd *cobra.Command, args []string) error {
	advisor, err := newRecommender()
	if err != nil {
		return err
	}

	savings := advisor.Savings(cfg.Sectors)
	if outputFormat == "json" {
		return printJSON(savings)
	}

	dc := savings.Datacenter
	fmt.Println("=== Savings Potential ===")
	fmt.Println()
	fmt.Printf("Idle workstations:   %d -> %.2f kWh, R$ %.2f/year\n",
		savings.Workstations.IdleWorkstations, savings.Workstations.Impact.EnergyKWh, savings.Workstations.Impact.CostSavings)
	fmt.Printf("Consolidation:       %d -> %d servers, %.2f kWh/year\n",
		dc.Consolidation.CurrentServers, dc.Consolidation.TargetServers, dc.Consolidation.Impact.EnergyKWh)
	fmt.Printf("Cooling (PUE):       %.2f -> %.2f, %.2f kWh/year\n",
		dc.Cooling.CurrentPUE, dc.Cooling.TargetPUE, dc.Cooling.AnnualSavingsKWh)
	fmt.Printf("Server rebalancing:  %.2f kWh/year\n", savings.Servers.Impact.EnergyKWh)

	if len(savings.IdleResources) > 0 {
		fmt.Println()
		fmt.Printf("%-16s %8s %12s %14s\n", "SECTOR", "COUNT", "UTILIZATION", "SAVINGS (KWH)")
		for _, r := range savings.IdleResources {
			fmt.Printf("%-16s %8d %11.0f%% %14.2f\n", r.Sector, r.Count, r.Utilization*100, r.PotentialSavingsKWh)
		}
	}

	total := savings.Total
	fmt.Println()
	fmt.Printf("Total:               %.2f kWh, %.2f kg CO2, R$ %.2f per year\n",
		total.Impact.EnergyKWh, total.Impact.CO2Kg, total.Impact.CostSavings)
	fmt.Printf("Reduction:           %.1f%% (%d trees)\n", total.ReductionPercent, total.TreesEquivalent)
	return nil
}
