package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	snap := report.Snapshot
	rows := [][]string{
		{"Metric", "Value", "Unit"},
		{"Current Consumption", fmt.Sprintf("%.2f", snap.Metrics.CurrentConsumption), "kWh"},
		{"CO2 Emissions", fmt.Sprintf("%.2f", snap.Metrics.AnnualEmissions), "kg/year"},
		{"Potential Savings", fmt.Sprintf("%.2f", snap.Metrics.PotentialSavings), "BRL/year"},
		{"Tree Equivalent", fmt.Sprintf("%d", snap.Metrics.TreeEquivalent), "trees"},
		{"Active Workstations", fmt.Sprintf("%d", snap.State.ActiveWorkstations), "units"},
		{"Active Servers", fmt.Sprintf("%d", snap.State.ActiveServers), "units"},
		{"Idle Workstations", fmt.Sprintf("%d", report.IdleWorkstations), "units"},
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV metrics: %w", err)
	}

	if len(report.Sectors) > 0 {
		w.Write([]string{}) // Empty row
		w.Write([]string{"SECTOR BREAKDOWN"})
		w.Write([]string{"Sector", "Workstations", "Consumption (kW)", "Annual CO2 (kg)"})
		for _, s := range report.Sectors {
			w.Write([]string{
				s.Name,
				fmt.Sprintf("%d", s.Workstations),
				fmt.Sprintf("%.2f", s.ConsumptionKW),
				fmt.Sprintf("%.2f", s.AnnualCO2Kg),
			})
		}
	}

	w.Flush()
	return w.Error()
}
