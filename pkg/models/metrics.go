package models

import "time"

// DerivedMetrics is recomputed on every request and has no identity
type DerivedMetrics struct {
	CurrentConsumption float64 `json:"current_consumption"` // kWh
	AnnualEmissions    float64 `json:"annual_emissions"`    // kg CO2/year
	PotentialSavings   float64 `json:"potential_savings"`   // currency/year
	TreeEquivalent     int64   `json:"tree_equivalent"`
}

// Snapshot is one DerivedMetrics set together with the inputs it came from
type Snapshot struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Metrics     DerivedMetrics   `json:"metrics"`
	State       OperationalState `json:"state"`
	Hour        int              `json:"hour"`
	UsageFactor float64          `json:"usage_factor"`
	CollectedAt time.Time        `json:"collected_at"`

	// Stale is set when the snapshot is served from the fallback cache
	// instead of a fresh computation.
	Stale bool `json:"stale"`
}

// ReferenceMetrics are the values the dashboard shows before any
// computation has succeeded.
func ReferenceMetrics() DerivedMetrics {
	return DerivedMetrics{
		CurrentConsumption: 1344,
		AnnualEmissions:    219610,
		PotentialSavings:   1612800,
		TreeEquivalent:     9982,
	}
}

// ReferenceState is the baseline simulated equipment activity
func ReferenceState() OperationalState {
	return OperationalState{
		ActiveWorkstations: 4200,
		ActiveServers:      85,
	}
}
