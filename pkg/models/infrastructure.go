package models

// InfrastructureConfig describes the installed inventory and the constants
// used to turn power draw into emissions and cost. It does not change for
// the lifetime of an engine.
type InfrastructureConfig struct {
	TotalWorkstations   int `json:"total_workstations" yaml:"total_workstations"`
	TotalServers        int `json:"total_servers" yaml:"total_servers"`
	TotalConvergedNodes int `json:"total_converged_nodes" yaml:"total_converged_nodes"`

	AvgWorkstationWatts float64 `json:"avg_workstation_watts" yaml:"avg_workstation_watts"` // W per active workstation
	EmissionFactor      float64 `json:"emission_factor" yaml:"emission_factor"`             // kg CO2/kWh
	TreeSequestration   float64 `json:"tree_sequestration" yaml:"tree_sequestration"`       // kg CO2/tree/year
	EnergyTariff        float64 `json:"energy_tariff" yaml:"energy_tariff"`                 // currency/kWh
}

// OperationalState is the simulated live equipment activity
type OperationalState struct {
	ActiveWorkstations int `json:"active_workstations" yaml:"active_workstations"`
	ActiveServers      int `json:"active_servers" yaml:"active_servers"`
}

// IdleWorkstations returns installed workstations that are not active.
// The subtraction is not clamped.
func (s OperationalState) IdleWorkstations(cfg InfrastructureConfig) int {
	return cfg.TotalWorkstations - s.ActiveWorkstations
}

// Sector is a department owning part of the workstation inventory.
// Utilization is the observed share of its workstations in use (0-1); zero
// means unknown.
type Sector struct {
	Name         string  `json:"name" yaml:"name"`
	Workstations int     `json:"workstations" yaml:"workstations"`
	Utilization  float64 `json:"utilization" yaml:"utilization"`
}

// ServerClass is a group of identical rack servers in the datacenter
type ServerClass struct {
	Name                 string  `json:"name" yaml:"name"`
	Model                string  `json:"model" yaml:"model"`
	Count                int     `json:"count" yaml:"count"`
	PowerWatts           float64 `json:"power_w" yaml:"power_w"`
	Utilization          float64 `json:"utilization" yaml:"utilization"`                     // 0-1
	ConsolidationPercent float64 `json:"consolidation_percent" yaml:"consolidation_percent"` // share that can be virtualized away
}

// Datacenter describes the facility hosting the servers. It feeds the
// optimization analysis only; the metrics engine ignores PUE.
type Datacenter struct {
	CurrentPUE     float64       `json:"pue_current" yaml:"pue_current"`
	TargetPUE      float64       `json:"pue_target" yaml:"pue_target"`
	PeakMultiplier float64       `json:"peak_multiplier" yaml:"peak_multiplier"` // tariff multiplier during peak hours
	PeakHours      []int         `json:"peak_hours" yaml:"peak_hours"`
	Servers        []ServerClass `json:"servers" yaml:"servers"`
}

// RatedServerKW is the nameplate draw of every server in kW
func (d Datacenter) RatedServerKW() float64 {
	var watts float64
	for _, s := range d.Servers {
		watts += float64(s.Count) * s.PowerWatts
	}
	return watts / 1000
}

// ServerCount is the number of servers across all classes
func (d Datacenter) ServerCount() int {
	var n int
	for _, s := range d.Servers {
		n += s.Count
	}
	return n
}
