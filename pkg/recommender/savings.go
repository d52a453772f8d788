package recommender

import (
	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// IdleResource is a sector whose workstations are underused
type IdleResource struct {
	ResourceType        string  `json:"resource_type"`
	Sector              string  `json:"sector"`
	Count               int     `json:"count"`
	Utilization         float64 `json:"current_utilization"`
	WastePercent        float64 `json:"waste_percentage"`
	PotentialSavingsKWh float64 `json:"potential_savings_kwh"`
}

// Consolidation is the effect of virtualizing away part of the server fleet
type Consolidation struct {
	CurrentServers       int     `json:"servers_current"`
	TargetServers        int     `json:"servers_target"`
	ServersToConsolidate int     `json:"servers_to_consolidate"`
	ReductionPercent     float64 `json:"reduction_percent"`
	Impact               Impact  `json:"impact"`
}

// Cooling is the effect of bringing the facility PUE down to its target
type Cooling struct {
	CurrentPUE        float64 `json:"current_pue"`
	TargetPUE         float64 `json:"target_pue"`
	CoolingPowerKW    float64 `json:"cooling_power_kw"`
	OverheadPercent   float64 `json:"cooling_overhead_percent"`
	OptimizationKW    float64 `json:"optimization_potential_kw"`
	PUEContribution   float64 `json:"pue_contribution"`
	AnnualSavingsKWh  float64 `json:"annual_savings_kwh"`
	AnnualFacilityKWh float64 `json:"annual_facility_kwh"` // rated IT load at the current PUE
}

// Potential combines consolidation and cooling for the datacenter
type Potential struct {
	Consolidation    Consolidation `json:"consolidation"`
	Cooling          Cooling       `json:"cooling"`
	Impact           Impact        `json:"impact"`
	TreesEquivalent  int64         `json:"trees_equivalent"`
	ReductionPercent float64       `json:"reduction_percentage"`
}

// WorkstationSavings is the shutdown potential of idle workstations
type WorkstationSavings struct {
	IdleWorkstations int    `json:"idle_workstations"`
	Impact           Impact `json:"impact"`
	TreesEquivalent  int64  `json:"trees_equivalent"`
}

// ServerTrim is the saving from rebalancing load across the fleet
type ServerTrim struct {
	Strategy string `json:"strategy"`
	Impact   Impact `json:"impact"`
}

// Total sums every savings stream. ReductionPercent is relative to the
// yearly energy of the rated facility plus the workstation inventory over
// working hours.
type Total struct {
	Impact           Impact  `json:"impact"`
	TreesEquivalent  int64   `json:"trees_equivalent"`
	ReductionPercent float64 `json:"reduction_percentage"`
}

// Savings is the full optimization analysis
type Savings struct {
	Workstations  WorkstationSavings `json:"workstation_optimization"`
	Datacenter    Potential          `json:"datacenter_optimization"`
	Servers       ServerTrim         `json:"server_optimization"`
	IdleResources []IdleResource     `json:"idle_resources"`
	Total         Total              `json:"total_potential"`
}

// DetectIdleResources flags sectors whose utilization is known and below the
// idle threshold. The potential saving is the annual energy between the
// current utilization and the threshold.
func (r *Recommender) DetectIdleResources(sectors []models.SectorConsumption) []IdleResource {
	idle := make([]IdleResource, 0)
	for _, s := range sectors {
		if s.Utilization <= 0 || s.Utilization >= r.idleSectorThreshold {
			continue
		}
		idle = append(idle, IdleResource{
			ResourceType:        "workstations",
			Sector:              s.Name,
			Count:               s.Workstations,
			Utilization:         s.Utilization,
			WastePercent:        (1 - s.Utilization) * 100,
			PotentialSavingsKWh: s.AnnualConsumptionKWh * (r.idleSectorThreshold - s.Utilization),
		})
	}
	return idle
}

// Consolidation returns the servers that can be virtualized away and the
// energy they would stop drawing.
func (r *Recommender) Consolidation() Consolidation {
	current := r.datacenter.ServerCount()

	var removed int
	var savedKW float64
	for _, s := range r.datacenter.Servers {
		n := int(float64(s.Count) * s.ConsolidationPercent / 100)
		removed += n
		savedKW += float64(n) * s.PowerWatts / 1000
	}

	var pct float64
	if current > 0 {
		pct = float64(removed) / float64(current) * 100
	}
	return Consolidation{
		CurrentServers:       current,
		TargetServers:        current - removed,
		ServersToConsolidate: removed,
		ReductionPercent:     pct,
		Impact:               r.impactFromKWh(savedKW * engine.HoursPerYear),
	}
}

// Cooling returns the saving from moving the facility from its current PUE
// to the target. Cooling power is the overhead above IT load, (PUE - 1).
func (r *Recommender) Cooling() Cooling {
	dc := r.datacenter
	serverKW := dc.RatedServerKW()

	cooling := serverKW * (dc.CurrentPUE - 1)
	target := serverKW * (dc.TargetPUE - 1)
	saved := max(cooling-target, 0)

	var contribution float64
	if dc.CurrentPUE > 0 {
		contribution = (dc.CurrentPUE - 1) / dc.CurrentPUE * 100
	}

	return Cooling{
		CurrentPUE:        dc.CurrentPUE,
		TargetPUE:         dc.TargetPUE,
		CoolingPowerKW:    cooling,
		OverheadPercent:   (dc.CurrentPUE - 1) * 100,
		OptimizationKW:    saved,
		PUEContribution:   contribution,
		AnnualSavingsKWh:  saved * engine.HoursPerYear,
		AnnualFacilityKWh: serverKW * dc.CurrentPUE * engine.HoursPerYear,
	}
}

// OptimizationPotential combines consolidation and cooling. The reduction
// percentage is relative to the rated facility's yearly energy at the
// current PUE.
func (r *Recommender) OptimizationPotential() Potential {
	consolidation := r.Consolidation()
	cooling := r.Cooling()

	impact := r.impactFromKWh(consolidation.Impact.EnergyKWh + cooling.AnnualSavingsKWh)

	var pct float64
	if cooling.AnnualFacilityKWh > 0 {
		pct = impact.EnergyKWh / cooling.AnnualFacilityKWh * 100
	}
	return Potential{
		Consolidation:    consolidation,
		Cooling:          cooling,
		Impact:           impact,
		TreesEquivalent:  r.engine.TreeEquivalent(impact.CO2Kg),
		ReductionPercent: pct,
	}
}

// Savings runs the full analysis for the current state and sectors
func (r *Recommender) Savings(sectors []models.Sector) *Savings {
	idle, idleKWh := r.idleWorkstationKWh()
	workstations := r.impactFromKWh(idleKWh)

	datacenter := r.OptimizationPotential()
	servers := r.impactFromKWh(r.datacenter.RatedServerKW() * r.serverTrimShare * engine.HoursPerYear)

	total := workstations.add(datacenter.Impact).add(servers)

	cfg := r.engine.Config()
	inventoryKWh := float64(cfg.TotalWorkstations) * cfg.AvgWorkstationWatts * engine.WorkingHoursPerDay * engine.WorkingDaysPerYear / 1000
	baseline := datacenter.Cooling.AnnualFacilityKWh + inventoryKWh

	var pct float64
	if baseline > 0 {
		pct = total.EnergyKWh / baseline * 100
	}

	return &Savings{
		Workstations: WorkstationSavings{
			IdleWorkstations: idle,
			Impact:           workstations,
			TreesEquivalent:  r.engine.TreeEquivalent(workstations.CO2Kg),
		},
		Datacenter: datacenter,
		Servers: ServerTrim{
			Strategy: "Workload consolidation",
			Impact:   servers,
		},
		IdleResources: r.DetectIdleResources(r.engine.SectorBreakdown(sectors)),
		Total: Total{
			Impact:           total,
			TreesEquivalent:  r.engine.TreeEquivalent(total.CO2Kg),
			ReductionPercent: pct,
		},
	}
}
