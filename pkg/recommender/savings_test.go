package recommender

import (
	"testing"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

func TestDetectIdleResources(t *testing.T) {
	rec := newTestRecommender(t, models.ReferenceState(), testDatacenter())

	sectors := []models.SectorConsumption{
		{Name: "Sales", Workstations: 600, Utilization: 0.62, AnnualConsumptionKWh: 1051200},
		{Name: "Engineering", Workstations: 1500, Utilization: 0.85, AnnualConsumptionKWh: 2628000},
		{Name: "Unknown", Workstations: 100},
		{Name: "Threshold", Workstations: 100, Utilization: 0.75, AnnualConsumptionKWh: 1000},
	}

	idle := rec.DetectIdleResources(sectors)
	if len(idle) != 1 {
		t.Fatalf("Expected 1 idle sector, got %d: %+v", len(idle), idle)
	}
	if idle[0].Sector != "Sales" || idle[0].Count != 600 {
		t.Errorf("Unexpected idle sector %+v", idle[0])
	}
	if !approxEqual(idle[0].WastePercent, 38) {
		t.Errorf("Expected 38%% waste, got %.2f", idle[0].WastePercent)
	}
	if !approxEqual(idle[0].PotentialSavingsKWh, 1051200*0.13) {
		t.Errorf("Expected %.2f kWh, got %.2f", 1051200*0.13, idle[0].PotentialSavingsKWh)
	}
}

func TestConsolidation(t *testing.T) {
	rec := newTestRecommender(t, models.ReferenceState(), testDatacenter())

	c := rec.Consolidation()
	if c.CurrentServers != 100 || c.ServersToConsolidate != 27 || c.TargetServers != 73 {
		t.Errorf("Expected 100 -> 73 servers (27 removed), got %+v", c)
	}
	if !approxEqual(c.ReductionPercent, 27) {
		t.Errorf("Expected 27%% reduction, got %.2f", c.ReductionPercent)
	}
	// 27 * 400 W * 8760 h
	if !approxEqual(c.Impact.EnergyKWh, 94608) {
		t.Errorf("Expected 94608 kWh, got %.2f", c.Impact.EnergyKWh)
	}
}

func TestCooling(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		target       float64
		expectedKWh  float64
		contribution float64
	}{
		// 44 kW rated, (2.0 - 1.5) * 44 kW * 8760 h
		{"default PUE", 2.0, 1.5, 192720, 50},
		{"already at target", 1.5, 1.5, 0, 100.0 / 3},
		{"best practice", 1.6, 1.2, 0.4 * 44 * 8760, 37.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := testDatacenter()
			dc.CurrentPUE, dc.TargetPUE = tt.current, tt.target
			rec := newTestRecommender(t, models.ReferenceState(), dc)

			c := rec.Cooling()
			if !approxEqual(c.AnnualSavingsKWh, tt.expectedKWh) {
				t.Errorf("Expected %.2f kWh, got %.2f", tt.expectedKWh, c.AnnualSavingsKWh)
			}
			if !approxEqual(c.PUEContribution, tt.contribution) {
				t.Errorf("Expected PUE contribution %.2f, got %.2f", tt.contribution, c.PUEContribution)
			}
			if !approxEqual(c.AnnualFacilityKWh, 44*tt.current*8760) {
				t.Errorf("Expected facility %.2f kWh, got %.2f", 44*tt.current*8760, c.AnnualFacilityKWh)
			}
		})
	}
}

func TestOptimizationPotential(t *testing.T) {
	rec := newTestRecommender(t, models.ReferenceState(), testDatacenter())

	p := rec.OptimizationPotential()

	total := 94608.0 + 192720.0
	if !approxEqual(p.Impact.EnergyKWh, total) {
		t.Errorf("Expected %.2f kWh, got %.2f", total, p.Impact.EnergyKWh)
	}
	if !approxEqual(p.Impact.CostSavings, total*0.60) {
		t.Errorf("Expected savings %.2f, got %.2f", total*0.60, p.Impact.CostSavings)
	}
	// 23474.69 kg / 22
	if p.TreesEquivalent != 1067 {
		t.Errorf("Expected 1067 trees, got %d", p.TreesEquivalent)
	}
	// against 44 kW * 2.0 * 8760 h
	if !approxEqual(p.ReductionPercent, total/770880*100) {
		t.Errorf("Expected %.2f%% reduction, got %.2f", total/770880*100, p.ReductionPercent)
	}
	if p.ReductionPercent >= 100 {
		t.Errorf("Reduction must stay below 100%%, got %.2f", p.ReductionPercent)
	}
}

func TestSavings(t *testing.T) {
	rec := newTestRecommender(t, models.ReferenceState(), testDatacenter())

	s := rec.Savings([]models.Sector{
		{Name: "Sales", Workstations: 600, Utilization: 0.62},
		{Name: "Engineering", Workstations: 1500, Utilization: 0.85},
	})

	if s.Workstations.IdleWorkstations != 1176 {
		t.Errorf("Expected 1176 idle workstations, got %d", s.Workstations.IdleWorkstations)
	}
	if !approxEqual(s.Workstations.Impact.CostSavings, 352800) {
		t.Errorf("Expected workstation savings 352800, got %.2f", s.Workstations.Impact.CostSavings)
	}
	// 10% of 44 kW over a year
	if !approxEqual(s.Servers.Impact.EnergyKWh, 38544) {
		t.Errorf("Expected 38544 kWh server trim, got %.2f", s.Servers.Impact.EnergyKWh)
	}

	total := 588000.0 + 287328.0 + 38544.0
	if !approxEqual(s.Total.Impact.EnergyKWh, total) {
		t.Errorf("Expected total %.2f kWh, got %.2f", total, s.Total.Impact.EnergyKWh)
	}
	// baseline: 770880 kWh facility + 5376 * 250 W * 8 h * 250 days
	if !approxEqual(s.Total.ReductionPercent, total/(770880+2688000)*100) {
		t.Errorf("Unexpected reduction %.2f", s.Total.ReductionPercent)
	}
	if s.Total.TreesEquivalent != 3393 {
		t.Errorf("Expected 3393 trees, got %d", s.Total.TreesEquivalent)
	}

	if len(s.IdleResources) != 1 || s.IdleResources[0].Sector != "Sales" {
		t.Fatalf("Expected Sales flagged as idle, got %+v", s.IdleResources)
	}
	// 600 * 250 W * 0.8 * 8760 h * (0.75 - 0.62)
	if !approxEqual(s.IdleResources[0].PotentialSavingsKWh, 1051200*0.13) {
		t.Errorf("Unexpected idle sector savings %.2f", s.IdleResources[0].PotentialSavingsKWh)
	}
}

func TestSavingsOverFullState(t *testing.T) {
	rec := newTestRecommender(t, models.OperationalState{ActiveWorkstations: 6000, ActiveServers: 85}, testDatacenter())

	s := rec.Savings(nil)
	if s.Workstations.IdleWorkstations != 0 || s.Workstations.Impact.EnergyKWh != 0 {
		t.Errorf("Expected no workstation savings for an over-full state, got %+v", s.Workstations)
	}
	if s.IdleResources == nil {
		t.Error("Expected empty idle resource list, got nil")
	}
}
