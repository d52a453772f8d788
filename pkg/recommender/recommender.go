package recommender

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leonardobora/eco-dashboard-renault/pkg/engine"
	"github.com/leonardobora/eco-dashboard-renault/pkg/grid"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

type Priority string

const (
	Critical Priority = "critical"
	High     Priority = "high"
	Medium   Priority = "medium"
	Low      Priority = "low"
)

var priorityOrder = map[Priority]int{
	Critical: 0,
	High:     1,
	Medium:   2,
	Low:      3,
}

type Category string

const (
	EnergySavings    Category = "energy_savings"
	CarbonReduction  Category = "carbon_reduction"
	CostOptimization Category = "cost_optimization"
	Automation       Category = "automation"
	Infrastructure   Category = "infrastructure"
)

// ParseCategory validates a category name. The empty string means all.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "", EnergySavings, CarbonReduction, CostOptimization, Automation, Infrastructure:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category: %s", s)
	}
}

// Impact is the yearly effect of acting on a recommendation
type Impact struct {
	EnergyKWh   float64 `json:"energy_savings_kwh"`
	CO2Kg       float64 `json:"co2_reduction_kg"`
	CostSavings float64 `json:"cost_savings"`
}

func (i Impact) add(o Impact) Impact {
	return Impact{
		EnergyKWh:   i.EnergyKWh + o.EnergyKWh,
		CO2Kg:       i.CO2Kg + o.CO2Kg,
		CostSavings: i.CostSavings + o.CostSavings,
	}
}

type Recommendation struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      Category `json:"category"`
	Priority      Priority `json:"priority"`
	Impact        Impact   `json:"impact"`
	Effort        string   `json:"effort"`
	EstimatedTime string   `json:"estimated_time"`
}

// Recommender turns the engine state and the datacenter inventory into
// prioritized optimization actions and savings projections.
type Recommender struct {
	engine          *engine.Engine
	datacenter      models.Datacenter
	renewableFactor float64

	idleSectorThreshold float64 // sectors below this utilization are flagged
	serverUtilTarget    float64 // server classes below this are consolidation candidates
	coolingShare        float64 // cooling as a share of server draw
	coolingReduction    float64 // achievable cut in cooling energy
	solarShare          float64 // share of workstation demand solar could cover
	solarCostShare      float64 // share of the tariff saved on solar energy
	workstationLoad     float64 // average workstation utilization for yearly demand
	serverTrimShare     float64 // draw saved by rebalancing workloads across servers
}

func New(eng *engine.Engine, dc models.Datacenter) (*Recommender, error) {
	renewable, err := grid.Lookup("renewable")
	if err != nil {
		return nil, err
	}
	return &Recommender{
		engine:              eng,
		datacenter:          dc,
		renewableFactor:     renewable.KgCO2PerKWh,
		idleSectorThreshold: 0.75,
		serverUtilTarget:    0.70,
		coolingShare:        0.40,
		coolingReduction:    0.15,
		solarShare:          0.20,
		solarCostShare:      0.80,
		workstationLoad:     0.75,
		serverTrimShare:     0.10,
	}, nil
}

// Recommendations evaluates every rule against the current state and
// returns the results ordered from critical to low priority.
func (r *Recommender) Recommendations() []Recommendation {
	var recs []Recommendation
	if rec := r.shutdown(); rec != nil {
		recs = append(recs, *rec)
	}
	if rec := r.scheduling(); rec != nil {
		recs = append(recs, *rec)
	}
	recs = append(recs, r.consolidation()...)
	recs = append(recs, r.renewable())
	if rec := r.cooling(); rec != nil {
		recs = append(recs, *rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityOrder[recs[i].Priority] < priorityOrder[recs[j].Priority]
	})
	return recs
}

// Filter keeps recommendations of one category (all when empty) and caps the
// result at limit (no cap when limit <= 0).
func Filter(recs []Recommendation, category Category, limit int) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if category == "" || rec.Category == category {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TotalImpact sums the impact of recs
func TotalImpact(recs []Recommendation) Impact {
	var total Impact
	for _, rec := range recs {
		total = total.add(rec.Impact)
	}
	return total
}

func (r *Recommender) impactFromKWh(kwh float64) Impact {
	cfg := r.engine.Config()
	return Impact{
		EnergyKWh:   kwh,
		CO2Kg:       kwh * cfg.EmissionFactor,
		CostSavings: kwh * cfg.EnergyTariff,
	}
}

// idleWorkstationKWh is the yearly working-hours energy of idle workstations.
// An over-full state counts as zero idle.
func (r *Recommender) idleWorkstationKWh() (int, float64) {
	cfg := r.engine.Config()
	idle := max(r.engine.State().IdleWorkstations(cfg), 0)
	kwh := float64(idle) * cfg.AvgWorkstationWatts * engine.WorkingHoursPerDay * engine.WorkingDaysPerYear / 1000
	return idle, kwh
}

func (r *Recommender) shutdown() *Recommendation {
	idle, kwh := r.idleWorkstationKWh()
	if idle <= 0 {
		return nil
	}

	cfg := r.engine.Config()
	share := float64(idle) / float64(cfg.TotalWorkstations) * 100
	return &Recommendation{
		Title: "Automatically shut down idle workstations",
		Description: fmt.Sprintf("%d workstations (%.0f%% of the inventory) are not in use. "+
			"A shutdown policy outside working hours removes their draw entirely.", idle, share),
		Category:      Automation,
		Priority:      High,
		Impact:        r.impactFromKWh(kwh),
		Effort:        "Medium - group policy configuration",
		EstimatedTime: "2-3 weeks",
	}
}

func (r *Recommender) scheduling() *Recommendation {
	if len(r.datacenter.PeakHours) == 0 || r.datacenter.PeakMultiplier <= 1 {
		return nil
	}

	var dailyPeakKWh float64
	for _, h := range r.datacenter.PeakHours {
		dailyPeakKWh += r.engine.ConsumptionAt(h)
	}
	annualPeakKWh := dailyPeakKWh * engine.WorkingDaysPerYear
	extraCost := annualPeakKWh * r.engine.Config().EnergyTariff * (r.datacenter.PeakMultiplier - 1)

	return &Recommendation{
		Title: "Move heavy jobs out of peak tariff hours",
		Description: fmt.Sprintf("Backups, builds and batch reports running during peak hours pay %.0f%% more per kWh. "+
			"Scheduling them overnight keeps the same energy at the base tariff.", (r.datacenter.PeakMultiplier-1)*100),
		Category:      CostOptimization,
		Priority:      Medium,
		Impact:        Impact{CostSavings: extraCost},
		Effort:        "Low - adjust job schedules",
		EstimatedTime: "1 week",
	}
}

func (r *Recommender) consolidation() []Recommendation {
	var recs []Recommendation
	for _, s := range r.datacenter.Servers {
		if s.Count == 0 || s.Utilization >= r.serverUtilTarget {
			continue
		}
		kwh := float64(s.Count) * s.PowerWatts * (r.serverUtilTarget - s.Utilization) * engine.HoursPerYear / 1000
		recs = append(recs, Recommendation{
			Title: fmt.Sprintf("Consolidate workloads on %s", displayName(s)),
			Description: fmt.Sprintf("%d servers run at %.0f%% utilization. Packing VMs and containers onto fewer hosts "+
				"reduces the physical servers needed.", s.Count, s.Utilization*100),
			Category:      Infrastructure,
			Priority:      Medium,
			Impact:        r.impactFromKWh(kwh),
			Effort:        "High - workload migration planning",
			EstimatedTime: "2-3 months",
		})
	}
	return recs
}

func displayName(s models.ServerClass) string {
	if s.Model != "" {
		return s.Model
	}
	return s.Name
}

func (r *Recommender) renewable() Recommendation {
	cfg := r.engine.Config()
	demandKWh := float64(cfg.TotalWorkstations) * cfg.AvgWorkstationWatts * r.workstationLoad * engine.HoursPerYear / 1000
	solarKWh := demandKWh * r.solarShare

	return Recommendation{
		Title: "Install rooftop solar",
		Description: fmt.Sprintf("Photovoltaic panels can cover %.0f%% of workstation demand, "+
			"replacing grid energy with a %.2f kg CO2/kWh source.", r.solarShare*100, r.renewableFactor),
		Category: CarbonReduction,
		Priority: Low,
		Impact: Impact{
			EnergyKWh:   solarKWh,
			CO2Kg:       solarKWh * (cfg.EmissionFactor - r.renewableFactor),
			CostSavings: solarKWh * cfg.EnergyTariff * r.solarCostShare,
		},
		Effort:        "Very high - physical infrastructure investment",
		EstimatedTime: "6-12 months",
	}
}

func (r *Recommender) cooling() *Recommendation {
	serverKW := r.datacenter.RatedServerKW()
	if serverKW == 0 {
		return nil
	}
	kwh := serverKW * r.coolingShare * engine.HoursPerYear * r.coolingReduction

	return &Recommendation{
		Title: "Tune datacenter cooling",
		Description: fmt.Sprintf("Raising the supply air setpoint and separating hot and cold aisles "+
			"can cut cooling energy by up to %.0f%%.", r.coolingReduction*100),
		Category:      EnergySavings,
		Priority:      High,
		Impact:        r.impactFromKWh(kwh),
		Effort:        "Medium - setpoint changes and rack layout",
		EstimatedTime: "1-2 months",
	}
}

func (r *Recommendation) String() string {
	return fmt.Sprintf(
		"[%s] %s\n"+
			"  %s\n"+
			"  Category: %s | Effort: %s | Time: %s\n"+
			"  Savings: %.2f kWh, %.2f kg CO2, R$ %.2f per year",
		strings.ToUpper(string(r.Priority)),
		r.Title,
		r.Description,
		r.Category,
		r.Effort,
		r.EstimatedTime,
		r.Impact.EnergyKWh,
		r.Impact.CO2Kg,
		r.Impact.CostSavings,
	)
}
