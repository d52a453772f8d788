package engine

import (
	"fmt"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// HourlyTrend returns the workstation consumption for each hour of the day.
// Like WeeklyTrend it uses the full workstation inventory and leaves servers
// out, so the two trends share one basis. It does not depend on the current
// operational state.
func (e *Engine) HourlyTrend() *models.Trend {
	points := make([]models.TrendPoint, 0, HoursPerDay)
	for hour := 0; hour < HoursPerDay; hour++ {
		kwh := float64(e.cfg.TotalWorkstations) * e.cfg.AvgWorkstationWatts * UsageFactor(hour) / 1000
		points = append(points, models.TrendPoint{
			Label:          fmt.Sprintf("%02d:00", hour),
			Index:          hour,
			Utilization:    UsageFactor(hour),
			ConsumptionKWh: kwh,
			CO2Kg:          kwh * e.cfg.EmissionFactor,
			Cost:           kwh * e.cfg.EnergyTariff,
		})
	}

	return summarize("day", points)
}

// WeeklyTrend returns a daily consumption estimate for a week, using the
// full workstation inventory with a lower utilization on weekends.
func (e *Engine) WeeklyTrend() *models.Trend {
	points := make([]models.TrendPoint, 0, len(weekdays))
	for day, name := range weekdays {
		utilization := WeekdayUtilization
		if day >= 5 {
			utilization = WeekendUtilization
		}

		kwh := float64(e.cfg.TotalWorkstations) * e.cfg.AvgWorkstationWatts * utilization * HoursPerDay / 1000
		points = append(points, models.TrendPoint{
			Label:          name,
			Index:          day,
			Utilization:    utilization,
			ConsumptionKWh: kwh,
			CO2Kg:          kwh * e.cfg.EmissionFactor,
			Cost:           kwh * e.cfg.EnergyTariff,
		})
	}

	return summarize("week", points)
}

// Trend dispatches on the period name
func (e *Engine) Trend(period string) (*models.Trend, error) {
	switch period {
	case "", "day":
		return e.HourlyTrend(), nil
	case "week":
		return e.WeeklyTrend(), nil
	default:
		return nil, fmt.Errorf("invalid period %q: use day or week", period)
	}
}

func summarize(period string, points []models.TrendPoint) *models.Trend {
	trend := &models.Trend{
		Period: period,
		Points: points,
	}
	if len(points) == 0 {
		return trend
	}

	peak, lowest := points[0], points[0]
	for _, p := range points {
		trend.TotalKWh += p.ConsumptionKWh
		if p.ConsumptionKWh > peak.ConsumptionKWh {
			peak = p
		}
		if p.ConsumptionKWh < lowest.ConsumptionKWh {
			lowest = p
		}
	}
	trend.PeakIndex = peak.Index
	trend.LowestIndex = lowest.Index
	trend.AverageKWh = trend.TotalKWh / float64(len(points))

	return trend
}

// SectorBreakdown splits the workstation load across sectors at the current
// hour's usage factor.
func (e *Engine) SectorBreakdown(sectors []models.Sector) []models.SectorConsumption {
	factor := UsageFactor(e.now().Hour())

	result := make([]models.SectorConsumption, 0, len(sectors))
	for _, s := range sectors {
		kw := float64(s.Workstations) * e.cfg.AvgWorkstationWatts * factor / 1000
		annual := kw * HoursPerYear
		result = append(result, models.SectorConsumption{
			Name:                 s.Name,
			Workstations:         s.Workstations,
			Utilization:          s.Utilization,
			ConsumptionKW:        kw,
			AnnualConsumptionKWh: annual,
			AnnualCO2Kg:          annual * e.cfg.EmissionFactor,
		})
	}
	return result
}
