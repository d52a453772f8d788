package models

// TrendPoint is one bucket of a consumption trend
type TrendPoint struct {
	Label          string  `json:"label"`
	Index          int     `json:"index"` // hour of day or day of week
	Utilization    float64 `json:"utilization"`
	ConsumptionKWh float64 `json:"consumption_kwh"`
	CO2Kg          float64 `json:"co2_kg"`
	Cost           float64 `json:"cost"`
}

// Trend is a consumption series over a period
type Trend struct {
	Period      string       `json:"period"` // day, week
	Points      []TrendPoint `json:"points"`
	PeakIndex   int          `json:"peak_index"`
	LowestIndex int          `json:"lowest_index"`
	TotalKWh    float64      `json:"total_kwh"`
	AverageKWh  float64      `json:"average_kwh"`
}

// SectorConsumption is the share of workstation load owned by a sector
type SectorConsumption struct {
	Name                 string  `json:"name"`
	Workstations         int     `json:"workstations"`
	Utilization          float64 `json:"utilization"`
	ConsumptionKW        float64 `json:"consumption_kw"`
	AnnualConsumptionKWh float64 `json:"annual_consumption_kwh"`
	AnnualCO2Kg          float64 `json:"annual_co2_kg"`
}
