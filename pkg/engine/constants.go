package engine

// Usage factors by time-of-day band
const (
	BusinessHoursFactor = 0.8 // 08:00-18:59
	EveningFactor       = 0.4 // 19:00-22:59
	NightFactor         = 0.2 // 23:00-07:59

	businessStart = 8
	businessEnd   = 18
	eveningStart  = 19
	eveningEnd    = 22
)

// Server draw is flat and ignores the usage factor.
const ServerWatts = 400.0

const (
	HoursPerDay  = 24
	DaysPerYear  = 365
	HoursPerYear = HoursPerDay * DaysPerYear

	// Idle workstations are assumed powered for a working day of 8h,
	// 250 working days a year.
	WorkingHoursPerDay = 8
	WorkingDaysPerYear = 250
)

// Weekly utilization used by the 7-day trend
const (
	WeekdayUtilization = 0.75
	WeekendUtilization = 0.30
)
