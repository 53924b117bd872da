package model

import "time"

// AverageMonthDays is the month length used to turn elapsed time into
// fractional months.
const AverageMonthDays = 30.44

// MonthsBetween returns the fractional months from start to end. It is
// negative when end is before start.
func MonthsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / AverageMonthDays
}

// YearsBetween returns MonthsBetween in years.
func YearsBetween(start, end time.Time) float64 {
	return MonthsBetween(start, end) / 12
}
