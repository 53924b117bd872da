// Package amortization computes fixed-rate annuity schedules.
package amortization

import "math"

// MonthlyPayment returns the fixed monthly payment (PMT) that repays
// principal over years×12 months at annualRatePercent. Non-positive
// principals and durations yield 0; a zero rate spreads the principal evenly.
func MonthlyPayment(principal, annualRatePercent float64, years int) float64 {
	months := years * 12
	if principal <= 0 || months <= 0 {
		return 0
	}
	monthlyRate := annualRatePercent / 100 / 12
	if monthlyRate == 0 {
		return principal / float64(months)
	}
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(months)))
}

// TotalInterest returns the interest paid over the life of the loan:
// payment × months − principal. Loans that need no payment cost no interest.
func TotalInterest(principal, annualRatePercent float64, years int) float64 {
	payment := MonthlyPayment(principal, annualRatePercent, years)
	if payment == 0 {
		return 0
	}
	return payment*float64(years*12) - principal
}

// Schedule summarises an annuity loan.
type Schedule struct {
	Principal      float64
	Months         int
	MonthlyPayment float64
	TotalRepayment float64
	TotalInterest  float64
}

// NewSchedule builds the summary for a loan.
func NewSchedule(principal, annualRatePercent float64, years int) Schedule {
	payment := MonthlyPayment(principal, annualRatePercent, years)
	months := years * 12
	s := Schedule{Principal: principal, Months: months, MonthlyPayment: payment}
	if payment > 0 {
		s.TotalRepayment = payment * float64(months)
		s.TotalInterest = s.TotalRepayment - principal
	}
	return s
}
