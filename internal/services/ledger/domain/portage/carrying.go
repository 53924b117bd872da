package portage

import (
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

const (
	// AnnualPropertyTax is the yearly tax on an empty property.
	AnnualPropertyTax = 388.38
	// AnnualInsurance is the building insurance, split across participants.
	AnnualInsurance = 2000.0
)

// CarryingCostInput describes a lot being carried.
type CarryingCostInput struct {
	LotValue         float64
	Capital          float64
	InterestRate     float64 // percent per year
	Months           float64
	ParticipantCount int
}

// CarryingCost is the monthly cost of holding a lot and its total over the
// carrying period.
type CarryingCost struct {
	MonthlyInterest  float64
	MonthlyTax       float64
	MonthlyInsurance float64
	TotalMonthly     float64
	TotalForPeriod   float64
}

// CarryingCosts computes the cost of carrying a lot. Interest is charged on
// the financed part only (interest-only loan).
func CarryingCosts(in CarryingCostInput) CarryingCost {
	var cost CarryingCost
	if financed := in.LotValue - in.Capital; financed > 0 {
		cost.MonthlyInterest = financed * in.InterestRate / 100 / 12
	}
	cost.MonthlyTax = AnnualPropertyTax / 12
	cost.MonthlyInsurance = MonthlyInsuranceShare(in.ParticipantCount)
	cost.TotalMonthly = cost.MonthlyInterest + cost.MonthlyTax + cost.MonthlyInsurance
	if in.Months > 0 {
		cost.TotalForPeriod = cost.TotalMonthly * in.Months
	}
	return cost
}

// MonthlyInsuranceShare is one participant's monthly share of the building
// insurance. A count below one is treated as one.
func MonthlyInsuranceShare(participantCount int) float64 {
	if participantCount < 1 {
		participantCount = 1
	}
	return AnnualInsurance / 12 / float64(participantCount)
}

// MonthlyPropertyTax is the monthly share of the empty-property tax.
func MonthlyPropertyTax() float64 {
	return AnnualPropertyTax / 12
}

// CarryingForLot builds the carrying input of a lot held by carrier until
// the given date. A carried lot is fully financed at the carrier's rate.
func CarryingForLot(lot model.Lot, carrier model.Participant, until time.Time, participantCount int) CarryingCostInput {
	months := model.MonthsBetween(lot.AcquiredDate, until)
	if months < 0 {
		months = 0
	}
	return CarryingCostInput{
		LotValue:         lot.OriginalPrice,
		InterestRate:     carrier.InterestRate,
		Months:           months,
		ParticipantCount: participantCount,
	}
}
