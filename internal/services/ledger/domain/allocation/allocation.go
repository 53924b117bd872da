package allocation

import (
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/amortization"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

const (
	// DefaultParachevementsPerM2 prices finishing work when the unit has no
	// explicit amount.
	DefaultParachevementsPerM2 = 500.0
	// DefaultFraisGenerauxRate is the three-year overhead, in percent of total
	// construction, used when no flat amount is configured.
	DefaultFraisGenerauxRate = 10.1
)

// ParticipantCost is one participant's share of the project.
type ParticipantCost struct {
	Name     string
	UnitID   int
	Surface  float64
	Quantity int

	PricePerM2    float64
	PurchaseShare float64
	NotaryFees    float64

	Casco               float64
	Parachevements      float64
	TravauxCommunsShare float64
	ConstructionCost    float64
	ConstructionPerUnit float64
	SharedCosts         float64
	TotalCost           float64
	CapitalApporte      float64
	LoanNeeded          float64
	FinancingRatio      float64
	InterestRate        float64
	DurationYears       int
	MonthlyPayment      float64
	TotalRepayment      float64
	TotalInterest       float64
}

// Totals aggregates every participant's costs.
type Totals struct {
	Purchase         float64
	TotalNotaryFees  float64
	Construction     float64
	Shared           float64
	Total            float64
	CapitalTotal     float64
	TotalLoansNeeded float64
	AverageLoan      float64
	AverageCapital   float64
}

// Results is the financial snapshot of a participant list.
type Results struct {
	TotalSurface          float64
	PricePerM2            float64
	SharedCosts           float64
	SharedPerPerson       float64
	TravauxCommuns        float64
	TravauxCommunsPerUnit float64
	FraisGeneraux3ans     float64
	ParticipantBreakdown  []ParticipantCost
	Totals                Totals
}

// Participant returns the breakdown for the named participant.
func (r Results) Participant(name string) (ParticipantCost, bool) {
	for _, p := range r.ParticipantBreakdown {
		if p.Name == name {
			return p, true
		}
	}
	return ParticipantCost{}, false
}

// Calculate allocates the project's costs across participants.
func Calculate(participants []model.Participant, params model.ProjectParams, scenario model.Scenario, units model.UnitDetails) Results {
	count := len(participants)
	results := Results{
		TotalSurface:   TotalSurface(participants),
		TravauxCommuns: params.TravauxCommuns(),
	}
	results.PricePerM2 = PricePerM2(params, scenario, results.TotalSurface)
	if count > 0 {
		results.TravauxCommunsPerUnit = results.TravauxCommuns / float64(count)
	}

	breakdown := make([]ParticipantCost, 0, count)
	var totalConstruction float64
	for _, p := range participants {
		cost := baseCost(p, results.PricePerM2, results.TravauxCommunsPerUnit, scenario, params, units)
		totalConstruction += cost.ConstructionCost
		breakdown = append(breakdown, cost)
	}

	results.FraisGeneraux3ans = FraisGeneraux(params, totalConstruction)
	results.SharedCosts = SharedCosts(params, scenario) + results.FraisGeneraux3ans
	if count > 0 {
		results.SharedPerPerson = results.SharedCosts / float64(count)
	}

	for i := range breakdown {
		finish(&breakdown[i], results.SharedPerPerson)
	}
	results.ParticipantBreakdown = breakdown
	results.Totals = totals(breakdown)
	return results
}

// TotalSurface returns the quantity-weighted surface of all participants.
func TotalSurface(participants []model.Participant) float64 {
	var total float64
	for _, p := range participants {
		total += p.Surface * float64(p.EffectiveQuantity())
	}
	return total
}

// PricePerM2 divides the reduced purchase price by the weighted surface.
func PricePerM2(params model.ProjectParams, scenario model.Scenario, totalSurface float64) float64 {
	if totalSurface <= 0 {
		return 0
	}
	return AdjustedPurchase(params, scenario) / totalSurface
}

// AdjustedPurchase applies the purchase-price reduction.
func AdjustedPurchase(params model.ProjectParams, scenario model.Scenario) float64 {
	return params.TotalPurchase * (1 - scenario.PurchasePriceReduction/100)
}

// SharedCosts returns the shared line items excluding the three-year
// overhead, which depends on construction and is added by Calculate.
func SharedCosts(params model.ProjectParams, scenario model.Scenario) float64 {
	studies := params.EtudesPreparatoires + params.FraisEtudesPreparatoires
	if params.ExpenseCategories != nil {
		return params.ExpenseCategories.Total() + studies
	}
	infrastructures := params.Infrastructures * (1 - scenario.InfrastructureReduction/100)
	return params.MesuresConservatoires + params.Demolition + infrastructures + studies
}

// FraisGeneraux returns the three-year overhead: the flat amount when set,
// otherwise a rate of the total construction cost (common works included).
func FraisGeneraux(params model.ProjectParams, totalConstruction float64) float64 {
	if params.FraisGeneraux3ans > 0 {
		return params.FraisGeneraux3ans
	}
	rate := params.FraisGenerauxRate
	if rate <= 0 {
		rate = DefaultFraisGenerauxRate
	}
	return totalConstruction * rate / 100
}

// UnitConstruction returns the CASCO and finishing amounts for a participant.
// Unknown units fall back to per-m² defaults; participant overrides win.
func UnitConstruction(p model.Participant, params model.ProjectParams, units model.UnitDetails) (casco, parachevements float64) {
	unit, ok := units[p.UnitID]
	if ok {
		casco = unit.Casco
		parachevements = unit.Parachevements
	} else {
		casco = p.Surface * params.GlobalCascoPerM2
		parachevements = p.Surface * DefaultParachevementsPerM2
	}
	if p.CascoOverride > 0 {
		casco = p.CascoOverride
	}
	if p.ParachevementsPerM2 > 0 {
		parachevements = p.Surface * p.ParachevementsPerM2
	}
	return casco, parachevements
}

func baseCost(p model.Participant, pricePerM2, travauxPerUnit float64, scenario model.Scenario, params model.ProjectParams, units model.UnitDetails) ParticipantCost {
	quantity := float64(p.EffectiveQuantity())
	casco, parachevements := UnitConstruction(p, params, units)
	perUnit := (casco+parachevements)*(1+scenario.ConstructionCostChange/100) + travauxPerUnit

	purchase := p.Surface * pricePerM2 * quantity
	return ParticipantCost{
		Name:                p.Name,
		UnitID:              p.UnitID,
		Surface:             p.Surface,
		Quantity:            p.EffectiveQuantity(),
		PricePerM2:          pricePerM2,
		PurchaseShare:       purchase,
		NotaryFees:          purchase * p.NotaryFeesRate / 100,
		Casco:               casco,
		Parachevements:      parachevements,
		TravauxCommunsShare: travauxPerUnit,
		ConstructionPerUnit: perUnit,
		ConstructionCost:    perUnit * quantity,
		CapitalApporte:      p.CapitalApporte,
		InterestRate:        p.InterestRate,
		DurationYears:       p.DurationYears,
	}
}

func finish(cost *ParticipantCost, sharedPerPerson float64) {
	cost.SharedCosts = sharedPerPerson
	cost.TotalCost = cost.PurchaseShare + cost.NotaryFees + cost.ConstructionCost + sharedPerPerson
	cost.LoanNeeded = cost.TotalCost - cost.CapitalApporte
	if cost.TotalCost != 0 {
		cost.FinancingRatio = cost.LoanNeeded / cost.TotalCost * 100
	}
	schedule := amortization.NewSchedule(cost.LoanNeeded, cost.InterestRate, cost.DurationYears)
	cost.MonthlyPayment = schedule.MonthlyPayment
	cost.TotalRepayment = schedule.TotalRepayment
	cost.TotalInterest = schedule.TotalInterest
}

func totals(breakdown []ParticipantCost) Totals {
	var t Totals
	for _, c := range breakdown {
		t.Purchase += c.PurchaseShare
		t.TotalNotaryFees += c.NotaryFees
		t.Construction += c.ConstructionCost
		t.Shared += c.SharedCosts
		t.Total += c.TotalCost
		t.CapitalTotal += c.CapitalApporte
		t.TotalLoansNeeded += c.LoanNeeded
	}
	if n := len(breakdown); n > 0 {
		t.AverageLoan = t.TotalLoansNeeded / float64(n)
		t.AverageCapital = t.CapitalTotal / float64(n)
	}
	return t
}
