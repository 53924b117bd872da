package allocation

import (
	"math"
	"reflect"
	"testing"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

func approx(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// fourFounders is the reference project: 472 m² bought for 650 000 €.
func fourFounders() ([]model.Participant, model.ProjectParams) {
	participants := []model.Participant{
		{Name: "Buyer A", Surface: 112, CapitalApporte: 50000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25, Quantity: 1, IsFounder: true, UnitID: 1},
		{Name: "Buyer B", Surface: 134, CapitalApporte: 170000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25, Quantity: 1, IsFounder: true, UnitID: 2},
		{Name: "Buyer C", Surface: 118, CapitalApporte: 200000, NotaryFeesRate: 3, InterestRate: 4, DurationYears: 25, Quantity: 1, IsFounder: true, UnitID: 3},
		{Name: "Buyer D", Surface: 108, CapitalApporte: 70000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25, Quantity: 1, IsFounder: true, UnitID: 4},
	}
	params := model.ProjectParams{
		TotalPurchase:                  650000,
		MesuresConservatoires:          20000,
		Demolition:                     40000,
		Infrastructures:                90000,
		EtudesPreparatoires:            15000,
		FraisEtudesPreparatoires:       10000,
		FraisGeneraux3ans:              198965.64,
		BatimentFondationConservatoire: 43700,
		BatimentFondationComplete:      269200,
		BatimentCoproConservatoire:     56000,
		GlobalCascoPerM2:               1590,
	}
	return participants, params
}

func TestCalculateReferenceScenario(t *testing.T) {
	participants, params := fourFounders()
	units := model.UnitDetails{1: {Casco: 178080, Parachevements: 56000}}

	results := Calculate(participants, params, model.Scenario{}, units)

	if results.TotalSurface != 472 {
		t.Fatalf("total surface = %v, want 472", results.TotalSurface)
	}
	if !approx(results.PricePerM2, 1377.12, 0.01) {
		t.Fatalf("price per m² = %.4f, want ≈1377.12", results.PricePerM2)
	}
	if !approx(results.TravauxCommunsPerUnit, 92225, 1e-9) {
		t.Fatalf("travaux communs per unit = %v, want 92225", results.TravauxCommunsPerUnit)
	}
	if !approx(results.SharedPerPerson, 93491.41, 0.01) {
		t.Fatalf("shared per person = %.2f, want ≈93491.41", results.SharedPerPerson)
	}

	a, ok := results.Participant("Buyer A")
	if !ok {
		t.Fatal("expected breakdown for Buyer A")
	}
	if !approx(a.ConstructionCost, 178080+56000+92225, 1e-6) {
		t.Fatalf("construction = %v, want %v", a.ConstructionCost, 178080+56000+92225)
	}
	if !approx(a.TotalCost, 593313.36, 0.01) {
		t.Fatalf("total cost = %.2f, want ≈593313.36", a.TotalCost)
	}
	if !approx(a.LoanNeeded, 543313.36, 0.01) {
		t.Fatalf("loan needed = %.2f, want ≈543313.36", a.LoanNeeded)
	}
	if !approx(a.MonthlyPayment, 3019.91, 0.01) {
		t.Fatalf("monthly payment = %.2f, want ≈3019.91", a.MonthlyPayment)
	}
	if !approx(a.TotalInterest, a.MonthlyPayment*300-a.LoanNeeded, 1e-6) {
		t.Fatalf("total interest = %v, want payment×months − principal", a.TotalInterest)
	}
}

func TestCalculateTotalsReconcile(t *testing.T) {
	participants, params := fourFounders()
	results := Calculate(participants, params, model.Scenario{ConstructionCostChange: 7, InfrastructureReduction: 20, PurchasePriceReduction: 5}, nil)

	tt := results.Totals
	sum := tt.Purchase + tt.TotalNotaryFees + tt.Construction + tt.Shared
	if !approx(tt.Total, sum, 1e-6) {
		t.Fatalf("total = %v, want purchase+notary+construction+shared = %v", tt.Total, sum)
	}
	if !approx(tt.Purchase, 650000*0.95, 1e-6) {
		t.Fatalf("purchase total = %v, want reduced purchase %v", tt.Purchase, 650000*0.95)
	}
	if !approx(tt.Shared, results.SharedCosts, 1e-6) {
		t.Fatalf("shared total = %v, want %v", tt.Shared, results.SharedCosts)
	}
	if !approx(tt.TotalLoansNeeded, tt.Total-tt.CapitalTotal, 1e-6) {
		t.Fatalf("loans = %v, want total − capital = %v", tt.TotalLoansNeeded, tt.Total-tt.CapitalTotal)
	}
}

func TestCalculateNotaryRateIsPerParticipant(t *testing.T) {
	participants, params := fourFounders()
	results := Calculate(participants, params, model.Scenario{}, nil)

	c, _ := results.Participant("Buyer C")
	if !approx(c.NotaryFees, c.PurchaseShare*0.03, 1e-9) {
		t.Fatalf("notary fees = %v, want 3%% of %v", c.NotaryFees, c.PurchaseShare)
	}
	b, _ := results.Participant("Buyer B")
	if !approx(b.NotaryFees, b.PurchaseShare*0.125, 1e-9) {
		t.Fatalf("notary fees = %v, want 12.5%% of %v", b.NotaryFees, b.PurchaseShare)
	}
}

func TestCalculateSharedCostsSplitEquallyNotBySurface(t *testing.T) {
	participants, params := fourFounders()
	results := Calculate(participants, params, model.Scenario{}, nil)
	for _, p := range results.ParticipantBreakdown {
		if !approx(p.SharedCosts, results.SharedPerPerson, 1e-9) {
			t.Fatalf("%s shared = %v, want %v", p.Name, p.SharedCosts, results.SharedPerPerson)
		}
	}
}

func TestCalculateQuantityMultipliesPurchaseAndConstruction(t *testing.T) {
	participants, params := fourFounders()
	participants[0].Quantity = 2
	results := Calculate(participants, params, model.Scenario{}, nil)

	if results.TotalSurface != 472+112 {
		t.Fatalf("weighted surface = %v, want %v", results.TotalSurface, 472+112)
	}
	a, _ := results.Participant("Buyer A")
	if !approx(a.PurchaseShare, 112*results.PricePerM2*2, 1e-6) {
		t.Fatalf("purchase = %v, want two lots", a.PurchaseShare)
	}
	if !approx(a.ConstructionCost, a.ConstructionPerUnit*2, 1e-6) {
		t.Fatalf("construction = %v, want two units", a.ConstructionCost)
	}
}

func TestCalculateConstructionChangeAppliesToUnitCostsOnly(t *testing.T) {
	participants, params := fourFounders()
	base := Calculate(participants, params, model.Scenario{}, nil)
	raised := Calculate(participants, params, model.Scenario{ConstructionCostChange: 10}, nil)

	a0, _ := base.Participant("Buyer A")
	a1, _ := raised.Participant("Buyer A")
	want := (a0.Casco+a0.Parachevements)*1.1 + a0.TravauxCommunsShare
	if !approx(a1.ConstructionCost, want, 1e-6) {
		t.Fatalf("construction = %v, want %v", a1.ConstructionCost, want)
	}
}

func TestUnitConstructionFallbacksAndOverrides(t *testing.T) {
	params := model.ProjectParams{GlobalCascoPerM2: 1590}
	units := model.UnitDetails{5: {Casco: 100000, Parachevements: 30000}}

	casco, finishing := UnitConstruction(model.Participant{Surface: 100, UnitID: 99}, params, units)
	if casco != 159000 || finishing != 50000 {
		t.Fatalf("fallback = (%v, %v), want (159000, 50000)", casco, finishing)
	}

	casco, finishing = UnitConstruction(model.Participant{Surface: 100, UnitID: 5}, params, units)
	if casco != 100000 || finishing != 30000 {
		t.Fatalf("unit lookup = (%v, %v), want (100000, 30000)", casco, finishing)
	}

	casco, finishing = UnitConstruction(model.Participant{Surface: 100, UnitID: 5, CascoOverride: 120000, ParachevementsPerM2: 200}, params, units)
	if casco != 120000 || finishing != 20000 {
		t.Fatalf("overrides = (%v, %v), want (120000, 20000)", casco, finishing)
	}
}

func TestSharedCostsInfrastructureReductionAndCategories(t *testing.T) {
	params := model.ProjectParams{
		MesuresConservatoires:    1000,
		Demolition:               2000,
		Infrastructures:          10000,
		EtudesPreparatoires:      300,
		FraisEtudesPreparatoires: 200,
	}
	if got := SharedCosts(params, model.Scenario{InfrastructureReduction: 25}); got != 1000+2000+7500+500 {
		t.Fatalf("SharedCosts() = %v, want %v", got, 1000+2000+7500+500)
	}

	params.ExpenseCategories = &model.ExpenseCategories{
		Conservatoire: []model.ExpenseItem{{Label: "toiture", Amount: 4000}},
	}
	if got := SharedCosts(params, model.Scenario{InfrastructureReduction: 25}); got != 4000+500 {
		t.Fatalf("SharedCosts() with categories = %v, want %v", got, 4500)
	}
}

func TestFraisGenerauxDefaultsToRateOfConstruction(t *testing.T) {
	if got := FraisGeneraux(model.ProjectParams{}, 1000000); !approx(got, 101000, 1e-6) {
		t.Fatalf("FraisGeneraux() = %v, want 101000", got)
	}
	if got := FraisGeneraux(model.ProjectParams{FraisGenerauxRate: 15}, 1000000); !approx(got, 150000, 1e-6) {
		t.Fatalf("FraisGeneraux() = %v, want 150000", got)
	}
	if got := FraisGeneraux(model.ProjectParams{FraisGeneraux3ans: 42}, 1000000); got != 42 {
		t.Fatalf("FraisGeneraux() = %v, want flat 42", got)
	}
}

func TestCalculateLoanNotClampedWhenCapitalExceedsCost(t *testing.T) {
	participants, params := fourFounders()
	participants[2].CapitalApporte = 2000000
	results := Calculate(participants, params, model.Scenario{}, nil)

	c, _ := results.Participant("Buyer C")
	if c.LoanNeeded >= 0 {
		t.Fatalf("loan needed = %v, want negative", c.LoanNeeded)
	}
	if c.MonthlyPayment != 0 {
		t.Fatalf("monthly payment = %v, want 0 for negative loan", c.MonthlyPayment)
	}
	if c.FinancingRatio >= 0 {
		t.Fatalf("financing ratio = %v, want negative (not clamped)", c.FinancingRatio)
	}
}

func TestCalculateZeroSurfaceAndEmptyInput(t *testing.T) {
	results := Calculate(nil, model.ProjectParams{TotalPurchase: 650000}, model.Scenario{}, nil)
	if results.PricePerM2 != 0 || results.SharedPerPerson != 0 || len(results.ParticipantBreakdown) != 0 {
		t.Fatalf("empty input results = %+v, want zeros", results)
	}

	zero := []model.Participant{{Name: "Ghost", Surface: 0, InterestRate: 4, DurationYears: 20}}
	results = Calculate(zero, model.ProjectParams{TotalPurchase: 650000}, model.Scenario{}, nil)
	g, _ := results.Participant("Ghost")
	for _, v := range []float64{results.PricePerM2, g.PurchaseShare, g.NotaryFees, g.TotalCost, g.MonthlyPayment} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("expected finite values, got %+v", g)
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	participants, params := fourFounders()
	first := Calculate(participants, params, model.Scenario{ConstructionCostChange: 3}, nil)
	second := Calculate(participants, params, model.Scenario{ConstructionCostChange: 3}, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical results for identical inputs")
	}
}
