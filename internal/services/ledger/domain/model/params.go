package model

// ProjectParams enumerates the project-wide cost line items.
type ProjectParams struct {
	TotalPurchase            float64 `json:"total_purchase" toml:"total_purchase" yaml:"total_purchase"`
	MesuresConservatoires    float64 `json:"mesures_conservatoires" toml:"mesures_conservatoires" yaml:"mesures_conservatoires"`
	Demolition               float64 `json:"demolition" toml:"demolition" yaml:"demolition"`
	Infrastructures          float64 `json:"infrastructures" toml:"infrastructures" yaml:"infrastructures"`
	EtudesPreparatoires      float64 `json:"etudes_preparatoires" toml:"etudes_preparatoires" yaml:"etudes_preparatoires"`
	FraisEtudesPreparatoires float64 `json:"frais_etudes_preparatoires" toml:"frais_etudes_preparatoires" yaml:"frais_etudes_preparatoires"`

	// FraisGeneraux3ans is a flat three-year overhead. When zero, the
	// overhead is FraisGenerauxRate percent of total construction.
	FraisGeneraux3ans float64 `json:"frais_generaux_3ans" toml:"frais_generaux_3ans" yaml:"frais_generaux_3ans"`
	FraisGenerauxRate float64 `json:"frais_generaux_rate" toml:"frais_generaux_rate" yaml:"frais_generaux_rate"`

	// Common building works, split equally across participants.
	BatimentFondationConservatoire float64 `json:"batiment_fondation_conservatoire" toml:"batiment_fondation_conservatoire" yaml:"batiment_fondation_conservatoire"`
	BatimentFondationComplete      float64 `json:"batiment_fondation_complete" toml:"batiment_fondation_complete" yaml:"batiment_fondation_complete"`
	BatimentCoproConservatoire     float64 `json:"batiment_copro_conservatoire" toml:"batiment_copro_conservatoire" yaml:"batiment_copro_conservatoire"`

	GlobalCascoPerM2 float64 `json:"global_casco_per_m2" toml:"global_casco_per_m2" yaml:"global_casco_per_m2"`

	// ExpenseCategories, when set, replaces the fixed line items
	// (conservatory measures, demolition, infrastructures).
	ExpenseCategories *ExpenseCategories `json:"expense_categories,omitempty" toml:"expense_categories" yaml:"expense_categories"`
}

// TravauxCommuns returns the total of the common building works.
func (p ProjectParams) TravauxCommuns() float64 {
	return p.BatimentFondationConservatoire + p.BatimentFondationComplete + p.BatimentCoproConservatoire
}

// ExpenseCategories groups itemised shared expenses by project stage.
type ExpenseCategories struct {
	Conservatoire        []ExpenseItem `json:"conservatoire" toml:"conservatoire" yaml:"conservatoire"`
	HabitabiliteSommaire []ExpenseItem `json:"habitabilite_sommaire" toml:"habitabilite_sommaire" yaml:"habitabilite_sommaire"`
	PremierTravaux       []ExpenseItem `json:"premier_travaux" toml:"premier_travaux" yaml:"premier_travaux"`
}

// Total sums every item across categories.
func (c ExpenseCategories) Total() float64 {
	var total float64
	for _, group := range [][]ExpenseItem{c.Conservatoire, c.HabitabiliteSommaire, c.PremierTravaux} {
		for _, item := range group {
			total += item.Amount
		}
	}
	return total
}

// ExpenseItem is one labelled shared expense.
type ExpenseItem struct {
	Label  string  `json:"label" toml:"label" yaml:"label"`
	Amount float64 `json:"amount" toml:"amount" yaml:"amount"`
}

// Scenario holds the percentage adjustments applied on top of ProjectParams.
type Scenario struct {
	ConstructionCostChange  float64 `json:"construction_cost_change" toml:"construction_cost_change" yaml:"construction_cost_change"`
	InfrastructureReduction float64 `json:"infrastructure_reduction" toml:"infrastructure_reduction" yaml:"infrastructure_reduction"`
	PurchasePriceReduction  float64 `json:"purchase_price_reduction" toml:"purchase_price_reduction" yaml:"purchase_price_reduction"`
}

// UnitCost carries the construction constants of one building unit.
type UnitCost struct {
	Casco          float64 `json:"casco" toml:"casco" yaml:"casco"`
	Parachevements float64 `json:"parachevements" toml:"parachevements" yaml:"parachevements"`
}

// UnitDetails maps a unit id to its construction constants.
type UnitDetails map[int]UnitCost
