package model

// PriceBreakdown itemises a resale price.
type PriceBreakdown struct {
	BasePrice            float64 `json:"base_price"`
	Indexation           float64 `json:"indexation"`
	CarryingCostRecovery float64 `json:"carrying_cost_recovery"`
	FeesRecovery         float64 `json:"fees_recovery"`
	RenovationRecovery   float64 `json:"renovation_recovery"`
	Total                float64 `json:"total"`
}

// Share is one recipient's cut of redistributed sale proceeds.
type Share struct {
	ParticipantName string  `json:"participant_name"`
	Quotite         float64 `json:"quotite"`
	Amount          float64 `json:"amount"`
}
