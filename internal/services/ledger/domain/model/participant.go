package model

import "time"

// Participant is a co-owner of the project. Name is the unique key within a
// ledger state.
type Participant struct {
	Name           string    `json:"name" toml:"name" yaml:"name"`
	Surface        float64   `json:"surface" toml:"surface" yaml:"surface"`
	CapitalApporte float64   `json:"capital_apporte" toml:"capital_apporte" yaml:"capital_apporte"`
	NotaryFeesRate float64   `json:"notary_fees_rate" toml:"notary_fees_rate" yaml:"notary_fees_rate"`
	InterestRate   float64   `json:"interest_rate" toml:"interest_rate" yaml:"interest_rate"`
	DurationYears  int       `json:"duration_years" toml:"duration_years" yaml:"duration_years"`
	Quantity       int       `json:"quantity" toml:"quantity" yaml:"quantity"`
	IsFounder      bool      `json:"is_founder" toml:"is_founder" yaml:"is_founder"`
	EntryDate      time.Time `json:"entry_date" toml:"entry_date" yaml:"entry_date"`
	UnitID         int       `json:"unit_id,omitempty" toml:"unit_id" yaml:"unit_id"`
	LotsOwned      []Lot     `json:"lots_owned,omitempty" toml:"lots_owned" yaml:"lots_owned"`

	// CascoOverride replaces the unit's CASCO amount when > 0.
	CascoOverride float64 `json:"casco_override,omitempty" toml:"casco_override" yaml:"casco_override"`
	// ParachevementsPerM2 replaces the unit's finishing amount with
	// surface × rate when > 0.
	ParachevementsPerM2 float64 `json:"parachevements_per_m2,omitempty" toml:"parachevements_per_m2" yaml:"parachevements_per_m2"`

	PurchaseDetails *PurchaseDetails `json:"purchase_details,omitempty" toml:"purchase_details" yaml:"purchase_details"`
}

// PurchaseDetails records how a non-founder acquired their lot.
type PurchaseDetails struct {
	BuyingFrom    string  `json:"buying_from" toml:"buying_from" yaml:"buying_from"`
	LotID         int     `json:"lot_id" toml:"lot_id" yaml:"lot_id"`
	PurchasePrice float64 `json:"purchase_price" toml:"purchase_price" yaml:"purchase_price"`
}

// Clone returns a copy that shares no mutable memory with p.
func (p Participant) Clone() Participant {
	out := p
	if p.LotsOwned != nil {
		out.LotsOwned = make([]Lot, len(p.LotsOwned))
		for i, lot := range p.LotsOwned {
			out.LotsOwned[i] = lot.Clone()
		}
	}
	if p.PurchaseDetails != nil {
		details := *p.PurchaseDetails
		out.PurchaseDetails = &details
	}
	return out
}

// EffectiveQuantity returns the number of lots held, treating an unset
// quantity as one.
func (p Participant) EffectiveQuantity() int {
	if p.Quantity < 1 {
		return 1
	}
	return p.Quantity
}

// Lot returns the lot with the given id from the participant's holdings.
func (p Participant) Lot(lotID int) (Lot, bool) {
	for _, lot := range p.LotsOwned {
		if lot.LotID == lotID {
			return lot, true
		}
	}
	return Lot{}, false
}

// Lot is a unit of the building held by a participant.
type Lot struct {
	LotID        int        `json:"lot_id" toml:"lot_id" yaml:"lot_id"`
	Surface      float64    `json:"surface" toml:"surface" yaml:"surface"`
	UnitID       int        `json:"unit_id" toml:"unit_id" yaml:"unit_id"`
	IsPortage    bool       `json:"is_portage" toml:"is_portage" yaml:"is_portage"`
	AcquiredDate time.Time  `json:"acquired_date" toml:"acquired_date" yaml:"acquired_date"`
	SoldDate     *time.Time `json:"sold_date,omitempty" toml:"sold_date" yaml:"sold_date"`

	// Original acquisition costs, needed to price a later resale.
	OriginalPrice            float64 `json:"original_price,omitempty" toml:"original_price" yaml:"original_price"`
	OriginalNotaryFees       float64 `json:"original_notary_fees,omitempty" toml:"original_notary_fees" yaml:"original_notary_fees"`
	OriginalConstructionCost float64 `json:"original_construction_cost,omitempty" toml:"original_construction_cost" yaml:"original_construction_cost"`
}

// Clone returns a copy that shares no mutable memory with l.
func (l Lot) Clone() Lot {
	out := l
	if l.SoldDate != nil {
		sold := *l.SoldDate
		out.SoldDate = &sold
	}
	return out
}

// Sold reports whether the lot has left its holder.
func (l Lot) Sold() bool {
	return l.SoldDate != nil
}

// CoproLot is a lot held by the copropriété on behalf of all co-owners.
type CoproLot struct {
	LotID        int        `json:"lot_id" toml:"lot_id" yaml:"lot_id"`
	Surface      float64    `json:"surface" toml:"surface" yaml:"surface"`
	AcquiredDate time.Time  `json:"acquired_date" toml:"acquired_date" yaml:"acquired_date"`
	SoldDate     *time.Time `json:"sold_date,omitempty" toml:"sold_date" yaml:"sold_date"`
}

// Clone returns a copy that shares no mutable memory with l.
func (l CoproLot) Clone() CoproLot {
	out := l
	if l.SoldDate != nil {
		sold := *l.SoldDate
		out.SoldDate = &sold
	}
	return out
}
