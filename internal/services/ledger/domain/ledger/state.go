package ledger

import (
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Counterparties that are not participants.
const (
	PartyCopro  = "COPRO"
	PartyNotary = "NOTARY"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionLotSale        TransactionType = "LOT_SALE"
	TransactionNotaryFees     TransactionType = "NOTARY_FEES"
	TransactionRedistribution TransactionType = "REDISTRIBUTION"
)

// Settlement is the portage metadata carried by a settlement sale.
type Settlement struct {
	CarryingCosts        float64 `json:"carrying_costs"`
	CarryingPeriodMonths float64 `json:"carrying_period_months"`
	NetPosition          float64 `json:"net_position"`
}

// Transaction is an immutable money movement recorded by an event.
type Transaction struct {
	EventID    string                `json:"event_id"`
	Type       TransactionType       `json:"type"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Amount     float64               `json:"amount"`
	Date       time.Time             `json:"date"`
	LotID      int                   `json:"lot_id,omitempty"`
	Breakdown  *model.PriceBreakdown `json:"breakdown,omitempty"`
	Quotite    float64               `json:"quotite,omitempty"`
	Settlement *Settlement           `json:"settlement,omitempty"`
}

// Loan is a loan contracted by the copropriété.
type Loan struct {
	EventID          string    `json:"event_id"`
	Amount           float64   `json:"amount"`
	InterestRate     float64   `json:"interest_rate"`
	DurationYears    int       `json:"duration_years"`
	MonthlyPayment   float64   `json:"monthly_payment"`
	RemainingBalance float64   `json:"remaining_balance"`
	StartDate        time.Time `json:"start_date"`
	Purpose          string    `json:"purpose,omitempty"`
}

// MonthlyObligations are the copropriété's recurring charges.
// Only loans create recurring copro charges.
type MonthlyObligations struct {
	LoanPayments float64 `json:"loan_payments"`
}

// Total sums every obligation.
func (o MonthlyObligations) Total() float64 {
	return o.LoanPayments
}

// Copro is the copropriété entity.
type Copro struct {
	Name               string             `json:"name"`
	LotsOwned          []model.CoproLot   `json:"lots_owned"`
	CashReserve        float64            `json:"cash_reserve"`
	Loans              []Loan             `json:"loans"`
	MonthlyObligations MonthlyObligations `json:"monthly_obligations"`
}

// Lot returns the copropriété lot with the given id.
func (c Copro) Lot(lotID int) (model.CoproLot, bool) {
	for _, lot := range c.LotsOwned {
		if lot.LotID == lotID {
			return lot, true
		}
	}
	return model.CoproLot{}, false
}

// TotalSurface sums the surface of the copropriété's unsold lots.
func (c Copro) TotalSurface() float64 {
	var total float64
	for _, lot := range c.LotsOwned {
		if lot.SoldDate == nil {
			total += lot.Surface
		}
	}
	return total
}

// State is the co-ownership as of CurrentDate. TransactionHistory holds the
// entries recorded since the history was last reset.
type State struct {
	CurrentDate        time.Time           `json:"current_date"`
	Participants       []model.Participant `json:"participants"`
	Copro              Copro               `json:"copro"`
	ProjectParams      model.ProjectParams `json:"project_params"`
	Scenario           model.Scenario      `json:"scenario"`
	TransactionHistory []Transaction       `json:"transaction_history"`
}

// Participant returns the participant with the given name.
func (s State) Participant(name string) (model.Participant, bool) {
	if i := s.participantIndex(name); i >= 0 {
		return s.Participants[i], true
	}
	return model.Participant{}, false
}

func (s State) participantIndex(name string) int {
	for i, p := range s.Participants {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.Participants != nil {
		out.Participants = make([]model.Participant, len(s.Participants))
		for i, p := range s.Participants {
			out.Participants[i] = p.Clone()
		}
	}
	out.Copro = s.Copro.clone()
	if s.ProjectParams.ExpenseCategories != nil {
		categories := cloneCategories(*s.ProjectParams.ExpenseCategories)
		out.ProjectParams.ExpenseCategories = &categories
	}
	if s.TransactionHistory != nil {
		out.TransactionHistory = make([]Transaction, len(s.TransactionHistory))
		for i, tx := range s.TransactionHistory {
			out.TransactionHistory[i] = tx.clone()
		}
	}
	return out
}

// WithoutHistory returns a copy of s with an empty transaction history.
func (s State) WithoutHistory() State {
	out := s.Clone()
	out.TransactionHistory = nil
	return out
}

func (c Copro) clone() Copro {
	out := c
	if c.LotsOwned != nil {
		out.LotsOwned = make([]model.CoproLot, len(c.LotsOwned))
		for i, lot := range c.LotsOwned {
			out.LotsOwned[i] = lot.Clone()
		}
	}
	if c.Loans != nil {
		out.Loans = make([]Loan, len(c.Loans))
		copy(out.Loans, c.Loans)
	}
	return out
}

func (t Transaction) clone() Transaction {
	out := t
	if t.Breakdown != nil {
		breakdown := *t.Breakdown
		out.Breakdown = &breakdown
	}
	if t.Settlement != nil {
		settlement := *t.Settlement
		out.Settlement = &settlement
	}
	return out
}

func cloneCategories(c model.ExpenseCategories) model.ExpenseCategories {
	return model.ExpenseCategories{
		Conservatoire:        cloneItems(c.Conservatoire),
		HabitabiliteSommaire: cloneItems(c.HabitabiliteSommaire),
		PremierTravaux:       cloneItems(c.PremierTravaux),
	}
}

func cloneItems(items []model.ExpenseItem) []model.ExpenseItem {
	if items == nil {
		return nil
	}
	out := make([]model.ExpenseItem, len(items))
	copy(out, items)
	return out
}
