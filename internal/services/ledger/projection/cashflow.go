package projection

import (
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/allocation"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
)

// TransitionType classifies a one-off cash movement of a participant.
type TransitionType string

const (
	TransitionSale                   TransitionType = "SALE"
	TransitionPurchase               TransitionType = "PURCHASE"
	TransitionRedistributionReceived TransitionType = "REDISTRIBUTION_RECEIVED"
)

// Transition is a one-off cash movement, positive when received.
type Transition struct {
	Type         TransitionType
	Amount       float64
	Counterparty string
	LotID        int
	Date         time.Time
}

// MonthlyCosts are a participant's recurring charges.
type MonthlyCosts struct {
	LoanPayment   float64
	PropertyTax   float64
	Insurance     float64
	CarryingCosts float64
	Total         float64
}

// ParticipantCashFlow is a participant's money movements in a phase and
// their running position since the initial purchase.
type ParticipantCashFlow struct {
	Name        string
	Monthly     MonthlyCosts
	Transitions []Transition

	// RecurringCosts is Monthly.Total over the phase, set when it closes.
	RecurringCosts float64

	CumulativeInvested float64
	CumulativeReceived float64
	NetPosition        float64
}

func (f *ParticipantCashFlow) chargeRecurring(months float64) {
	f.RecurringCosts = f.Monthly.Total * months
	f.CumulativeInvested += f.RecurringCosts
	f.NetPosition = f.CumulativeReceived - f.CumulativeInvested
}

// CoproCashFlow is the copropriété's money movements in a phase.
type CoproCashFlow struct {
	MonthlyObligations  float64
	LotSales            float64
	RedistributionsPaid float64
	LotsBoughtBack      float64
	LoansTaken          float64
	CashReserve         float64

	RecurringCosts     float64
	CumulativeInflows  float64
	CumulativeOutflows float64
	NetPosition        float64
}

func (f *CoproCashFlow) chargeRecurring(months float64) {
	f.RecurringCosts = f.MonthlyObligations * months
	f.CumulativeOutflows += f.RecurringCosts
	f.NetPosition = f.CumulativeInflows - f.CumulativeOutflows
}

func participantCashFlows(state ledger.State, snapshot allocation.Results, prior *Phase) []ParticipantCashFlow {
	transitions := transitionsByParticipant(state.TransactionHistory)
	count := len(state.Participants)

	flows := make([]ParticipantCashFlow, 0, count)
	present := make(map[string]bool, count)
	for _, p := range state.Participants {
		present[p.Name] = true
		cost, _ := snapshot.Participant(p.Name)
		flow := ParticipantCashFlow{
			Name:        p.Name,
			Monthly:     monthlyCosts(p, cost, state.CurrentDate, count),
			Transitions: transitions[p.Name],
		}
		flows = append(flows, carryForward(flow, prior))
	}
	// Participants who left during the phase keep their exit proceeds.
	if prior != nil {
		for _, before := range prior.ParticipantCashFlows {
			if present[before.Name] || len(transitions[before.Name]) == 0 {
				continue
			}
			flow := ParticipantCashFlow{Name: before.Name, Transitions: transitions[before.Name]}
			flows = append(flows, carryForward(flow, prior))
		}
	}
	return flows
}

func carryForward(flow ParticipantCashFlow, prior *Phase) ParticipantCashFlow {
	if prior != nil {
		if before, ok := prior.CashFlow(flow.Name); ok {
			flow.CumulativeInvested = before.CumulativeInvested
			flow.CumulativeReceived = before.CumulativeReceived
		}
	}
	for _, t := range flow.Transitions {
		if t.Amount < 0 {
			flow.CumulativeInvested -= t.Amount
		} else {
			flow.CumulativeReceived += t.Amount
		}
	}
	flow.NetPosition = flow.CumulativeReceived - flow.CumulativeInvested
	return flow
}

func monthlyCosts(p model.Participant, cost allocation.ParticipantCost, asOf time.Time, participantCount int) MonthlyCosts {
	m := MonthlyCosts{
		LoanPayment: cost.MonthlyPayment,
		PropertyTax: portage.MonthlyPropertyTax(),
		Insurance:   portage.MonthlyInsuranceShare(participantCount),
	}
	if extra := p.EffectiveQuantity() - 1; extra > 0 {
		m.CarryingCosts = carriedLotsCost(p, cost, extra, asOf, participantCount)
	}
	m.Total = m.LoanPayment + m.PropertyTax + m.Insurance + m.CarryingCosts
	return m
}

// carriedLotsCost prices the extra lots a participant holds. Declared unsold
// portage lots are used first; lots the participant does not declare are
// valued at one unit's purchase share.
func carriedLotsCost(p model.Participant, cost allocation.ParticipantCost, extra int, asOf time.Time, participantCount int) float64 {
	var total float64
	carried := 0
	for _, lot := range p.LotsOwned {
		if carried == extra {
			break
		}
		if !lot.IsPortage || lot.Sold() {
			continue
		}
		in := portage.CarryingForLot(lot, p, asOf, participantCount)
		if in.LotValue <= 0 {
			in.LotValue = cost.PurchaseShare / float64(p.EffectiveQuantity())
		}
		total += portage.CarryingCosts(in).TotalMonthly
		carried++
	}
	for ; carried < extra; carried++ {
		total += portage.CarryingCosts(portage.CarryingCostInput{
			LotValue:         cost.PurchaseShare / float64(p.EffectiveQuantity()),
			InterestRate:     p.InterestRate,
			ParticipantCount: participantCount,
		}).TotalMonthly
	}
	return total
}

// transitionsByParticipant turns the phase's transactions into one-off
// movements. A buyer's purchase includes the notary fees paid on that lot.
func transitionsByParticipant(history []ledger.Transaction) map[string][]Transition {
	type feeKey struct {
		buyer string
		lotID int
	}
	fees := make(map[feeKey]float64)
	for _, tx := range history {
		if tx.Type == ledger.TransactionNotaryFees {
			fees[feeKey{buyer: tx.From, lotID: tx.LotID}] += tx.Amount
		}
	}

	out := make(map[string][]Transition)
	add := func(name string, t Transition) {
		if name == ledger.PartyCopro || name == ledger.PartyNotary || name == "" {
			return
		}
		out[name] = append(out[name], t)
	}
	for _, tx := range history {
		switch tx.Type {
		case ledger.TransactionLotSale:
			add(tx.From, Transition{Type: TransitionSale, Amount: tx.Amount, Counterparty: tx.To, LotID: tx.LotID, Date: tx.Date})
			paid := tx.Amount + fees[feeKey{buyer: tx.To, lotID: tx.LotID}]
			add(tx.To, Transition{Type: TransitionPurchase, Amount: -paid, Counterparty: tx.From, LotID: tx.LotID, Date: tx.Date})
		case ledger.TransactionRedistribution:
			add(tx.To, Transition{Type: TransitionRedistributionReceived, Amount: tx.Amount, Counterparty: tx.From, LotID: tx.LotID, Date: tx.Date})
		}
	}
	return out
}

func coproCashFlow(state ledger.State, evt event.Event, prior *Phase) CoproCashFlow {
	flow := CoproCashFlow{
		MonthlyObligations: state.Copro.MonthlyObligations.Total(),
		CashReserve:        state.Copro.CashReserve,
	}
	for _, tx := range state.TransactionHistory {
		switch {
		case tx.Type == ledger.TransactionLotSale && tx.From == ledger.PartyCopro:
			flow.LotSales += tx.Amount
		case tx.Type == ledger.TransactionLotSale && tx.To == ledger.PartyCopro:
			flow.LotsBoughtBack += tx.Amount
		case tx.Type == ledger.TransactionRedistribution:
			flow.RedistributionsPaid += tx.Amount
		}
	}
	for _, loan := range state.Copro.Loans {
		if loan.EventID == evt.EventID() && loan.StartDate.Equal(evt.EventDate()) {
			flow.LoansTaken += loan.Amount
		}
	}
	if prior != nil {
		flow.CumulativeInflows = prior.CoproCashFlow.CumulativeInflows
		flow.CumulativeOutflows = prior.CoproCashFlow.CumulativeOutflows
	}
	flow.CumulativeInflows += flow.LotSales + flow.LoansTaken
	flow.CumulativeOutflows += flow.RedistributionsPaid + flow.LotsBoughtBack
	flow.NetPosition = flow.CumulativeInflows - flow.CumulativeOutflows
	return flow
}
