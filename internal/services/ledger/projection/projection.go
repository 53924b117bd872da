package projection

import (
	"fmt"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/allocation"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Phase is the co-ownership between two events.
type Phase struct {
	Number    int
	StartDate time.Time
	// EndDate and DurationMonths are nil while the phase is open.
	EndDate        *time.Time
	DurationMonths *float64

	Participants []model.Participant
	Copro        ledger.Copro
	Transactions []ledger.Transaction
	Snapshot     allocation.Results

	ParticipantCashFlows []ParticipantCashFlow
	CoproCashFlow        CoproCashFlow
	TriggeringEvent      event.Event
}

// Open reports whether the phase has no end yet.
func (p Phase) Open() bool {
	return p.EndDate == nil
}

// CashFlow returns the named participant's cash flow in the phase.
func (p Phase) CashFlow(name string) (ParticipantCashFlow, bool) {
	for _, flow := range p.ParticipantCashFlows {
		if flow.Name == name {
			return flow, true
		}
	}
	return ParticipantCashFlow{}, false
}

// ProjectTimeline replays events into one phase per event. The first event
// must be the initial purchase; events are taken in the order given.
func ProjectTimeline(events []event.Event, units model.UnitDetails) ([]Phase, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if first := events[0]; first == nil || first.Kind() != event.KindInitialPurchase {
		kind := "none"
		if first != nil {
			kind = string(first.Kind())
		}
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeTimelineStart,
			fmt.Sprintf("timeline must start with %s, got %s", event.KindInitialPurchase, kind),
			map[string]string{"kind": kind},
		)
	}

	phases := make([]Phase, 0, len(events))
	var state ledger.State
	for i, evt := range events {
		next, err := ledger.Apply(state.WithoutHistory(), evt)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		var prior *Phase
		if i > 0 {
			prior = &phases[i-1]
			prior.close(evt.EventDate())
		}
		phases = append(phases, newPhase(i, evt, next, units, prior))
		state = next
	}
	return phases, nil
}

func newPhase(number int, evt event.Event, state ledger.State, units model.UnitDetails, prior *Phase) Phase {
	snapshot := allocation.Calculate(state.Participants, state.ProjectParams, state.Scenario, units)
	return Phase{
		Number:               number,
		StartDate:            evt.EventDate(),
		Participants:         state.Participants,
		Copro:                state.Copro,
		Transactions:         state.TransactionHistory,
		Snapshot:             snapshot,
		ParticipantCashFlows: participantCashFlows(state, snapshot, prior),
		CoproCashFlow:        coproCashFlow(state, evt, prior),
		TriggeringEvent:      evt,
	}
}

// close ends the phase at end and charges its recurring costs.
func (p *Phase) close(end time.Time) {
	endDate := end
	duration := model.MonthsBetween(p.StartDate, end)
	if duration < 0 {
		duration = 0
	}
	p.EndDate = &endDate
	p.DurationMonths = &duration
	for i := range p.ParticipantCashFlows {
		p.ParticipantCashFlows[i].chargeRecurring(duration)
	}
	p.CoproCashFlow.chargeRecurring(duration)
}
