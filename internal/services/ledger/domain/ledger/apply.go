package ledger

import (
	"fmt"
	"strconv"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/amortization"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Apply returns the state that follows evt. The input state is not modified.
func Apply(state State, evt event.Event) (State, error) {
	if evt == nil {
		return state, platformerrors.New(platformerrors.CodeInvalidEvent, "event is required")
	}
	next := state.Clone()
	var err error
	switch e := evt.(type) {
	case event.InitialPurchase:
		next = applyInitialPurchase(e)
	case event.NewcomerJoins:
		err = next.applyNewcomerJoins(e)
	case event.HiddenLotRevealed:
		err = next.applyHiddenLotRevealed(e)
	case event.PortageSettlement:
		err = next.applyPortageSettlement(e)
	case event.CoproTakesLoan:
		next.applyCoproTakesLoan(e)
	case event.ParticipantExits:
		err = next.applyParticipantExits(e)
	default:
		return state, platformerrors.New(platformerrors.CodeUnknownEventKind, fmt.Sprintf("unknown event %T", evt))
	}
	if err != nil {
		return state, err
	}
	next.CurrentDate = evt.EventDate()
	return next, nil
}

// Replay folds events from an empty state. The first event must be the
// initial purchase.
func Replay(events []event.Event) (State, error) {
	var state State
	for i, evt := range events {
		if i == 0 && (evt == nil || evt.Kind() != event.KindInitialPurchase) {
			return State{}, timelineStartError(evt)
		}
		next, err := Apply(state, evt)
		if err != nil {
			return State{}, fmt.Errorf("apply event %d: %w", i, err)
		}
		state = next
	}
	return state, nil
}

func timelineStartError(evt event.Event) error {
	kind := "none"
	if evt != nil {
		kind = string(evt.Kind())
	}
	return platformerrors.WithMetadata(
		platformerrors.CodeTimelineStart,
		fmt.Sprintf("timeline must start with %s, got %s", event.KindInitialPurchase, kind),
		map[string]string{"kind": kind},
	)
}

func applyInitialPurchase(e event.InitialPurchase) State {
	participants := make([]model.Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		p = p.Clone()
		if p.Quantity < 1 {
			p.Quantity = 1
		}
		p.IsFounder = true
		if p.EntryDate.IsZero() {
			p.EntryDate = e.Date
		}
		participants = append(participants, p)
	}
	lots := make([]model.CoproLot, 0, len(e.HiddenLots))
	for _, lot := range e.HiddenLots {
		lot = lot.Clone()
		if lot.AcquiredDate.IsZero() {
			lot.AcquiredDate = e.Date
		}
		lots = append(lots, lot)
	}
	state := State{
		Participants: participants,
		Copro: Copro{
			Name:      e.CoproName,
			LotsOwned: lots,
		},
		ProjectParams: e.ProjectParams,
		Scenario:      e.Scenario,
	}
	return state.Clone()
}

func (s *State) applyNewcomerJoins(e event.NewcomerJoins) error {
	acq := e.Acquisition
	sellerIdx := s.participantIndex(acq.From)
	if sellerIdx < 0 {
		return referenceNotFound(e, "seller", acq.From)
	}
	seller := &s.Participants[sellerIdx]
	if seller.Quantity > 1 {
		seller.Quantity--
	}
	lot := markSold(seller, acq.LotID, e.Date)

	buyer := newParticipant(e.Buyer, e.Date)
	if buyer.PurchaseDetails == nil {
		buyer.PurchaseDetails = &model.PurchaseDetails{
			BuyingFrom:    acq.From,
			LotID:         acq.LotID,
			PurchasePrice: acq.PurchasePrice,
		}
	}
	buyer.LotsOwned = append(buyer.LotsOwned, acquiredLot(lot, acq.LotID, buyer, e.Date, acq.PurchasePrice, acq.NotaryFees))
	if err := s.addParticipant(e, buyer); err != nil {
		return err
	}

	var breakdown *model.PriceBreakdown
	if acq.Breakdown != nil {
		b := *acq.Breakdown
		breakdown = &b
	}
	s.record(e, Transaction{
		Type:      TransactionLotSale,
		From:      acq.From,
		To:        buyer.Name,
		Amount:    acq.PurchasePrice,
		LotID:     acq.LotID,
		Breakdown: breakdown,
	})
	s.record(e, Transaction{
		Type:   TransactionNotaryFees,
		From:   buyer.Name,
		To:     PartyNotary,
		Amount: acq.NotaryFees,
		LotID:  acq.LotID,
	})
	return nil
}

func (s *State) applyHiddenLotRevealed(e event.HiddenLotRevealed) error {
	lot, ok := s.Copro.Lot(e.LotID)
	if !ok {
		return referenceNotFound(e, "copro lot", strconv.Itoa(e.LotID))
	}
	for _, share := range e.Redistribution {
		if s.participantIndex(share.ParticipantName) < 0 {
			return referenceNotFound(e, "recipient", share.ParticipantName)
		}
	}

	buyer := newParticipant(e.Buyer, e.Date)
	surface := buyer.Surface
	if surface <= 0 {
		surface = lot.Surface
	}
	buyer.LotsOwned = append(buyer.LotsOwned, model.Lot{
		LotID:         e.LotID,
		Surface:       surface,
		UnitID:        buyer.UnitID,
		AcquiredDate:  e.Date,
		OriginalPrice: e.SalePrice,
	})
	if err := s.addParticipant(e, buyer); err != nil {
		return err
	}

	s.Copro.LotsOwned = removeCoproLot(s.Copro.LotsOwned, e.LotID)
	// Proceeds land in the reserve; only what is redistributed leaves it.
	s.Copro.CashReserve += e.SalePrice
	for _, share := range e.Redistribution {
		s.Copro.CashReserve -= share.Amount
	}

	s.record(e, Transaction{
		Type:   TransactionLotSale,
		From:   PartyCopro,
		To:     buyer.Name,
		Amount: e.SalePrice,
		LotID:  e.LotID,
	})
	for _, share := range e.Redistribution {
		s.record(e, Transaction{
			Type:    TransactionRedistribution,
			From:    PartyCopro,
			To:      share.ParticipantName,
			Amount:  share.Amount,
			LotID:   e.LotID,
			Quotite: share.Quotite,
		})
	}
	return nil
}

func (s *State) applyPortageSettlement(e event.PortageSettlement) error {
	sellerIdx := s.participantIndex(e.Seller)
	if sellerIdx < 0 {
		return referenceNotFound(e, "seller", e.Seller)
	}
	seller := &s.Participants[sellerIdx]
	if seller.Quantity > 1 {
		seller.Quantity--
	}
	markSold(seller, e.LotID, e.Date)

	var breakdown *model.PriceBreakdown
	if e.Breakdown != nil {
		b := *e.Breakdown
		breakdown = &b
	}
	s.record(e, Transaction{
		Type:      TransactionLotSale,
		From:      e.Seller,
		To:        e.Buyer,
		Amount:    e.SalePrice,
		LotID:     e.LotID,
		Breakdown: breakdown,
		Settlement: &Settlement{
			CarryingCosts:        e.CarryingCosts,
			CarryingPeriodMonths: e.CarryingPeriodMonths,
			NetPosition:          e.NetPosition,
		},
	})
	return nil
}

func (s *State) applyCoproTakesLoan(e event.CoproTakesLoan) {
	payment := amortization.MonthlyPayment(e.Amount, e.InterestRate, e.DurationYears)
	s.Copro.Loans = append(s.Copro.Loans, Loan{
		EventID:          e.ID,
		Amount:           e.Amount,
		InterestRate:     e.InterestRate,
		DurationYears:    e.DurationYears,
		MonthlyPayment:   payment,
		RemainingBalance: e.Amount,
		StartDate:        e.Date,
		Purpose:          e.Purpose,
	})
	s.Copro.MonthlyObligations.LoanPayments += payment
}

func (s *State) applyParticipantExits(e event.ParticipantExits) error {
	idx := s.participantIndex(e.Participant)
	if idx < 0 {
		return referenceNotFound(e, "participant", e.Participant)
	}
	exiting := &s.Participants[idx]
	lot := markSold(exiting, e.LotID, e.Date)
	surface := exiting.Surface
	if lot != nil && lot.Surface > 0 {
		surface = lot.Surface
	}

	buyerName := e.BuyerName
	switch e.BuyerType {
	case event.BuyerCopro:
		buyerName = PartyCopro
		s.Copro.LotsOwned = append(s.Copro.LotsOwned, model.CoproLot{
			LotID:        e.LotID,
			Surface:      surface,
			AcquiredDate: e.Date,
		})
	case event.BuyerExistingParticipant:
		buyerIdx := s.participantIndex(e.BuyerName)
		if buyerIdx < 0 {
			return referenceNotFound(e, "buyer", e.BuyerName)
		}
		buyer := &s.Participants[buyerIdx]
		buyer.Quantity = buyer.EffectiveQuantity() + 1
		buyer.LotsOwned = append(buyer.LotsOwned, acquiredLot(lot, e.LotID, *buyer, e.Date, e.SalePrice, 0))
	case event.BuyerNewcomer:
		if e.Buyer == nil {
			return platformerrors.WithMetadata(
				platformerrors.CodeInvalidEvent,
				"newcomer exit requires the buyer participant",
				map[string]string{"event_id": e.ID},
			)
		}
		buyer := newParticipant(*e.Buyer, e.Date)
		buyer.LotsOwned = append(buyer.LotsOwned, acquiredLot(lot, e.LotID, buyer, e.Date, e.SalePrice, 0))
		if buyer.PurchaseDetails == nil {
			buyer.PurchaseDetails = &model.PurchaseDetails{BuyingFrom: e.Participant, LotID: e.LotID, PurchasePrice: e.SalePrice}
		}
		buyerName = buyer.Name
		if err := s.addParticipant(e, buyer); err != nil {
			return err
		}
	default:
		return platformerrors.WithMetadata(
			platformerrors.CodeInvalidEvent,
			fmt.Sprintf("unknown buyer type %q", e.BuyerType),
			map[string]string{"event_id": e.ID},
		)
	}

	// Index is re-resolved: addParticipant may have grown the slice.
	idx = s.participantIndex(e.Participant)
	if s.Participants[idx].Quantity > 1 {
		s.Participants[idx].Quantity--
	} else {
		s.Participants = append(s.Participants[:idx:idx], s.Participants[idx+1:]...)
	}

	s.record(e, Transaction{
		Type:   TransactionLotSale,
		From:   e.Participant,
		To:     buyerName,
		Amount: e.SalePrice,
		LotID:  e.LotID,
	})
	return nil
}

func (s *State) addParticipant(evt event.Event, p model.Participant) error {
	if s.participantIndex(p.Name) >= 0 {
		return platformerrors.WithMetadata(
			platformerrors.CodeParticipantExists,
			fmt.Sprintf("%s: participant %q already exists", evt.Kind(), p.Name),
			map[string]string{"event_id": evt.EventID(), "participant": p.Name},
		)
	}
	s.Participants = append(s.Participants, p)
	return nil
}

func (s *State) record(evt event.Event, tx Transaction) {
	tx.EventID = evt.EventID()
	tx.Date = evt.EventDate()
	s.TransactionHistory = append(s.TransactionHistory, tx)
}

// newParticipant applies the defaults of a participant joining after the
// initial purchase.
func newParticipant(p model.Participant, date time.Time) model.Participant {
	p = p.Clone()
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	p.IsFounder = false
	if p.EntryDate.IsZero() {
		p.EntryDate = date
	}
	return p
}

// markSold stamps the participant's lot as sold and returns a copy of it as
// it was before the sale, or nil when the participant does not declare it.
func markSold(p *model.Participant, lotID int, date time.Time) *model.Lot {
	for i := range p.LotsOwned {
		if p.LotsOwned[i].LotID != lotID {
			continue
		}
		before := p.LotsOwned[i].Clone()
		sold := date
		p.LotsOwned[i].SoldDate = &sold
		return &before
	}
	return nil
}

func acquiredLot(from *model.Lot, lotID int, buyer model.Participant, date time.Time, price, notaryFees float64) model.Lot {
	lot := model.Lot{
		LotID:   lotID,
		Surface: buyer.Surface,
		UnitID:  buyer.UnitID,
	}
	if from != nil {
		lot.Surface = from.Surface
		lot.UnitID = from.UnitID
	}
	lot.AcquiredDate = date
	lot.OriginalPrice = price
	lot.OriginalNotaryFees = notaryFees
	return lot
}

func removeCoproLot(lots []model.CoproLot, lotID int) []model.CoproLot {
	out := make([]model.CoproLot, 0, len(lots))
	for _, lot := range lots {
		if lot.LotID != lotID {
			out = append(out, lot)
		}
	}
	return out
}

func referenceNotFound(evt event.Event, kind, ref string) error {
	return platformerrors.WithMetadata(
		platformerrors.CodeReferenceNotFound,
		fmt.Sprintf("%s: %s %q not found", evt.Kind(), kind, ref),
		map[string]string{"event_id": evt.EventID(), "reference": kind, "value": ref},
	)
}
