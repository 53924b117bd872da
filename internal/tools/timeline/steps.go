package timeline

import (
	"fmt"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
)

type builder struct {
	name   string
	params portage.FormulaParams
	state  ledger.State
}

type purchaseArgs struct {
	ID           string              `json:"id"`
	Date         time.Time           `json:"date"`
	Copro        string              `json:"copro"`
	Participants []model.Participant `json:"participants"`
	Params       model.ProjectParams `json:"params"`
	Scenario     model.Scenario      `json:"scenario"`
	HiddenLots   []model.CoproLot    `json:"hidden_lots"`
}

type newcomerArgs struct {
	ID         string            `json:"id"`
	Date       time.Time         `json:"date"`
	Buyer      model.Participant `json:"buyer"`
	From       string            `json:"from"`
	Lot        int               `json:"lot"`
	Price      *float64          `json:"price"`
	NotaryFees *float64          `json:"notary_fees"`
}

type revealArgs struct {
	ID            string            `json:"id"`
	Date          time.Time         `json:"date"`
	Buyer         model.Participant `json:"buyer"`
	Lot           int               `json:"lot"`
	Price         *float64          `json:"price"`
	BasePrice     float64           `json:"base_price"`
	Surface       float64           `json:"surface"`
	CarryingCosts float64           `json:"carrying_costs"`
}

type settleArgs struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Seller string    `json:"seller"`
	Buyer  string    `json:"buyer"`
	Lot    int       `json:"lot"`
}

type loanArgs struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	InterestRate  float64   `json:"interest_rate"`
	DurationYears int       `json:"duration_years"`
	Purpose       string    `json:"purpose"`
}

type exitArgs struct {
	ID          string             `json:"id"`
	Date        time.Time          `json:"date"`
	Participant string             `json:"participant"`
	Lot         int                `json:"lot"`
	Price       float64            `json:"price"`
	BuyerType   event.BuyerType    `json:"buyer_type"`
	BuyerName   string             `json:"buyer_name"`
	Buyer       *model.Participant `json:"buyer"`
}

func (b *builder) build(index int, step Step) (event.Event, error) {
	switch step.Kind {
	case StepPurchase:
		var args purchaseArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return event.InitialPurchase{
			Header:        b.header(index, args.ID, args.Date),
			Participants:  args.Participants,
			ProjectParams: args.Params,
			Scenario:      args.Scenario,
			CoproName:     args.Copro,
			HiddenLots:    args.HiddenLots,
		}, nil
	case StepNewcomer:
		var args newcomerArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return b.newcomer(index, args)
	case StepReveal:
		var args revealArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return b.reveal(index, args)
	case StepSettle:
		var args settleArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return b.settle(index, args)
	case StepLoan:
		var args loanArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return event.CoproTakesLoan{
			Header:        b.header(index, args.ID, args.Date),
			Amount:        args.Amount,
			InterestRate:  args.InterestRate,
			DurationYears: args.DurationYears,
			Purpose:       args.Purpose,
		}, nil
	case StepExit:
		var args exitArgs
		if err := decode(step.Args, &args); err != nil {
			return nil, err
		}
		return b.exit(index, args), nil
	default:
		return nil, platformerrors.New(platformerrors.CodeUnknownEventKind, fmt.Sprintf("unknown step %q", step.Kind))
	}
}

// header names events after the timeline unless the script gives an id.
func (b *builder) header(index int, id string, date time.Time) event.Header {
	if strings.TrimSpace(id) == "" {
		id = fmt.Sprintf("%s-%03d", b.name, index+1)
	}
	return event.Header{ID: id, Date: date}
}

// newcomer prices a carried lot with the resale formula when no price is
// given. Notary fees default to the buyer's rate on the price.
func (b *builder) newcomer(index int, args newcomerArgs) (event.Event, error) {
	acquisition := event.Acquisition{From: args.From, LotID: args.Lot}
	if args.Price != nil {
		acquisition.PurchasePrice = *args.Price
	} else {
		settlement, err := b.settlement(args.From, args.Lot, args.Date)
		if err != nil {
			return nil, err
		}
		breakdown := settlement.Price
		acquisition.PurchasePrice = breakdown.Total
		acquisition.Breakdown = &breakdown
	}
	if args.NotaryFees != nil {
		acquisition.NotaryFees = *args.NotaryFees
	} else {
		acquisition.NotaryFees = acquisition.PurchasePrice * args.Buyer.NotaryFeesRate / 100
	}
	return event.NewcomerJoins{
		Header:      b.header(index, args.ID, args.Date),
		Buyer:       args.Buyer,
		Acquisition: acquisition,
	}, nil
}

// reveal prices a copropriété lot from its base price when no price is given
// and splits the proceeds among the participants present before the sale.
func (b *builder) reveal(index int, args revealArgs) (event.Event, error) {
	var price float64
	if args.Price != nil {
		price = *args.Price
	} else {
		lot, ok := b.availableLot(portage.SourceCopro, ledger.PartyCopro, args.Lot)
		if !ok {
			return nil, lotNotAvailable(ledger.PartyCopro, args.Lot)
		}
		surface := args.Surface
		if surface == 0 {
			surface = args.Buyer.Surface
		}
		breakdown, err := portage.PriceAvailableLot(lot, portage.Quote{
			SaleDate:       args.Date,
			ChosenSurface:  surface,
			CarryingCosts:  args.CarryingCosts,
			CoproBasePrice: args.BasePrice,
		}, b.params)
		if err != nil {
			return nil, err
		}
		price = breakdown.Total
	}
	return event.HiddenLotRevealed{
		Header:         b.header(index, args.ID, args.Date),
		Buyer:          args.Buyer,
		LotID:          args.Lot,
		SalePrice:      price,
		Redistribution: portage.Redistribute(b.state.Participants, args.Date, price),
	}, nil
}

func (b *builder) settle(index int, args settleArgs) (event.Event, error) {
	settlement, err := b.settlement(args.Seller, args.Lot, args.Date)
	if err != nil {
		return nil, err
	}
	breakdown := settlement.Price
	return event.PortageSettlement{
		Header:               b.header(index, args.ID, args.Date),
		Seller:               args.Seller,
		Buyer:                args.Buyer,
		LotID:                args.Lot,
		SalePrice:            breakdown.Total,
		CarryingCosts:        settlement.CarryingCost.TotalForPeriod,
		CarryingPeriodMonths: settlement.CarryingPeriodMonths,
		NetPosition:          settlement.NetPosition,
		Breakdown:            &breakdown,
	}, nil
}

// exit defaults to a sale to the copropriété, or to a newcomer when the step
// describes the buyer.
func (b *builder) exit(index int, args exitArgs) event.Event {
	buyerType := args.BuyerType
	if buyerType == "" {
		switch {
		case args.Buyer != nil:
			buyerType = event.BuyerNewcomer
		case args.BuyerName != "":
			buyerType = event.BuyerExistingParticipant
		default:
			buyerType = event.BuyerCopro
		}
	}
	return event.ParticipantExits{
		Header:      b.header(index, args.ID, args.Date),
		Participant: args.Participant,
		LotID:       args.Lot,
		SalePrice:   args.Price,
		BuyerType:   buyerType,
		BuyerName:   args.BuyerName,
		Buyer:       args.Buyer,
	}
}

func (b *builder) settlement(sellerName string, lotID int, date time.Time) (portage.Settlement, error) {
	seller, ok := b.state.Participant(sellerName)
	if !ok {
		return portage.Settlement{}, platformerrors.WithMetadata(
			platformerrors.CodeReferenceNotFound,
			fmt.Sprintf("participant %q not found", sellerName),
			map[string]string{"participant": sellerName},
		)
	}
	return portage.Settle(seller, lotID, date, b.params, len(b.state.Participants))
}

func (b *builder) availableLot(source portage.Source, seller string, lotID int) (portage.AvailableLot, bool) {
	for _, lot := range portage.AvailableLots(b.state) {
		if lot.Source == source && lot.SellerName == seller && lot.LotID == lotID {
			return lot, true
		}
	}
	return portage.AvailableLot{}, false
}

func lotNotAvailable(seller string, lotID int) error {
	return platformerrors.WithMetadata(
		platformerrors.CodeReferenceNotFound,
		fmt.Sprintf("lot %d of %s is not available", lotID, seller),
		map[string]string{"seller": seller},
	)
}
