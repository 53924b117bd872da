package event

import (
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Kind names an event variant.
type Kind string

const (
	KindInitialPurchase   Kind = "INITIAL_PURCHASE"
	KindNewcomerJoins     Kind = "NEWCOMER_JOINS"
	KindHiddenLotRevealed Kind = "HIDDEN_LOT_REVEALED"
	KindPortageSettlement Kind = "PORTAGE_SETTLEMENT"
	KindCoproTakesLoan    Kind = "COPRO_TAKES_LOAN"
	KindParticipantExits  Kind = "PARTICIPANT_EXITS"
)

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindInitialPurchase,
		KindNewcomerJoins,
		KindHiddenLotRevealed,
		KindPortageSettlement,
		KindCoproTakesLoan,
		KindParticipantExits,
	}
}

// Event is a dated fact on a timeline.
type Event interface {
	Kind() Kind
	EventID() string
	EventDate() time.Time
	isEvent()
}

// Header carries the identity and date every event has. Its fields are kept
// out of the payload; the envelope serialises them.
type Header struct {
	ID   string    `json:"-"`
	Date time.Time `json:"-"`
}

func (h Header) EventID() string      { return h.ID }
func (h Header) EventDate() time.Time { return h.Date }

// InitialPurchase opens a timeline: the founders buy the building together.
type InitialPurchase struct {
	Header
	Participants  []model.Participant `json:"participants"`
	ProjectParams model.ProjectParams `json:"project_params"`
	Scenario      model.Scenario      `json:"scenario"`
	CoproName     string              `json:"copro_name"`
	HiddenLots    []model.CoproLot    `json:"hidden_lots,omitempty"`
}

// Acquisition describes a lot changing hands between participants.
type Acquisition struct {
	From          string                `json:"from"`
	LotID         int                   `json:"lot_id"`
	PurchasePrice float64               `json:"purchase_price"`
	NotaryFees    float64               `json:"notary_fees"`
	Breakdown     *model.PriceBreakdown `json:"breakdown,omitempty"`
}

// NewcomerJoins brings a buyer in through a lot sold by an existing
// participant.
type NewcomerJoins struct {
	Header
	Buyer       model.Participant `json:"buyer"`
	Acquisition Acquisition       `json:"acquisition"`
}

// HiddenLotRevealed sells a lot held by the copropriété. The proceeds pass
// through to the recipients listed in Redistribution.
type HiddenLotRevealed struct {
	Header
	Buyer          model.Participant `json:"buyer"`
	LotID          int               `json:"lot_id"`
	SalePrice      float64           `json:"sale_price"`
	Redistribution []model.Share     `json:"redistribution"`
}

// PortageSettlement closes a lot a founder carried for a later buyer.
type PortageSettlement struct {
	Header
	Seller               string                `json:"seller"`
	Buyer                string                `json:"buyer"`
	LotID                int                   `json:"lot_id"`
	SalePrice            float64               `json:"sale_price"`
	CarryingCosts        float64               `json:"carrying_costs"`
	CarryingPeriodMonths float64               `json:"carrying_period_months"`
	NetPosition          float64               `json:"net_position"`
	Breakdown            *model.PriceBreakdown `json:"breakdown,omitempty"`
}

// CoproTakesLoan records a loan contracted by the copropriété.
type CoproTakesLoan struct {
	Header
	Amount        float64 `json:"amount"`
	InterestRate  float64 `json:"interest_rate"`
	DurationYears int     `json:"duration_years"`
	Purpose       string  `json:"purpose,omitempty"`
}

// BuyerType identifies who takes over an exiting participant's lot.
type BuyerType string

const (
	BuyerCopro               BuyerType = "COPRO"
	BuyerExistingParticipant BuyerType = "EXISTING_PARTICIPANT"
	BuyerNewcomer            BuyerType = "NEWCOMER"
)

// ParticipantExits records a participant selling a lot on the way out.
// Buyer is required when BuyerType is BuyerNewcomer.
type ParticipantExits struct {
	Header
	Participant string             `json:"participant"`
	LotID       int                `json:"lot_id"`
	SalePrice   float64            `json:"sale_price"`
	BuyerType   BuyerType          `json:"buyer_type"`
	BuyerName   string             `json:"buyer_name,omitempty"`
	Buyer       *model.Participant `json:"buyer,omitempty"`
}

func (InitialPurchase) Kind() Kind   { return KindInitialPurchase }
func (NewcomerJoins) Kind() Kind     { return KindNewcomerJoins }
func (HiddenLotRevealed) Kind() Kind { return KindHiddenLotRevealed }
func (PortageSettlement) Kind() Kind { return KindPortageSettlement }
func (CoproTakesLoan) Kind() Kind    { return KindCoproTakesLoan }
func (ParticipantExits) Kind() Kind  { return KindParticipantExits }

func (InitialPurchase) isEvent()   {}
func (NewcomerJoins) isEvent()     {}
func (HiddenLotRevealed) isEvent() {}
func (PortageSettlement) isEvent() {}
func (CoproTakesLoan) isEvent()    {}
func (ParticipantExits) isEvent()  {}
