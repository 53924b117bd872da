package event

import (
	"fmt"
	"math"
	"strings"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// redistributionTolerance absorbs rounding across quotité shares.
const redistributionTolerance = 0.01

// Validate checks that an event is well formed on its own. References to
// participants and lots are resolved by the reducer, not here.
func Validate(evt Event) error {
	if evt == nil {
		return invalid(nil, "event is required")
	}
	if evt.EventDate().IsZero() {
		return invalid(evt, "date is required")
	}
	switch e := evt.(type) {
	case InitialPurchase:
		if len(e.Participants) == 0 {
			return invalid(e, "at least one participant is required")
		}
		seen := make(map[string]bool, len(e.Participants))
		for _, p := range e.Participants {
			if err := validParticipant(e, p); err != nil {
				return err
			}
			if seen[p.Name] {
				return invalid(e, fmt.Sprintf("participant %q listed twice", p.Name))
			}
			seen[p.Name] = true
		}
		if e.ProjectParams.TotalPurchase < 0 {
			return invalid(e, "total purchase must not be negative")
		}
	case NewcomerJoins:
		if err := validParticipant(e, e.Buyer); err != nil {
			return err
		}
		if strings.TrimSpace(e.Acquisition.From) == "" {
			return invalid(e, "seller is required")
		}
		if e.Acquisition.From == e.Buyer.Name {
			return invalid(e, "buyer and seller must differ")
		}
		if e.Acquisition.PurchasePrice < 0 || e.Acquisition.NotaryFees < 0 {
			return invalid(e, "amounts must not be negative")
		}
	case HiddenLotRevealed:
		if err := validParticipant(e, e.Buyer); err != nil {
			return err
		}
		if e.SalePrice < 0 {
			return invalid(e, "sale price must not be negative")
		}
		var distributed float64
		for _, share := range e.Redistribution {
			if strings.TrimSpace(share.ParticipantName) == "" {
				return invalid(e, "redistribution recipient is required")
			}
			distributed += share.Amount
		}
		// An empty redistribution keeps the proceeds in the copro reserve.
		if len(e.Redistribution) > 0 && e.SalePrice > 0 && math.Abs(distributed-e.SalePrice) > redistributionTolerance {
			return invalid(e, fmt.Sprintf("redistribution totals %.2f, want sale price %.2f", distributed, e.SalePrice))
		}
	case PortageSettlement:
		if strings.TrimSpace(e.Seller) == "" || strings.TrimSpace(e.Buyer) == "" {
			return invalid(e, "seller and buyer are required")
		}
	case CoproTakesLoan:
		if e.Amount <= 0 {
			return invalid(e, "loan amount must be positive")
		}
		if e.DurationYears <= 0 {
			return invalid(e, "loan duration must be positive")
		}
	case ParticipantExits:
		if strings.TrimSpace(e.Participant) == "" {
			return invalid(e, "exiting participant is required")
		}
		switch e.BuyerType {
		case BuyerCopro:
		case BuyerExistingParticipant:
			if strings.TrimSpace(e.BuyerName) == "" {
				return invalid(e, "buyer name is required")
			}
			if e.BuyerName == e.Participant {
				return invalid(e, "participant cannot buy their own lot")
			}
		case BuyerNewcomer:
			if e.Buyer == nil {
				return invalid(e, "newcomer buyer requires the buyer participant")
			}
			if err := validParticipant(e, *e.Buyer); err != nil {
				return err
			}
		default:
			return invalid(e, fmt.Sprintf("unknown buyer type %q", e.BuyerType))
		}
	default:
		return platformerrors.New(platformerrors.CodeUnknownEventKind, fmt.Sprintf("unknown event %T", evt))
	}
	return nil
}

func validParticipant(evt Event, p model.Participant) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid(evt, "participant name is required")
	}
	if p.Surface < 0 {
		return invalid(evt, fmt.Sprintf("participant %q has a negative surface", p.Name))
	}
	return nil
}

func invalid(evt Event, message string) error {
	metadata := map[string]string{}
	if evt != nil {
		metadata["kind"] = string(evt.Kind())
		metadata["event_id"] = evt.EventID()
		message = fmt.Sprintf("%s: %s", evt.Kind(), message)
	}
	return platformerrors.WithMetadata(platformerrors.CodeInvalidEvent, message, metadata)
}
