package portage

import (
	"fmt"
	"strconv"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Settlement is the outcome of selling a carried lot.
type Settlement struct {
	Seller               string
	LotID                int
	Price                model.PriceBreakdown
	SellerDelta          float64
	CarryingCost         CarryingCost
	CarryingPeriodMonths float64
	NetPosition          float64
}

// Settle prices the resale of a lot the seller carried until saleDate. The
// seller must hold the lot unsold. The seller delta is the negative of the
// price, the amount credited to the seller; the net position is the price
// less the carrying costs the seller paid.
func Settle(seller model.Participant, lotID int, saleDate time.Time, params FormulaParams, participantCount int) (Settlement, error) {
	lot, ok := seller.Lot(lotID)
	if !ok || lot.Sold() {
		return Settlement{}, platformerrors.WithMetadata(
			platformerrors.CodeReferenceNotFound,
			fmt.Sprintf("participant %q does not hold lot %d", seller.Name, lotID),
			map[string]string{"participant": seller.Name, "lot_id": strconv.Itoa(lotID)},
		)
	}
	carrying := CarryingForLot(lot, seller, saleDate, participantCount)
	cost := CarryingCosts(carrying)
	price := ResalePrice(ResaleInput{
		OriginalPrice:            lot.OriginalPrice,
		OriginalNotaryFees:       lot.OriginalNotaryFees,
		OriginalConstructionCost: lot.OriginalConstructionCost,
		YearsHeld:                carrying.Months / 12,
		CarryingCosts:            cost.TotalForPeriod,
	}, params)
	return Settlement{
		Seller:               seller.Name,
		LotID:                lotID,
		Price:                price,
		SellerDelta:          -price.Total,
		CarryingCost:         cost,
		CarryingPeriodMonths: carrying.Months,
		NetPosition:          price.Total - cost.TotalForPeriod,
	}, nil
}
