package portage

import (
	"fmt"
	"strconv"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Source tells who sells an available lot.
type Source string

const (
	SourceFounder Source = "FOUNDER"
	SourceCopro   Source = "COPRO"
)

// AvailableLot is a lot a newcomer can buy.
//
// Founder lots have an imposed surface. Copropriété lots let the buyer choose
// up to Surface; TotalCoproSurface is the copropriété's whole unsold surface,
// used to pro-rate its price.
type AvailableLot struct {
	LotID             int
	Source            Source
	SellerName        string
	Surface           float64
	SurfaceImposed    bool
	TotalCoproSurface float64
	UnitID            int
	AcquiredDate      time.Time

	OriginalPrice            float64
	OriginalNotaryFees       float64
	OriginalConstructionCost float64
}

// AvailableLots lists founders' unsold portage lots, then the copropriété's
// unsold lots, in state order.
func AvailableLots(state ledger.State) []AvailableLot {
	var lots []AvailableLot
	for _, p := range state.Participants {
		if !p.IsFounder {
			continue
		}
		for _, lot := range p.LotsOwned {
			if !lot.IsPortage || lot.Sold() {
				continue
			}
			lots = append(lots, AvailableLot{
				LotID:                    lot.LotID,
				Source:                   SourceFounder,
				SellerName:               p.Name,
				Surface:                  lot.Surface,
				SurfaceImposed:           true,
				UnitID:                   lot.UnitID,
				AcquiredDate:             lot.AcquiredDate,
				OriginalPrice:            lot.OriginalPrice,
				OriginalNotaryFees:       lot.OriginalNotaryFees,
				OriginalConstructionCost: lot.OriginalConstructionCost,
			})
		}
	}
	total := state.Copro.TotalSurface()
	for _, lot := range state.Copro.LotsOwned {
		if lot.SoldDate != nil {
			continue
		}
		lots = append(lots, AvailableLot{
			LotID:             lot.LotID,
			Source:            SourceCopro,
			SellerName:        ledger.PartyCopro,
			Surface:           lot.Surface,
			TotalCoproSurface: total,
			AcquiredDate:      lot.AcquiredDate,
		})
	}
	return lots
}

// Quote asks for the price of an available lot.
type Quote struct {
	SaleDate time.Time
	// ChosenSurface applies to copropriété lots only.
	ChosenSurface float64
	// CarryingCosts paid on the lot so far. For copropriété lots this covers
	// the whole copropriété surface.
	CarryingCosts float64
	// CoproBasePrice is the value of the copropriété's whole unsold surface.
	CoproBasePrice float64
}

// PriceAvailableLot prices an available lot with the resale formulas.
func PriceAvailableLot(lot AvailableLot, quote Quote, params FormulaParams) (model.PriceBreakdown, error) {
	years := model.YearsBetween(lot.AcquiredDate, quote.SaleDate)
	if lot.Source == SourceCopro {
		if quote.ChosenSurface > lot.Surface {
			return model.PriceBreakdown{}, platformerrors.WithMetadata(
				platformerrors.CodeInvalidSurface,
				fmt.Sprintf("chosen surface %.2f exceeds lot %d surface %.2f", quote.ChosenSurface, lot.LotID, lot.Surface),
				map[string]string{"lot_id": strconv.Itoa(lot.LotID)},
			)
		}
		return CoproLotPrice(CoproInput{
			BasePrice:     quote.CoproBasePrice,
			TotalSurface:  lot.TotalCoproSurface,
			ChosenSurface: quote.ChosenSurface,
			YearsHeld:     years,
			CarryingCosts: quote.CarryingCosts,
		}, params)
	}
	return ResalePrice(ResaleInput{
		OriginalPrice:            lot.OriginalPrice,
		OriginalNotaryFees:       lot.OriginalNotaryFees,
		OriginalConstructionCost: lot.OriginalConstructionCost,
		YearsHeld:                years,
		CarryingCosts:            quote.CarryingCosts,
	}, params), nil
}
