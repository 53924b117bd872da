package portage

import (
	"fmt"
	"math"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

const (
	// NotaryRecoveryShare is the part of the original notary fees recovered
	// on a resale inside the statutory window.
	NotaryRecoveryShare = 0.60
	// NotaryRecoveryWindowYears bounds the holding period eligible for notary
	// fee recovery.
	NotaryRecoveryWindowYears = 2.0
)

// FormulaParams configures resale pricing. Rates are percentages.
type FormulaParams struct {
	IndexationRate       float64 `json:"indexation_rate" toml:"indexation_rate" yaml:"indexation_rate"`
	CarryingCostRecovery float64 `json:"carrying_cost_recovery" toml:"carrying_cost_recovery" yaml:"carrying_cost_recovery"`
}

// DefaultFormulaParams indexes at 2% a year and recovers all carrying costs.
func DefaultFormulaParams() FormulaParams {
	return FormulaParams{IndexationRate: 2, CarryingCostRecovery: 100}
}

// ResaleInput is what a founder lot's resale is priced from.
type ResaleInput struct {
	OriginalPrice            float64
	OriginalNotaryFees       float64
	OriginalConstructionCost float64
	YearsHeld                float64
	CarryingCosts            float64
}

// ResalePrice prices a founder lot sold after being carried.
func ResalePrice(in ResaleInput, params FormulaParams) model.PriceBreakdown {
	price := model.PriceBreakdown{
		BasePrice:            in.OriginalPrice,
		Indexation:           Indexation(in.OriginalPrice, params.IndexationRate, in.YearsHeld),
		CarryingCostRecovery: in.CarryingCosts * params.CarryingCostRecovery / 100,
		RenovationRecovery:   in.OriginalConstructionCost,
	}
	if in.YearsHeld <= NotaryRecoveryWindowYears {
		price.FeesRecovery = in.OriginalNotaryFees * NotaryRecoveryShare
	}
	price.Total = price.BasePrice + price.Indexation + price.CarryingCostRecovery + price.FeesRecovery + price.RenovationRecovery
	return price
}

// Indexation returns the compound growth of base over years at rate percent.
func Indexation(base, rate, years float64) float64 {
	if years <= 0 {
		return 0
	}
	return base * (math.Pow(1+rate/100, years) - 1)
}

// CoproInput is what a copropriété lot's sale is priced from. BasePrice and
// CarryingCosts cover TotalSurface; the buyer takes ChosenSurface of it.
type CoproInput struct {
	BasePrice     float64
	TotalSurface  float64
	ChosenSurface float64
	YearsHeld     float64
	CarryingCosts float64
}

// CoproLotPrice prices a share of the copropriété's holdings pro rata of the
// chosen surface. Notary fees are never recovered on copropriété lots.
func CoproLotPrice(in CoproInput, params FormulaParams) (model.PriceBreakdown, error) {
	if in.TotalSurface <= 0 || in.ChosenSurface <= 0 || in.ChosenSurface > in.TotalSurface {
		return model.PriceBreakdown{}, platformerrors.WithMetadata(
			platformerrors.CodeInvalidSurface,
			fmt.Sprintf("chosen surface %.2f must be within (0, %.2f]", in.ChosenSurface, in.TotalSurface),
			map[string]string{
				"chosen_surface": fmt.Sprintf("%.2f", in.ChosenSurface),
				"total_surface":  fmt.Sprintf("%.2f", in.TotalSurface),
			},
		)
	}
	ratio := in.ChosenSurface / in.TotalSurface
	base := in.BasePrice * ratio
	price := model.PriceBreakdown{
		BasePrice:            base,
		Indexation:           Indexation(base, params.IndexationRate, in.YearsHeld),
		CarryingCostRecovery: in.CarryingCosts * ratio * params.CarryingCostRecovery / 100,
	}
	price.Total = price.BasePrice + price.Indexation + price.CarryingCostRecovery
	return price, nil
}
