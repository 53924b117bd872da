package portage

import (
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

// Redistribute splits amount across the participants who entered before
// saleDate, each weighted by the months they have been in. Shares keep the
// participants' order. Nobody eligible, or no elapsed tenure, yields no
// shares.
func Redistribute(participants []model.Participant, saleDate time.Time, amount float64) []model.Share {
	type tenure struct {
		name   string
		months float64
	}
	eligible := make([]tenure, 0, len(participants))
	var total float64
	for _, p := range participants {
		if !p.EntryDate.Before(saleDate) {
			continue
		}
		months := model.MonthsBetween(p.EntryDate, saleDate)
		eligible = append(eligible, tenure{name: p.Name, months: months})
		total += months
	}
	if total <= 0 {
		return nil
	}
	shares := make([]model.Share, 0, len(eligible))
	for _, e := range eligible {
		quotite := e.months / total
		shares = append(shares, model.Share{
			ParticipantName: e.name,
			Quotite:         quotite,
			Amount:          amount * quotite,
		})
	}
	return shares
}
