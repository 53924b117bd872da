package render

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
	"github.com/louisbranch/credit-castor/internal/services/ledger/projection"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

// Phases writes one block per phase: period, participant positions and the
// copropriété summary.
func Phases(w io.Writer, phases []projection.Phase, tag language.Tag) error {
	p := message.NewPrinter(tag)
	for i, phase := range phases {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writePhase(w, p, phase); err != nil {
			return fmt.Errorf("render phase %d: %w", phase.Number, err)
		}
	}
	return nil
}

func writePhase(w io.Writer, p *message.Printer, phase projection.Phase) error {
	trigger := "-"
	if phase.TriggeringEvent != nil {
		trigger = string(phase.TriggeringEvent.Kind())
	}
	if _, err := p.Fprintf(w, "ledger.phase.title", phase.Number, trigger); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\n"); err != nil {
		return err
	}
	var period string
	if phase.Open() {
		period = p.Sprintf("ledger.phase.period_open", phase.StartDate.Format(dateLayout))
	} else {
		period = p.Sprintf("ledger.phase.period", phase.StartDate.Format(dateLayout), phase.EndDate.Format(dateLayout), *phase.DurationMonths)
	}
	if _, err := fmt.Fprintln(w, period); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
		p.Sprintf("ledger.column.participant"),
		p.Sprintf("ledger.column.monthly"),
		p.Sprintf("ledger.column.invested"),
		p.Sprintf("ledger.column.received"),
		p.Sprintf("ledger.column.net"),
	)
	for _, flow := range phase.ParticipantCashFlows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			flow.Name,
			Money(p, flow.Monthly.Total),
			Money(p, flow.CumulativeInvested),
			Money(p, flow.CumulativeReceived),
			Money(p, flow.NetPosition),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	copro := phase.Copro
	name := copro.Name
	if name == "" {
		name = "-"
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", p.Sprintf("ledger.copro.title", name))
	fmt.Fprintf(tw, "  %s\t%s\n", p.Sprintf("ledger.copro.cash_reserve"), Money(p, copro.CashReserve))
	fmt.Fprintf(tw, "  %s\t%s\n", p.Sprintf("ledger.copro.obligations"), Money(p, copro.MonthlyObligations.Total()))
	fmt.Fprintf(tw, "  %s\t%d\n", p.Sprintf("ledger.copro.hidden_lots"), unsoldCoproLots(phase))
	return tw.Flush()
}

func unsoldCoproLots(phase projection.Phase) int {
	count := 0
	for _, lot := range phase.Copro.LotsOwned {
		if lot.SoldDate == nil {
			count++
		}
	}
	return count
}

// Offer is an available lot with its price, when one could be quoted.
type Offer struct {
	Lot   portage.AvailableLot
	Price *model.PriceBreakdown
}

// AvailableLots writes the lots a newcomer can buy.
func AvailableLots(w io.Writer, offers []Offer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	if _, err := fmt.Fprintln(w, p.Sprintf("ledger.available.title")); err != nil {
		return err
	}
	if len(offers) == 0 {
		_, err := fmt.Fprintln(w, p.Sprintf("ledger.available.none"))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		p.Sprintf("ledger.column.lot"),
		p.Sprintf("ledger.column.source"),
		p.Sprintf("ledger.column.seller"),
		p.Sprintf("ledger.column.surface"),
		p.Sprintf("ledger.column.price"),
	)
	for _, offer := range offers {
		lot := offer.Lot
		surface := p.Sprintf("ledger.surface.imposed", lot.Surface)
		if !lot.SurfaceImposed {
			surface = p.Sprintf("ledger.surface.free", lot.Surface)
		}
		price := "-"
		if offer.Price != nil {
			price = Money(p, offer.Price.Total)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", strconv.Itoa(lot.LotID), lot.Source, lot.SellerName, surface, price)
	}
	return tw.Flush()
}

// Money formats an amount in euros with two decimals and the language's
// digit grouping.
func Money(p *message.Printer, amount float64) string {
	return p.Sprintf("%.2f €", amount)
}
