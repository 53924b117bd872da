// Package ledger wires the timeline report command.
package ledger

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	platformcmd "github.com/louisbranch/credit-castor/internal/platform/cmd"
	"github.com/louisbranch/credit-castor/internal/services/ledger/app"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
	"github.com/louisbranch/credit-castor/internal/services/ledger/projection"
	"github.com/louisbranch/credit-castor/internal/services/ledger/render"
	"github.com/louisbranch/credit-castor/internal/services/ledger/storage/sqlite"
	"golang.org/x/text/language"
)

// Config holds ledger command configuration.
type Config struct {
	Timeline string `env:"LEDGER_TIMELINE"`
	Params   string `env:"LEDGER_PARAMS"`
	DBPath   string `env:"LEDGER_DB_PATH"`
	Record   string `env:"LEDGER_RECORD"`
	Lang     string `env:"LEDGER_LANG" envDefault:"en"`
}

// ParseConfig reads the environment, then lets flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Timeline, "timeline", cfg.Timeline, "path to a timeline (.lua script or .json event list)")
	fs.StringVar(&cfg.Params, "params", cfg.Params, "path to a .toml or .yaml parameter file")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite event journal")
	fs.StringVar(&cfg.Record, "record", cfg.Record, "journal timeline id to record into and report from")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "report language (en, fr)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the timeline, projects it and writes the report to out.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	tag, err := language.Parse(cfg.Lang)
	if err != nil {
		return fmt.Errorf("parse lang %q: %w", cfg.Lang, err)
	}
	params := DefaultParams()
	if cfg.Params != "" {
		if params, err = LoadParams(cfg.Params); err != nil {
			return err
		}
	}
	var events []event.Event
	if cfg.Timeline != "" {
		if events, err = LoadEvents(cfg.Timeline); err != nil {
			return err
		}
	}

	logger := log.New(errOut, "", 0)
	var rep report
	if cfg.DBPath != "" {
		rep, err = journalReport(ctx, cfg, events, params, logger)
	} else {
		rep, err = memoryReport(events, params)
	}
	if err != nil {
		return err
	}

	if err := render.Phases(out, rep.phases, tag); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return render.AvailableLots(out, quote(rep.lots, rep.asOf, params), tag)
}

type report struct {
	phases []projection.Phase
	lots   []portage.AvailableLot
	asOf   ledger.State
}

func memoryReport(events []event.Event, params Params) (report, error) {
	if len(events) == 0 {
		return report{}, errors.New("timeline path is required")
	}
	phases, err := projection.ProjectTimeline(events, params.UnitDetails())
	if err != nil {
		return report{}, err
	}
	state, err := ledger.Replay(events)
	if err != nil {
		return report{}, err
	}
	return report{phases: phases, lots: portage.AvailableLots(state), asOf: state}, nil
}

// journalReport records events into the journal, if any, and reports from
// what the journal holds.
func journalReport(ctx context.Context, cfg Config, events []event.Event, params Params, logger *log.Logger) (report, error) {
	id := strings.TrimSpace(cfg.Record)
	if id == "" && cfg.Timeline != "" {
		id = timelineName(cfg.Timeline)
	}
	if id == "" {
		return report{}, errors.New("record id or timeline path is required with a journal")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return report{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("close journal: %v", err)
		}
	}()
	service, err := app.NewService(store, app.WithLogger(logger))
	if err != nil {
		return report{}, err
	}

	if len(events) > 0 {
		n, err := service.Import(ctx, id, events)
		if err != nil {
			return report{}, err
		}
		logger.Printf("journaled %d events on %s", n, id)
	}
	phases, err := service.Project(ctx, id, params.UnitDetails())
	if err != nil {
		return report{}, err
	}
	state, err := service.State(ctx, id)
	if err != nil {
		return report{}, err
	}
	return report{phases: phases, lots: portage.AvailableLots(state), asOf: state}, nil
}

// quote prices each lot as of the latest event. Copropriété lots are priced
// only when a base price is configured.
func quote(lots []portage.AvailableLot, state ledger.State, params Params) []render.Offer {
	offers := make([]render.Offer, 0, len(lots))
	for _, lot := range lots {
		offer := render.Offer{Lot: lot}
		if lot.Source == portage.SourceFounder || params.CoproBasePrice > 0 {
			q := portage.Quote{
				SaleDate:       state.CurrentDate,
				ChosenSurface:  lot.Surface,
				CoproBasePrice: params.CoproBasePrice,
			}
			if lot.Source == portage.SourceFounder {
				q.CarryingCosts = founderCarrying(lot, state)
			}
			if price, err := portage.PriceAvailableLot(lot, q, params.Formula); err == nil {
				offer.Price = &price
			}
		}
		offers = append(offers, offer)
	}
	return offers
}

func founderCarrying(lot portage.AvailableLot, state ledger.State) float64 {
	seller, ok := state.Participant(lot.SellerName)
	if !ok {
		return 0
	}
	held, ok := seller.Lot(lot.LotID)
	if !ok {
		return 0
	}
	in := portage.CarryingForLot(held, seller, state.CurrentDate, len(state.Participants))
	return portage.CarryingCosts(in).TotalForPeriod
}
