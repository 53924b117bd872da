package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
)

// StepKind names a timeline step.
type StepKind string

const (
	StepPurchase StepKind = "purchase"
	StepNewcomer StepKind = "newcomer"
	StepReveal   StepKind = "reveal"
	StepSettle   StepKind = "settle"
	StepLoan     StepKind = "loan"
	StepExit     StepKind = "exit"
)

// Timeline is the script's description of a co-ownership history.
type Timeline struct {
	Name string
	// Options holds the formula parameters given to Timeline.new.
	Options map[string]any
	Steps   []Step
}

// Step is one scripted event with its raw arguments.
type Step struct {
	Kind StepKind
	Args map[string]any
}

// FormulaParams returns the pricing parameters of the timeline, falling back
// to the defaults for anything the script leaves out.
func (t *Timeline) FormulaParams() (portage.FormulaParams, error) {
	params := portage.DefaultFormulaParams()
	if len(t.Options) == 0 {
		return params, nil
	}
	if err := decode(t.Options, &params); err != nil {
		return portage.FormulaParams{}, fmt.Errorf("timeline options: %w", err)
	}
	return params, nil
}

// Events builds the steps into events, folding each one so later steps can
// price against the state reached so far.
func (t *Timeline) Events() ([]event.Event, error) {
	if t == nil {
		return nil, fmt.Errorf("timeline is required")
	}
	params, err := t.FormulaParams()
	if err != nil {
		return nil, err
	}
	b := &builder{name: t.Name, params: params}
	events := make([]event.Event, 0, len(t.Steps))
	for i, step := range t.Steps {
		if i == 0 && step.Kind != StepPurchase {
			return nil, platformerrors.New(platformerrors.CodeTimelineStart,
				fmt.Sprintf("timeline %q must start with a purchase, got %s", t.Name, step.Kind))
		}
		evt, err := b.build(i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		if err := event.Validate(evt); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		next, err := ledger.Apply(b.state, evt)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		b.state = next
		events = append(events, evt)
	}
	return events, nil
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// decode maps raw step arguments onto target through their JSON names.
// Unknown keys are rejected so typos in scripts surface.
func decode(args map[string]any, target any) error {
	data, err := json.Marshal(expandDates(args))
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return platformerrors.Wrap(platformerrors.CodeInvalidEvent, "decode step arguments", err)
	}
	return nil
}

// expandDates rewrites YYYY-MM-DD strings as RFC 3339 midnight UTC.
func expandDates(value any) any {
	switch v := value.(type) {
	case string:
		if isoDate.MatchString(strings.TrimSpace(v)) {
			if day, err := time.Parse(time.DateOnly, strings.TrimSpace(v)); err == nil {
				return day.Format(time.RFC3339)
			}
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = expandDates(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = expandDates(item)
		}
		return out
	default:
		return v
	}
}
