package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
	"gopkg.in/yaml.v3"
)

// Params are the report settings that do not belong in the event log.
type Params struct {
	Formula portage.FormulaParams `toml:"formula" yaml:"formula"`
	// CoproBasePrice values the copropriété's unsold surface when quoting
	// its lots. Zero leaves copropriété lots unpriced.
	CoproBasePrice float64     `toml:"copro_base_price" yaml:"copro_base_price"`
	Units          []UnitEntry `toml:"units" yaml:"units"`
}

// UnitEntry is one unit's construction constants.
type UnitEntry struct {
	ID             int     `toml:"id" yaml:"id"`
	Casco          float64 `toml:"casco" yaml:"casco"`
	Parachevements float64 `toml:"parachevements" yaml:"parachevements"`
}

// DefaultParams returns the default formula and no unit details.
func DefaultParams() Params {
	return Params{Formula: portage.DefaultFormulaParams()}
}

// UnitDetails indexes the units by id.
func (p Params) UnitDetails() model.UnitDetails {
	if len(p.Units) == 0 {
		return nil
	}
	units := make(model.UnitDetails, len(p.Units))
	for _, unit := range p.Units {
		units[unit.ID] = model.UnitCost{Casco: unit.Casco, Parachevements: unit.Parachevements}
	}
	return units
}

// LoadParams reads a TOML or YAML parameter file, chosen by extension.
// Fields the file leaves out keep their defaults.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&params)
		if err != nil {
			return Params{}, fmt.Errorf("decode params %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Params{}, fmt.Errorf("decode params %s: unknown keys %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&params); err != nil {
			return Params{}, fmt.Errorf("decode params %s: %w", path, err)
		}
	default:
		return Params{}, fmt.Errorf("params file %s: unsupported extension %q", path, ext)
	}
	for _, unit := range params.Units {
		if unit.ID <= 0 {
			return Params{}, fmt.Errorf("params file %s: unit id must be positive", path)
		}
	}
	return params, nil
}
