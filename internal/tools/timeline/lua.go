package timeline

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
)

const timelineTypeName = "timeline"

// LoadFile runs the script at path and returns the events of the timeline it
// builds.
func LoadFile(path string) ([]event.Event, error) {
	t, err := LoadTimelineFromFile(path)
	if err != nil {
		return nil, err
	}
	return t.Events()
}

// LoadTimelineFromFile runs the script at path and returns its timeline
// without building events.
func LoadTimelineFromFile(path string) (*Timeline, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("timeline script must return a Timeline")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	t, ok := ud.(*Timeline)
	if !ok || t == nil {
		return nil, fmt.Errorf("timeline script returned an invalid Timeline")
	}
	if strings.TrimSpace(t.Name) == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, timelineTypeName)
	state.NewTable()
	lua.SetFunctions(state, timelineMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, timelineConstructor, 0)
	state.SetGlobal("Timeline")
}

var timelineConstructor = []lua.RegistryFunction{
	{Name: "new", Function: timelineNew},
}

var timelineMethods = []lua.RegistryFunction{
	{Name: "purchase", Function: stepMethod(StepPurchase)},
	{Name: "newcomer", Function: stepMethod(StepNewcomer)},
	{Name: "reveal", Function: stepMethod(StepReveal)},
	{Name: "settle", Function: stepMethod(StepSettle)},
	{Name: "loan", Function: stepMethod(StepLoan)},
	{Name: "exit", Function: stepMethod(StepExit)},
}

func timelineNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	t := &Timeline{Name: name, Options: optionalTable(state, 2)}
	state.PushUserData(t)
	lua.SetMetaTableNamed(state, timelineTypeName)
	return 1
}

func stepMethod(kind StepKind) lua.Function {
	return func(state *lua.State) int {
		t := checkTimeline(state)
		lua.CheckType(state, 2, lua.TypeTable)
		t.Steps = append(t.Steps, Step{Kind: kind, Args: tableToMap(state, 2)})
		state.PushValue(1)
		return 1
	}
}

func checkTimeline(state *lua.State) *Timeline {
	ud := lua.CheckUserData(state, 1, timelineTypeName)
	if t, ok := ud.(*Timeline); ok && t != nil {
		return t
	}
	lua.ArgumentError(state, 1, "timeline expected")
	return nil
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a slice for sequences, nil for empty tables and a map
// otherwise.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		count++
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if count == 0 {
		return nil
	}
	if isArray && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
