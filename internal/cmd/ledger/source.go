package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/tools/timeline"
)

// LoadEvents reads a timeline from a Lua script or a JSON event list.
func LoadEvents(path string) ([]event.Event, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lua":
		return timeline.LoadFile(path)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read timeline: %w", err)
		}
		events, err := event.UnmarshalList(data)
		if err != nil {
			return nil, fmt.Errorf("decode timeline %s: %w", path, err)
		}
		return events, nil
	default:
		return nil, fmt.Errorf("timeline file %s: unsupported extension %q", path, ext)
	}
}

// timelineName derives a journal id from the timeline file name.
func timelineName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
