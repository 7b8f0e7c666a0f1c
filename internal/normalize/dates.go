package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate coerces source-provided date strings of any common layout to
// UTC. Unparseable input is absent, never an error.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
