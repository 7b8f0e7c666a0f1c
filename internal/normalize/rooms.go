package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reBedrooms    = regexp.MustCompile(`(\d+)\s*(bedroom|bed|br)`)
	reBathrooms   = regexp.MustCompile(`([0-9.]+)\s*(bathroom|bath|ba)`)
	reBareInt     = regexp.MustCompile(`^\d+$`)
	reBareDecimal = regexp.MustCompile(`^[0-9.]+$`)
)

// ParseBedrooms maps "Studio" to 0. A bare integer counts when no bed
// keyword is present.
func ParseBedrooms(text string) *int {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}
	if strings.Contains(lower, "studio") {
		zero := 0
		return &zero
	}
	if m := reBedrooms.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	if reBareInt.MatchString(lower) {
		if n, err := strconv.Atoi(lower); err == nil {
			return &n
		}
	}
	return nil
}

// ParseBathrooms keeps half-steps (e.g. 2.5).
func ParseBathrooms(text string) *float64 {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}
	if m := reBathrooms.FindStringSubmatch(lower); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	if reBareDecimal.MatchString(lower) {
		if f, err := strconv.ParseFloat(lower, 64); err == nil {
			return &f
		}
	}
	return nil
}
