package normalize

import (
	"strconv"
	"strings"
)

const (
	UnitSqft  = "sqft"
	UnitSqm   = "m²"
	UnitAcres = "acres"
)

var sqftFactors = map[string]float64{
	UnitSqft:  1,
	UnitSqm:   10.7639,
	UnitAcres: 43560,
}

// Token scan order matters: the first group that matches wins.
var areaUnitTokens = []struct {
	tokens []string
	unit   string
}{
	{[]string{"sqft", "sq.ft", "ft2"}, UnitSqft},
	{[]string{"m²", "sqm", "m2"}, UnitSqm},
	{[]string{"acres", "acre"}, UnitAcres},
}

// ParseArea extracts a numeric area and a canonical unit from free text.
func ParseArea(text string) (value *float64, unit *string) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	lower := strings.ToLower(text)
	cleaned := lower
	for _, group := range areaUnitTokens {
		for _, tok := range group.tokens {
			if strings.Contains(lower, tok) {
				if unit == nil {
					u := group.unit
					unit = &u
				}
				cleaned = strings.ReplaceAll(cleaned, tok, "")
			}
		}
		if unit != nil {
			break
		}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if m := reNumber.FindString(cleaned); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			value = &f
		}
	}
	return value, unit
}

// ConvertToSqft returns nil for unknown units.
func ConvertToSqft(value float64, unit string) *float64 {
	factor, ok := sqftFactors[unit]
	if !ok {
		return nil
	}
	sqft := value * factor
	return &sqft
}
