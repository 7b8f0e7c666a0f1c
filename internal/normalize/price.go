package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Fixed conversion table. Rates are refreshed by redeploy, not at runtime.
var usdRates = map[string]float64{
	"USD": 1.00,
	"EUR": 1.08,
	"CAD": 0.73,
	"GBP": 1.26,
}

var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
}

// CAD has no unambiguous symbol and is matched by code only.
var currencyCodes = []string{"USD", "EUR", "CAD", "GBP"}

var (
	reNumber     = regexp.MustCompile(`[0-9.]+`)
	rePerMonth   = regexp.MustCompile(`(?i)/month|per month`)
	reCurrencies = regexp.MustCompile(`(?i)USD|EUR|CAD|GBP`)
)

// ParsePrice extracts an amount and a currency from free-form price text.
// Either may be absent; unparseable input degrades to absent rather than
// failing the record.
func ParsePrice(text string) (amount *float64, currency *string) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	currency = detectCurrency(text)

	cleaned := text
	for _, c := range currencySymbols {
		cleaned = strings.ReplaceAll(cleaned, c.symbol, "")
	}
	cleaned = reCurrencies.ReplaceAllString(cleaned, "")
	cleaned = rePerMonth.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if m := reNumber.FindString(cleaned); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			amount = &f
		}
	}
	return amount, currency
}

func detectCurrency(text string) *string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			code := c.code
			return &code
		}
	}
	upper := strings.ToUpper(text)
	for _, code := range currencyCodes {
		if strings.Contains(upper, code) {
			code := code
			return &code
		}
	}
	return nil
}

// ConvertToUSD returns nil for currencies outside the rate table.
func ConvertToUSD(amount float64, currency string) *float64 {
	rate, ok := usdRates[strings.ToUpper(currency)]
	if !ok {
		return nil
	}
	usd := amount * rate
	return &usd
}
