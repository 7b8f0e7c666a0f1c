package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in       string
		amount   float64
		hasAmt   bool
		currency string
	}{
		{"$1,500.50", 1500.50, true, "USD"},
		{"$2,000/month", 2000, true, "USD"},
		{"€1850/month", 1850, true, "EUR"},
		{"£900 per month", 900, true, "GBP"},
		{"1200 CAD", 1200, true, "CAD"},
		{"cad 1200", 1200, true, "CAD"},
		{"Contact agent", 0, false, ""},
		{"", 0, false, ""},
		{"USD", 0, false, "USD"},
	}
	for _, tc := range tests {
		amount, currency := ParsePrice(tc.in)
		if tc.hasAmt {
			require.NotNil(t, amount, "amount for %q", tc.in)
			assert.InDelta(t, tc.amount, *amount, 1e-9, "amount for %q", tc.in)
		} else {
			assert.Nil(t, amount, "amount for %q", tc.in)
		}
		if tc.currency != "" {
			require.NotNil(t, currency, "currency for %q", tc.in)
			assert.Equal(t, tc.currency, *currency)
		} else {
			assert.Nil(t, currency, "currency for %q", tc.in)
		}
	}
}

func TestSymbolWinsOverCode(t *testing.T) {
	_, currency := ParsePrice("$100 CAD")
	require.NotNil(t, currency)
	assert.Equal(t, "USD", *currency)
}

func TestConvertToUSD(t *testing.T) {
	usd := ConvertToUSD(100, "USD")
	require.NotNil(t, usd)
	assert.Equal(t, 100.0, *usd)

	eur := ConvertToUSD(100, "EUR")
	require.NotNil(t, eur)
	assert.InDelta(t, 108.0, *eur, 1e-9)

	assert.Nil(t, ConvertToUSD(100, "JPY"))
}

func TestParseArea(t *testing.T) {
	value, unit := ParseArea("900 sqft")
	require.NotNil(t, value)
	require.NotNil(t, unit)
	assert.Equal(t, 900.0, *value)
	assert.Equal(t, UnitSqft, *unit)

	value, unit = ParseArea("1,200 sq.ft")
	require.NotNil(t, value)
	require.NotNil(t, unit)
	assert.Equal(t, 1200.0, *value)
	assert.Equal(t, UnitSqft, *unit)

	value, unit = ParseArea("85 m2")
	require.NotNil(t, value)
	require.NotNil(t, unit)
	assert.Equal(t, 85.0, *value)
	assert.Equal(t, UnitSqm, *unit)

	value, unit = ParseArea("1 acres")
	require.NotNil(t, value)
	require.NotNil(t, unit)
	sqft := ConvertToSqft(*value, *unit)
	require.NotNil(t, sqft)
	assert.Equal(t, 43560.0, *sqft)

	value, unit = ParseArea("spacious")
	assert.Nil(t, value)
	assert.Nil(t, unit)
}

func TestConvertToSqft(t *testing.T) {
	sqm := ConvertToSqft(10, UnitSqm)
	require.NotNil(t, sqm)
	assert.InDelta(t, 107.639, *sqm, 1e-9)
	assert.Nil(t, ConvertToSqft(10, "hectares"))
}

func TestParseBedrooms(t *testing.T) {
	studio := ParseBedrooms("Studio")
	require.NotNil(t, studio)
	assert.Equal(t, 0, *studio)

	three := ParseBedrooms("3 Beds")
	require.NotNil(t, three)
	assert.Equal(t, 3, *three)

	br := ParseBedrooms("2br")
	require.NotNil(t, br)
	assert.Equal(t, 2, *br)

	bare := ParseBedrooms("4")
	require.NotNil(t, bare)
	assert.Equal(t, 4, *bare)

	assert.Nil(t, ParseBedrooms("spacious"))
	assert.Nil(t, ParseBedrooms(""))
}

func TestParseBathrooms(t *testing.T) {
	half := ParseBathrooms("1.5 Bathrooms")
	require.NotNil(t, half)
	assert.Equal(t, 1.5, *half)

	one := ParseBathrooms("1 Bath")
	require.NotNil(t, one)
	assert.Equal(t, 1.0, *one)

	bare := ParseBathrooms("2.5")
	require.NotNil(t, bare)
	assert.Equal(t, 2.5, *bare)

	assert.Nil(t, ParseBathrooms("none listed"))
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2024-03-05")
	require.NotNil(t, d)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.UTC, d.Location())

	assert.Nil(t, ParseDate("yesterday-ish"))
	assert.Nil(t, ParseDate(""))
}

func TestAmenitySet(t *testing.T) {
	set := AmenitySet([]string{"Pool, Gym , pool", "Parking"})
	assert.Equal(t, []string{"pool", "gym", "parking"}, set)

	assert.Empty(t, AmenitySet([]string{" , "}))
	assert.Empty(t, AmenitySet(nil))
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Apply(Input{}, now)

	assert.Equal(t, "Untitled Listing", rec.Title)
	assert.True(t, strings.HasPrefix(rec.SourceURL, "missing_url_"), rec.SourceURL)
	assert.Equal(t, now, rec.ScrapeTimestamp)
	assert.Nil(t, rec.PriceUSD)
	assert.Nil(t, rec.PropertyType)

	other := Apply(Input{}, now)
	assert.NotEqual(t, rec.SourceURL, other.SourceURL, "synthetic URLs must stay unique")
}

func TestApplyFull(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Apply(Input{
		Title:         "  Sunny   2BR ",
		PriceText:     "$2,000/month",
		BedroomsText:  "2 Beds",
		BathroomsText: "1 Bath",
		AreaText:      "900 sqft",
		LocationText:  "Seattle, WA",
		PropertyType:  " Apartment ",
		Amenities:     []string{"Pool,Gym"},
		SourceURL:     "https://example.com/u1",
		SourceName:    "S1",
		DatePosted:    "2024-05-30",
	}, now)

	assert.Equal(t, "Sunny 2BR", rec.Title)
	require.NotNil(t, rec.PriceUSD)
	assert.Equal(t, 2000.0, *rec.PriceUSD)
	require.NotNil(t, rec.Bedrooms)
	assert.Equal(t, 2, *rec.Bedrooms)
	require.NotNil(t, rec.Bathrooms)
	assert.Equal(t, 1.0, *rec.Bathrooms)
	require.NotNil(t, rec.AreaSqft)
	assert.Equal(t, 900.0, *rec.AreaSqft)
	require.NotNil(t, rec.PropertyType)
	assert.Equal(t, "apartment", *rec.PropertyType)
	assert.Equal(t, []string{"pool", "gym"}, rec.Amenities)
	require.NotNil(t, rec.DatePosted)

	// normalized USD present implies numeric amount and currency present
	require.NotNil(t, rec.PriceAmount)
	require.NotNil(t, rec.Currency)
}
