// Package normalize turns raw scraped listing text into a typed record.
// Everything here is deterministic given (input, now), except the random
// suffix of the synthetic source_url given to inputs without one; parse
// failures degrade to absent fields so a messy source never poisons the
// pipeline.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTitle = "Untitled Listing"

// Input is the field bundle a queue message resolves to after decoding.
type Input struct {
	Title         string
	Description   string
	PriceText     string
	LocationText  string
	AddressRaw    string
	BedroomsText  string
	BathroomsText string
	AreaText      string
	Images        []string
	PropertyType  string
	Amenities     []string
	SourceURL     string
	SourceName    string
	DatePosted    string
}

// Record is the normalized intermediate listing handed to enrichment and
// persistence. Optional fields are nil pointers, never zero values.
type Record struct {
	SourceURL   string
	SourceName  string
	Title       string
	Description string
	Images      []string

	PriceText   string
	PriceAmount *float64
	Currency    *string
	PriceUSD    *float64

	AddressRaw   string
	LocationText string

	Bedrooms  *int
	Bathrooms *float64

	AreaValue *float64
	AreaUnit  *string
	AreaSqft  *float64

	PropertyType *string
	Amenities    []string

	DatePosted      *time.Time
	ScrapeTimestamp time.Time
}

// Apply runs the full normalization pass over one decoded message.
func Apply(in Input, now time.Time) Record {
	rec := Record{
		SourceURL:       strings.TrimSpace(in.SourceURL),
		SourceName:      strings.TrimSpace(in.SourceName),
		Title:           CollapseSpaces(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Images:          cleanImages(in.Images),
		PriceText:       strings.TrimSpace(in.PriceText),
		AddressRaw:      CollapseSpaces(in.AddressRaw),
		LocationText:    CollapseSpaces(in.LocationText),
		Amenities:       AmenitySet(in.Amenities),
		DatePosted:      ParseDate(in.DatePosted),
		ScrapeTimestamp: now.UTC(),
	}

	if rec.Title == "" {
		rec.Title = defaultTitle
	}
	if rec.SourceURL == "" {
		rec.SourceURL = syntheticURL(now)
	}

	rec.PriceAmount, rec.Currency = ParsePrice(rec.PriceText)
	if rec.PriceAmount != nil && rec.Currency != nil {
		rec.PriceUSD = ConvertToUSD(*rec.PriceAmount, *rec.Currency)
	}

	rec.AreaValue, rec.AreaUnit = ParseArea(in.AreaText)
	if rec.AreaValue != nil && rec.AreaUnit != nil {
		rec.AreaSqft = ConvertToSqft(*rec.AreaValue, *rec.AreaUnit)
	}

	rec.Bedrooms = ParseBedrooms(in.BedroomsText)
	rec.Bathrooms = ParseBathrooms(in.BathroomsText)

	if pt := strings.ToLower(strings.TrimSpace(in.PropertyType)); pt != "" {
		rec.PropertyType = &pt
	}

	return rec
}

// syntheticURL keeps the source_url uniqueness anchor intact for sources
// that omit one.
func syntheticURL(now time.Time) string {
	return fmt.Sprintf("missing_url_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}
