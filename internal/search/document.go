package search

import (
	"time"

	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

// GeoPoint is the lat/lon pair Elasticsearch expects for geo_point fields.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Document is the indexed projection of a master listing. Both the ingest
// path and the reindexer build documents through FromListing so the
// projection never diverges.
type Document struct {
	PropertyID  int64    `json:"property_id"`
	SourceURL   string   `json:"source_url"`
	SourceName  string   `json:"source_name"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`

	PriceOriginalNumeric *float64 `json:"price_original_numeric,omitempty"`
	PriceOriginalText    string   `json:"price_original_text,omitempty"`
	CurrencyOriginal     *string  `json:"currency_original,omitempty"`
	NormalizedPriceUSD   *float64 `json:"normalized_price_usd,omitempty"`

	AddressRaw          string    `json:"address_raw,omitempty"`
	LocationText        string    `json:"location_text,omitempty"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	LocationCoordinates *GeoPoint `json:"location_coordinates,omitempty"`

	Bedrooms           *int     `json:"bedrooms,omitempty"`
	Bathrooms          *float64 `json:"bathrooms,omitempty"`
	AreaOriginalValue  *float64 `json:"area_original_value,omitempty"`
	AreaUnitOriginal   *string  `json:"area_unit_original,omitempty"`
	NormalizedAreaSqft *float64 `json:"normalized_area_sqft,omitempty"`

	PropertyType *string  `json:"property_type,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`

	DatePosted      *time.Time `json:"date_posted,omitempty"`
	ScrapeTimestamp time.Time  `json:"scrape_timestamp"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Status                string `json:"status"`
	DuplicateOfPropertyID *int64 `json:"duplicate_of_property_id,omitempty"`
}

// FromListing projects a master row into its search document. The raw
// geocoder payload stays in the master store only.
func FromListing(l store.Listing) Document {
	doc := Document{
		PropertyID:            l.ID,
		SourceURL:             l.SourceURL,
		SourceName:            l.SourceName,
		Title:                 l.Title,
		Description:           l.Description,
		Images:                l.Images,
		PriceOriginalNumeric:  l.PriceAmount,
		PriceOriginalText:     l.PriceText,
		CurrencyOriginal:      l.Currency,
		NormalizedPriceUSD:    l.PriceUSD,
		AddressRaw:            l.AddressRaw,
		LocationText:          l.LocationText,
		Latitude:              l.Latitude,
		Longitude:             l.Longitude,
		Bedrooms:              l.Bedrooms,
		Bathrooms:             l.Bathrooms,
		AreaOriginalValue:     l.AreaValue,
		AreaUnitOriginal:      l.AreaUnit,
		NormalizedAreaSqft:    l.AreaSqft,
		PropertyType:          l.PropertyType,
		Amenities:             l.Amenities,
		DatePosted:            l.DatePosted,
		ScrapeTimestamp:       l.ScrapeTimestamp,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
		Status:                l.Status,
		DuplicateOfPropertyID: l.DuplicateOfID,
	}
	if l.Latitude != nil && l.Longitude != nil {
		doc.LocationCoordinates = &GeoPoint{Lat: *l.Latitude, Lon: *l.Longitude}
	}
	return doc
}
