package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const facetBucketSize = 50

// RangeFacet carries min/max bounds; nil when no active listing has the
// field.
type RangeFacet struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type TermBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Metadata is the facet bundle backing the filter UI.
type Metadata struct {
	Price         RangeFacet   `json:"price"`
	Bedrooms      RangeFacet   `json:"bedrooms"`
	Bathrooms     RangeFacet   `json:"bathrooms"`
	AreaSqft      RangeFacet   `json:"area_sqft"`
	PropertyTypes []TermBucket `json:"property_types"`
	Amenities     []TermBucket `json:"amenities"`
	Locations     []TermBucket `json:"locations"`
}

// Aggregates over active listings only, matching the search surface.
func metadataBody() map[string]any {
	return map[string]any{
		"size":  0,
		"query": map[string]any{"term": map[string]any{"status": "active"}},
		"aggs": map[string]any{
			"price_stats":     map[string]any{"stats": map[string]any{"field": "normalized_price_usd"}},
			"bedrooms_stats":  map[string]any{"stats": map[string]any{"field": "bedrooms"}},
			"bathrooms_stats": map[string]any{"stats": map[string]any{"field": "bathrooms"}},
			"area_stats":      map[string]any{"stats": map[string]any{"field": "normalized_area_sqft"}},
			"property_types": map[string]any{
				"terms": map[string]any{"field": "property_type.keyword", "size": facetBucketSize},
			},
			"amenities": map[string]any{
				"terms": map[string]any{"field": "amenities", "size": facetBucketSize * 2},
			},
			"locations": map[string]any{
				"terms": map[string]any{"field": "address_raw.keyword", "size": facetBucketSize},
			},
		},
	}
}

func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	body, err := json.Marshal(metadataBody())
	if err != nil {
		return nil, fmt.Errorf("encode metadata query: %w", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("metadata search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("metadata search: %s", res.String())
	}

	var decoded struct {
		Aggregations struct {
			PriceStats     statsAgg `json:"price_stats"`
			BedroomsStats  statsAgg `json:"bedrooms_stats"`
			BathroomsStats statsAgg `json:"bathrooms_stats"`
			AreaStats      statsAgg `json:"area_stats"`
			PropertyTypes  termsAgg `json:"property_types"`
			Amenities      termsAgg `json:"amenities"`
			Locations      termsAgg `json:"locations"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}

	aggs := decoded.Aggregations
	return &Metadata{
		Price:         RangeFacet{Min: aggs.PriceStats.Min, Max: aggs.PriceStats.Max},
		Bedrooms:      RangeFacet{Min: aggs.BedroomsStats.Min, Max: aggs.BedroomsStats.Max},
		Bathrooms:     RangeFacet{Min: aggs.BathroomsStats.Min, Max: aggs.BathroomsStats.Max},
		AreaSqft:      RangeFacet{Min: aggs.AreaStats.Min, Max: aggs.AreaStats.Max},
		PropertyTypes: aggs.PropertyTypes.terms(),
		Amenities:     aggs.Amenities.terms(),
		Locations:     aggs.Locations.terms(),
	}, nil
}

type statsAgg struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type termsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int64  `json:"doc_count"`
	} `json:"buckets"`
}

func (t termsAgg) terms() []TermBucket {
	out := make([]TermBucket, 0, len(t.Buckets))
	for _, b := range t.Buckets {
		out = append(out, TermBucket{Key: b.Key, Count: b.DocCount})
	}
	return out
}
