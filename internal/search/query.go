package search

import (
	"fmt"
	"strings"
)

const (
	SortPrice     = "price"
	SortDate      = "date"
	SortArea      = "area"
	SortRelevance = "relevance"
	SortDistance  = "distance"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Params is the validated query surface of GET /properties. Nil pointer
// means the filter was not supplied.
type Params struct {
	Query string

	Lat      *float64
	Lon      *float64
	RadiusKM *float64

	MinPrice *float64
	MaxPrice *float64

	PropertyTypes []string

	MinBeds *int
	MaxBeds *int

	MinBaths *float64
	MaxBaths *float64

	MinAreaSqft *float64
	MaxAreaSqft *float64

	Amenities []string

	SortBy string
	Order  string

	Page  int
	Limit int
}

func (p Params) HasGeo() bool {
	return p.Lat != nil && p.Lon != nil && p.RadiusKM != nil
}

// EffectiveSort resolves defaults: free text ranks by relevance, geo
// queries by distance (ascending), everything else by freshness.
func (p Params) EffectiveSort() (sortBy, order string) {
	sortBy = p.SortBy
	if sortBy == "" {
		switch {
		case p.Query != "":
			sortBy = SortRelevance
		case p.HasGeo():
			sortBy = SortDistance
		default:
			sortBy = SortDate
		}
	}
	order = p.Order
	if order == "" {
		if sortBy == SortDistance {
			order = OrderAsc
		} else {
			order = OrderDesc
		}
	}
	return sortBy, order
}

// BuildSearchBody assembles the full request body: bool query with the
// implicit active-status filter, resolved sort with tie-breaks, and
// from/size pagination.
func BuildSearchBody(p Params) map[string]any {
	filters := []any{
		map[string]any{"term": map[string]any{"status": "active"}},
	}

	if p.HasGeo() {
		filters = append(filters, map[string]any{
			"geo_distance": map[string]any{
				"distance":             fmt.Sprintf("%gkm", *p.RadiusKM),
				"location_coordinates": map[string]any{"lat": *p.Lat, "lon": *p.Lon},
			},
		})
	}

	if r := floatRange(p.MinPrice, p.MaxPrice); r != nil {
		filters = append(filters, map[string]any{"range": map[string]any{"normalized_price_usd": r}})
	}
	if r := intRange(p.MinBeds, p.MaxBeds); r != nil {
		filters = append(filters, map[string]any{"range": map[string]any{"bedrooms": r}})
	}
	if r := floatRange(p.MinBaths, p.MaxBaths); r != nil {
		filters = append(filters, map[string]any{"range": map[string]any{"bathrooms": r}})
	}
	if r := floatRange(p.MinAreaSqft, p.MaxAreaSqft); r != nil {
		filters = append(filters, map[string]any{"range": map[string]any{"normalized_area_sqft": r}})
	}

	if len(p.PropertyTypes) > 0 {
		types := make([]string, 0, len(p.PropertyTypes))
		for _, t := range p.PropertyTypes {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			filters = append(filters, map[string]any{"terms": map[string]any{"property_type.keyword": types}})
		}
	}

	// Amenities are AND-combined: one term filter each.
	for _, a := range p.Amenities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		filters = append(filters, map[string]any{"term": map[string]any{"amenities": a}})
	}

	boolQuery := map[string]any{"filter": filters}
	if p.Query != "" {
		boolQuery["must"] = []any{
			map[string]any{
				"multi_match": map[string]any{
					"query": p.Query,
					"fields": []string{
						"title^3",
						"location_text^2",
						"address_raw^2",
						"description",
						"source_name",
						"property_type",
						"amenities",
					},
					"fuzziness": "AUTO",
					"operator":  "or",
				},
			},
		}
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = 10
	}

	return map[string]any{
		"query":            map[string]any{"bool": boolQuery},
		"sort":             buildSort(p),
		"from":             (page - 1) * limit,
		"size":             limit,
		"track_total_hits": true,
	}
}

func buildSort(p Params) []any {
	sortBy, order := p.EffectiveSort()

	var primary any
	primaryField := ""
	switch sortBy {
	case SortPrice:
		primaryField = "normalized_price_usd"
	case SortArea:
		primaryField = "normalized_area_sqft"
	case SortDate:
		primaryField = "date_posted"
	case SortRelevance:
		primaryField = "_score"
	case SortDistance:
		if p.HasGeo() {
			primary = map[string]any{
				"_geo_distance": map[string]any{
					"location_coordinates": map[string]any{"lat": *p.Lat, "lon": *p.Lon},
					"order":                order,
					"unit":                 "km",
				},
			}
		} else {
			primaryField = "date_posted"
		}
	default:
		primaryField = "date_posted"
	}
	if primary == nil {
		primary = map[string]any{primaryField: map[string]any{"order": order}}
	}

	sort := []any{primary}
	if primaryField != "date_posted" {
		sort = append(sort, map[string]any{"date_posted": map[string]any{"order": OrderDesc}})
	}
	if primaryField != "_score" {
		sort = append(sort, map[string]any{"_score": map[string]any{"order": OrderDesc}})
	}
	return sort
}

func floatRange(min, max *float64) map[string]any {
	if min == nil && max == nil {
		return nil
	}
	r := map[string]any{}
	if min != nil {
		r["gte"] = *min
	}
	if max != nil {
		r["lte"] = *max
	}
	return r
}

func intRange(min, max *int) map[string]any {
	if min == nil && max == nil {
		return nil
	}
	r := map[string]any{}
	if min != nil {
		r["gte"] = *min
	}
	if max != nil {
		r["lte"] = *max
	}
	return r
}
