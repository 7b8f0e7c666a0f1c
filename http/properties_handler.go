package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/internal/cache"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
)

// Searcher is the slice of the search store the API reads from.
type Searcher interface {
	Search(ctx context.Context, p search.Params) (*search.Result, error)
	Metadata(ctx context.Context) (*search.Metadata, error)
}

type PropertiesDeps struct {
	Search    Searcher
	Cache     *cache.Cache // properties responses
	MetaCache *cache.Cache // filter metadata responses
}

type propertiesResponse struct {
	Items      []search.Document `json:"items"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	TotalItems int64             `json:"total_items"`
	Limit      int               `json:"limit"`
	NextPage   *int              `json:"next_page"`
	PrevPage   *int              `json:"prev_page"`
}

func RegisterProperties(r chi.Router, d PropertiesDeps) {
	r.Get("/properties", func(w http.ResponseWriter, req *http.Request) {
		params, reason := parseSearchParams(req.URL.Query())
		if reason != "" {
			writeError(w, req, http.StatusBadRequest, reason)
			return
		}

		payload, hit, err := d.Cache.GetOrCompute(req.Context(), cacheParams(req.URL.Query()), func(ctx context.Context) ([]byte, error) {
			result, err := d.Search.Search(ctx, *params)
			if err != nil {
				return nil, err
			}
			return json.Marshal(paginate(result, params.Page, params.Limit))
		})
		if err != nil {
			log.Error().Err(err).Msg("properties search failed")
			writeError(w, req, http.StatusInternalServerError, "search unavailable")
			return
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
		}
		writeRawJSON(w, payload)
	})

	r.Get("/properties/filters/metadata", func(w http.ResponseWriter, req *http.Request) {
		payload, hit, err := d.MetaCache.GetOrCompute(req.Context(), cacheParams(req.URL.Query()), func(ctx context.Context) ([]byte, error) {
			meta, err := d.Search.Metadata(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(meta)
		})
		if err != nil {
			log.Error().Err(err).Msg("filter metadata failed")
			writeError(w, req, http.StatusInternalServerError, "search unavailable")
			return
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
		}
		writeRawJSON(w, payload)
	})
}

func paginate(result *search.Result, page, limit int) propertiesResponse {
	totalPages := int((result.Total + int64(limit) - 1) / int64(limit))
	resp := propertiesResponse{
		Items:      result.Items,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: result.Total,
		Limit:      limit,
	}
	if page < totalPages {
		next := page + 1
		resp.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		resp.PrevPage = &prev
	}
	return resp
}

// cacheParams flattens the query into the map the cache key hashes.
// Identical parameter sets hash identically regardless of ordering.
func cacheParams(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}

// parseSearchParams validates the full query surface. The returned reason
// is empty on success.
func parseSearchParams(q url.Values) (*search.Params, string) {
	p := &search.Params{
		Query: strings.TrimSpace(q.Get("q")),
		Page:  1,
		Limit: 10,
	}

	var err error
	if p.Lat, err = floatParam(q, "lat"); err != nil {
		return nil, "lat must be a number"
	}
	if p.Lon, err = floatParam(q, "lon"); err != nil {
		return nil, "lon must be a number"
	}
	if p.RadiusKM, err = floatParam(q, "radius_km"); err != nil {
		return nil, "radius_km must be a number"
	}
	geoGiven := p.Lat != nil || p.Lon != nil || p.RadiusKM != nil
	if geoGiven {
		if !p.HasGeo() {
			return nil, "geo filter requires lat, lon and radius_km together"
		}
		if *p.RadiusKM <= 0 {
			return nil, "radius_km must be greater than zero"
		}
	}

	if p.MinPrice, err = floatParam(q, "min_price"); err != nil {
		return nil, "min_price must be a number"
	}
	if p.MaxPrice, err = floatParam(q, "max_price"); err != nil {
		return nil, "max_price must be a number"
	}
	if p.MinBeds, err = intParam(q, "min_beds"); err != nil {
		return nil, "min_beds must be an integer"
	}
	if p.MaxBeds, err = intParam(q, "max_beds"); err != nil {
		return nil, "max_beds must be an integer"
	}
	if p.MinBaths, err = floatParam(q, "min_baths"); err != nil {
		return nil, "min_baths must be a number"
	}
	if p.MaxBaths, err = floatParam(q, "max_baths"); err != nil {
		return nil, "max_baths must be a number"
	}
	if p.MinAreaSqft, err = floatParam(q, "min_area_sqft"); err != nil {
		return nil, "min_area_sqft must be a number"
	}
	if p.MaxAreaSqft, err = floatParam(q, "max_area_sqft"); err != nil {
		return nil, "max_area_sqft must be a number"
	}

	p.PropertyTypes = listParam(q.Get("property_type"))
	p.Amenities = listParam(q.Get("amenities"))

	switch sortBy := q.Get("sort_by"); sortBy {
	case "", search.SortPrice, search.SortDate, search.SortArea, search.SortRelevance:
		p.SortBy = sortBy
	case search.SortDistance:
		if !p.HasGeo() {
			return nil, "sort_by=distance requires the geo filter"
		}
		p.SortBy = sortBy
	default:
		return nil, "sort_by must be one of price, date, area, relevance, distance"
	}

	switch order := q.Get("order"); order {
	case "", search.OrderAsc, search.OrderDesc:
		p.Order = order
	default:
		return nil, "order must be asc or desc"
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, "page must be a positive integer"
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, "limit must be a positive integer"
		}
		p.Limit = n
	}

	return p, ""
}

func floatParam(q url.Values, name string) (*float64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func intParam(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func listParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
