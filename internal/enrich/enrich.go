// Package enrich runs the best-effort stages between normalization and
// persistence: geocoding and near-duplicate detection. Neither stage may
// fail a message; degraded results publish as plain active listings.
package enrich

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/geocode"
	"github.com/infa-ajaykumar/RealityBuilder/internal/normalize"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

type CandidateFinder interface {
	FindDuplicateCandidates(ctx context.Context, q store.DuplicateQuery) ([]store.DuplicateCandidate, error)
}

// Thresholds parameterize the duplicate candidate filter. The lat/lon band
// is rectangular, not geodesic; it is a coarse pre-filter only.
type Thresholds struct {
	Lat        float64
	Lon        float64
	Similarity float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Lat: 1e-4, Lon: 1e-4, Similarity: 0.6}
}

// Result is what enrichment adds on top of a normalized record.
type Result struct {
	Latitude        *float64
	Longitude       *float64
	GeocodedPayload []byte
	Status          string
	DuplicateOfID   *int64
}

type Enricher struct {
	Geo        Geocoder
	Finder     CandidateFinder
	Thresholds Thresholds

	// GeocodeTimeout bounds each geocoder call independently of the
	// message-processing deadline.
	GeocodeTimeout time.Duration
}

func New(geo Geocoder, finder CandidateFinder, th Thresholds, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Enricher{Geo: geo, Finder: finder, Thresholds: th, GeocodeTimeout: timeout}
}

func (e *Enricher) Enrich(ctx context.Context, rec normalize.Record) Result {
	res := Result{Status: store.StatusActive}

	e.geocodeInto(ctx, rec, &res)
	e.dedupInto(ctx, rec, &res)

	return res
}

func (e *Enricher) geocodeInto(ctx context.Context, rec normalize.Record, res *Result) {
	if e.Geo == nil || rec.AddressRaw == "" {
		return
	}
	gctx, cancel := context.WithTimeout(ctx, e.GeocodeTimeout)
	defer cancel()

	fix, err := e.Geo.Geocode(gctx, rec.AddressRaw)
	if err != nil {
		log.Warn().Err(err).Str("source_url", rec.SourceURL).Msg("geocode failed; continuing without coordinates")
		return
	}
	if fix == nil {
		return
	}
	lat, lon := fix.Latitude, fix.Longitude
	res.Latitude = &lat
	res.Longitude = &lon
	res.GeocodedPayload = fix.Payload
}

func (e *Enricher) dedupInto(ctx context.Context, rec normalize.Record, res *Result) {
	if e.Finder == nil || res.Latitude == nil || res.Longitude == nil || rec.Title == "" {
		return
	}
	candidates, err := e.Finder.FindDuplicateCandidates(ctx, store.DuplicateQuery{
		Title:               rec.Title,
		SourceName:          rec.SourceName,
		Latitude:            *res.Latitude,
		Longitude:           *res.Longitude,
		LatThreshold:        e.Thresholds.Lat,
		LonThreshold:        e.Thresholds.Lon,
		SimilarityThreshold: e.Thresholds.Similarity,
	})
	if err != nil {
		// Safe default: publish as active rather than blocking ingest.
		log.Warn().Err(err).Str("source_url", rec.SourceURL).Msg("duplicate search failed; treating as no candidates")
		return
	}
	if len(candidates) == 0 {
		return
	}
	best := candidates[0]
	res.Status = store.StatusPotentialDuplicate
	res.DuplicateOfID = &best.ID
	log.Info().
		Str("source_url", rec.SourceURL).
		Int64("duplicate_of", best.ID).
		Float64("similarity", best.Similarity).
		Msg("marked potential duplicate")
}
