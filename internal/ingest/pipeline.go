// Package ingest composes the per-message pipeline behind the durable
// queue: decode, normalize, enrich, then write master-first into both
// stores.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/infa-ajaykumar/RealityBuilder/internal/enrich"
	"github.com/infa-ajaykumar/RealityBuilder/internal/normalize"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

type Upserter interface {
	Upsert(ctx context.Context, l *store.Listing) error
}

type Indexer interface {
	IndexListing(ctx context.Context, doc search.Document) error
}

type Pipeline struct {
	Store    Upserter
	Search   Indexer
	Enricher *enrich.Enricher
}

// Process runs one message through C2→C3→C4. Any returned error maps to a
// nack without requeue at the consumer; the relational write is never
// rolled back when only the index write fails, because redelivery of the
// same source_url converges both stores.
func (p *Pipeline) Process(ctx context.Context, body []byte) error {
	msg, err := ParseMessage(body)
	if err != nil {
		return err
	}

	rec := normalize.Apply(msg.NormalizeInput(), time.Now().UTC())
	enr := p.Enricher.Enrich(ctx, rec)

	listing := buildListing(rec, enr)
	if err := p.Store.Upsert(ctx, &listing); err != nil {
		return fmt.Errorf("master upsert: %w", err)
	}
	if err := p.Search.IndexListing(ctx, search.FromListing(listing)); err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	return nil
}

func buildListing(rec normalize.Record, enr enrich.Result) store.Listing {
	return store.Listing{
		SourceURL:       rec.SourceURL,
		SourceName:      rec.SourceName,
		Title:           rec.Title,
		Description:     rec.Description,
		Images:          rec.Images,
		PriceAmount:     rec.PriceAmount,
		PriceText:       rec.PriceText,
		Currency:        rec.Currency,
		PriceUSD:        rec.PriceUSD,
		AddressRaw:      rec.AddressRaw,
		LocationText:    rec.LocationText,
		Latitude:        enr.Latitude,
		Longitude:       enr.Longitude,
		GeocodedPayload: enr.GeocodedPayload,
		Bedrooms:        rec.Bedrooms,
		Bathrooms:       rec.Bathrooms,
		AreaValue:       rec.AreaValue,
		AreaUnit:        rec.AreaUnit,
		AreaSqft:        rec.AreaSqft,
		PropertyType:    rec.PropertyType,
		Amenities:       rec.Amenities,
		DatePosted:      rec.DatePosted,
		ScrapeTimestamp: rec.ScrapeTimestamp,
		Status:          enr.Status,
		DuplicateOfID:   enr.DuplicateOfID,
	}
}
