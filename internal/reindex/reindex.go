// Package reindex re-projects the relational master into the search
// index. The ingest path already keeps both stores converged under
// redelivery; this job repairs the index after longer search-store
// outages or mapping rebuilds.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

type Config struct {
	PageSize int
	Interval time.Duration
}

type Job struct {
	Store  *store.Store
	Search *search.Client
	Config Config
}

func (j *Job) validate() error {
	if j == nil {
		return errors.New("nil reindex job")
	}
	if j.Store == nil {
		return errors.New("reindex job missing store")
	}
	if j.Search == nil {
		return errors.New("reindex job missing search client")
	}
	if j.Config.PageSize <= 0 {
		j.Config.PageSize = 500
	}
	return nil
}

// Run executes once immediately, then on every interval tick. A zero
// interval means run once and return.
func (j *Job) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		return j.RunOnce(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Dur("interval", interval).Msg("reindexer starting")
	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("reindexer initial run error")
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer stopping")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("reindexer iteration error")
			}
		}
	}
}

// RunOnce walks the whole properties table in id order and re-indexes
// every row through the same projection the ingest path uses.
func (j *Job) RunOnce(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	var afterID int64
	indexed := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		page, err := j.Store.ScanPage(ctx, afterID, j.Config.PageSize)
		if err != nil {
			return fmt.Errorf("scan after id %d: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}
		for _, l := range page {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := j.Search.IndexListing(ctx, search.FromListing(l)); err != nil {
				return fmt.Errorf("reindex %s: %w", l.SourceURL, err)
			}
			indexed++
		}
		afterID = page[len(page)-1].ID
	}
	log.Info().Int("indexed", indexed).Msg("reindex pass complete")
	return nil
}
