package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/geocode"
	"github.com/infa-ajaykumar/RealityBuilder/internal/config"
	"github.com/infa-ajaykumar/RealityBuilder/internal/enrich"
	"github.com/infa-ajaykumar/RealityBuilder/internal/ingest"
	"github.com/infa-ajaykumar/RealityBuilder/internal/logger"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

func main() {
	logger.Init()
	cfg := config.Load()
	if cfg.PostgresDSN == "" {
		log.Fatal().Msg("PG_DSN must be provided")
	}

	st, err := store.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer st.DB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("postgres ping failed")
	}
	if err := st.Migrate(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("postgres migrate failed")
	}
	cancel()

	searchClient, err := search.New(cfg.SearchURL, cfg.SearchIndex)
	if err != nil {
		log.Fatal().Err(err).Msg("search client init failed")
	}
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := searchClient.EnsureIndex(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("search index bootstrap failed")
	}
	cancel()

	geocoder := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderAPIKey, cfg.GeocoderTimeout)
	enricher := enrich.New(geocoder, st, enrich.Thresholds{
		Lat:        cfg.DedupLatThreshold,
		Lon:        cfg.DedupLonThreshold,
		Similarity: cfg.DedupTitleThreshold,
	}, cfg.GeocoderTimeout)

	consumer := &ingest.Consumer{
		URL:     cfg.AMQPURL,
		Queue:   cfg.QueueName,
		Workers: cfg.IngestWorkers,
		Pipeline: &ingest.Pipeline{
			Store:    st,
			Search:   searchClient,
			Enricher: enricher,
		},
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.QueueName).Int("workers", cfg.IngestWorkers).Msg("ingestor consuming")
	if err := consumer.Run(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("ingestor stopped with error")
	}
	log.Info().Msg("ingestor drained and stopped")
}
