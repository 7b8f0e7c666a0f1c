package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/internal/config"
	"github.com/infa-ajaykumar/RealityBuilder/internal/env"
	"github.com/infa-ajaykumar/RealityBuilder/internal/logger"
	"github.com/infa-ajaykumar/RealityBuilder/internal/reindex"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
	"github.com/infa-ajaykumar/RealityBuilder/internal/store"
)

func main() {
	logger.Init()
	cfg := config.Load()
	if cfg.PostgresDSN == "" {
		log.Fatal().Msg("PG_DSN must be provided")
	}

	pageSize := env.GetInt("REINDEX_PAGE_SIZE", 500)
	interval := env.GetDuration("REINDEX_INTERVAL", 0)
	runOnce := env.GetBool("REINDEX_RUN_ONCE", interval <= 0)

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

	job := &reindex.Job{
		Store:  st,
		Search: searchClient,
		Config: reindex.Config{PageSize: pageSize, Interval: interval},
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runOnce {
		if err := job.RunOnce(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("reindex run failed")
		}
		return
	}
	if err := job.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("reindexer stopped with error")
	}
}
