package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpapi "github.com/infa-ajaykumar/RealityBuilder/http"
	"github.com/infa-ajaykumar/RealityBuilder/internal/cache"
	"github.com/infa-ajaykumar/RealityBuilder/internal/config"
	"github.com/infa-ajaykumar/RealityBuilder/internal/logger"
	"github.com/infa-ajaykumar/RealityBuilder/internal/ratelimit"
	"github.com/infa-ajaykumar/RealityBuilder/internal/redisx"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
)

func main() {
	logger.Init()
	cfg := config.Load()

	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx); err != nil {
		// Cache and rate limiter both fail open, so Redis being down is
		// degraded service, not a startup failure.
		log.Warn().Err(err).Msg("redis unreachable; cache and rate limiting degraded")
	}
	cancel()

	searchClient, err := search.New(cfg.SearchURL, cfg.SearchIndex)
	if err != nil {
		log.Fatal().Err(err).Msg("search client init failed")
	}
	pingCtx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
	if err := searchClient.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("search store unreachable at startup")
	}
	cancel()

	deps := httpapi.PropertiesDeps{
		Search:    searchClient,
		Cache:     cache.New(rdb, "props", cfg.PropertiesTTL),
		MetaCache: cache.New(rdb, "meta", cfg.MetadataTTL),
	}
	router := BuildRouter(deps, cfg.RatePoints, cfg.RateDuration, ratelimit.NewRedisCounter(rdb))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
		close(shutdownDone)
	}()

	log.Info().Int("port", cfg.Port).Str("index", cfg.SearchIndex).Msg("query api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	<-shutdownDone
}
