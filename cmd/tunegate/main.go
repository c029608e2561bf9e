// Command tunegate serves music track search and audio streaming over HTTP,
// backed by external catalog and extraction sidecars.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/cache"
	"github.com/spicezify/tunegate/internal/config"
	"github.com/spicezify/tunegate/internal/discover"
	"github.com/spicezify/tunegate/internal/filter"
	"github.com/spicezify/tunegate/internal/resolve"
	"github.com/spicezify/tunegate/internal/server"
	"github.com/spicezify/tunegate/internal/stream"
	"github.com/spicezify/tunegate/internal/track"
	"github.com/spicezify/tunegate/internal/upstream"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger); err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probes, err := cache.New[*track.Probe](
		cache.WithMaxSize(cfg.ProbeCacheSize),
		cache.WithDefaultTTL(cfg.ProbeCacheTTL),
		cache.WithLogger(logger))
	if err != nil {
		return err
	}
	responses, err := cache.New[*track.SearchResponse](
		cache.WithMaxSize(cfg.SearchCacheSize),
		cache.WithDefaultTTL(cfg.SearchCacheTTL),
		cache.WithLogger(logger))
	if err != nil {
		return err
	}

	primary, err := upstream.NewCatalogClient(cfg.CatalogBaseURL, cfg.UpstreamTimeout, logger)
	if err != nil {
		return err
	}
	var secondary upstream.Searcher
	if cfg.FallbackCatalogBaseURL != "" {
		fallback, err := upstream.NewCatalogClient(cfg.FallbackCatalogBaseURL, cfg.UpstreamTimeout, logger)
		if err != nil {
			return err
		}
		secondary = fallback
	}
	extractor, err := upstream.NewExtractorClient(cfg.ExtractorBaseURL, cfg.UpstreamTimeout, logger)
	if err != nil {
		return err
	}

	orchestrator := discover.New(discover.Params{
		Primary:          primary,
		Secondary:        secondary,
		Extractor:        extractor,
		Engine:           filter.NewEngine(cfg.VerifiedChannelIDs),
		Probes:           probes,
		Responses:        responses,
		ProbeConcurrency: cfg.ProbeConcurrency,
		OverscanFactor:   cfg.OverscanFactor,
		DefaultLimit:     cfg.DefaultResults,
		MaxLimit:         cfg.MaxResults,
		Logger:           logger,
	})

	resolver, err := resolve.New(extractor, cfg.ResolvedURLTTL, logger)
	if err != nil {
		return err
	}
	proxy := stream.New(resolver, cfg.StreamHeaderTimeout, logger)

	srv, err := server.New(server.Config{
		Addr:            cfg.ListenAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, orchestrator, proxy, map[string]server.StatsSource{
		"search": responses,
		"probes": probes,
	}, logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
