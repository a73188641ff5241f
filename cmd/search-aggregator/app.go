// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/search-aggregator/internal/api"
	"github.com/pdiddy/search-aggregator/internal/cache"
	"github.com/pdiddy/search-aggregator/internal/features"
	"github.com/pdiddy/search-aggregator/internal/metrics"
	"github.com/pdiddy/search-aggregator/internal/provider"
	"github.com/pdiddy/search-aggregator/internal/search"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// app holds the wired components of one process.
type app struct {
	svc     *search.Service
	store   *features.Store
	cache   *cache.Redis
	metrics *metrics.Metrics
	checks  map[string]api.Pinger
}

// newApp builds providers, feature store, cache and search service from cfg.
func newApp(cfg types.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &app{
		metrics: metrics.New(),
		checks:  make(map[string]api.Pinger),
	}

	var providers []provider.Provider
	if cfg.Elasticsearch.URL != "" {
		verticals, err := provider.ElasticsearchDatasets(cfg.Elasticsearch)
		if err != nil {
			return nil, err
		}
		es, err := provider.NewElasticsearch(cfg.Elasticsearch, verticals)
		if err != nil {
			return nil, err
		}
		providers = append(providers, es)
		a.checks[provider.ElasticsearchName] = es
	}
	if bing := provider.NewBing(cfg.Bing); bing != nil {
		providers = append(providers, bing)
	}
	if len(providers) == 0 {
		return nil, errors.New("no search providers configured: set elasticsearch.url or bing.api_key")
	}
	registry, err := provider.NewRegistry(providers...)
	if err != nil {
		return nil, err
	}

	store, err := features.NewStore(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("opening feature store: %w", err)
	}
	a.store = store
	a.checks["features"] = store

	opts := search.Options{
		Registry:  registry,
		Regulator: search.NewFeedbackRegulator(registry, store),
		Enricher: search.NewEnricher(search.Features{
			Bookmarks:   store,
			Annotations: store,
			Ratings:     store,
			Views:       store,
		}, cfg.Search, logger, a.metrics),
		Logger:  logger,
		Metrics: a.metrics,
	}

	if cfg.Redis.URL != "" {
		c, err := cache.New(cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cache = c
		a.checks["redis"] = c
		opts.Cache = c
	} else if cfg.Search.EnableCache {
		logger.Warn("search.enable_cache is set but redis.url is empty; caching disabled")
	}

	svc, err := search.NewService(cfg.Search, opts)
	if err != nil {
		a.close()
		return nil, err
	}
	a.svc = svc
	return a, nil
}

// close waits for pending cache writes, then releases the store and cache.
func (a *app) close() {
	if a.svc != nil {
		a.svc.Wait()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
