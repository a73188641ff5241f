// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs a search end to end: the regulator fetches a page
// from a provider, enrichment attaches per-user metadata, and the finished
// result set is optionally handed to a cache in the background.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/search-aggregator/internal/cache"
	"github.com/pdiddy/search-aggregator/internal/metrics"
	"github.com/pdiddy/search-aggregator/internal/provider"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

const (
	defaultResultsPerPage    = 10
	defaultCacheWriteTimeout = 5 * time.Second

	unknownProvider = "unknown"
)

// Cache stores completed result sets. *cache.Redis implements it.
type Cache interface {
	AddSearchResults(ctx context.Context, key cache.Key, rs *types.ResultSet) error
}

// Options carries the collaborators of a Service. Registry is required.
type Options struct {
	Registry *provider.Registry

	// Regulator defaults to a FeedbackRegulator over Registry without
	// session bookmarks.
	Regulator Regulator

	// Enricher defaults to one with no feature services.
	Enricher *Enricher

	// Cache is written only when caching is enabled in the config.
	Cache Cache

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Service is the search entry point. It is safe for concurrent use.
type Service struct {
	cfg       types.SearchConfig
	registry  *provider.Registry
	regulator Regulator
	enricher  *Enricher
	cache     Cache
	logger    *slog.Logger
	metrics   *metrics.Metrics

	now     func() time.Time
	pending sync.WaitGroup
}

// NewService creates a Service.
func NewService(cfg types.SearchConfig, opts Options) (*Service, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("search service needs a provider registry")
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = defaultResultsPerPage
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = provider.ElasticsearchName
	}
	if cfg.CacheWriteTimeout <= 0 {
		cfg.CacheWriteTimeout = defaultCacheWriteTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	regulator := opts.Regulator
	if regulator == nil {
		regulator = NewFeedbackRegulator(opts.Registry, nil)
	}
	enricher := opts.Enricher
	if enricher == nil {
		enricher = NewEnricher(Features{}, cfg, logger, opts.Metrics)
	}
	return &Service{
		cfg:       cfg,
		registry:  opts.Registry,
		regulator: regulator,
		enricher:  enricher,
		cache:     opts.Cache,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}, nil
}

// Search runs req and returns the enriched result set. Provider, regulator
// and enrichment errors are returned unchanged; cache failures never are.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (*types.ResultSet, error) {
	start := s.now()
	req = s.withDefaults(req)

	rs, err := s.search(ctx, req, start)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = ErrorName(err)
		if outcome == "" {
			outcome = metrics.OutcomeError
		}
		s.logger.Info("search failed", "provider", req.ProviderName, "query", req.Query,
			"vertical", req.Vertical, "page", req.PageNumber, "error", err)
	} else {
		s.logger.Debug("search done", "id", rs.ID, "provider", req.ProviderName,
			"results", len(rs.Results), "matches", rs.Matches)
	}
	s.metrics.ObserveSearch(s.providerLabel(req.ProviderName), outcome, s.now().Sub(start))
	return rs, err
}

// providerLabel keeps the metrics provider label within the registered
// names; anything else is reported as unknownProvider.
func (s *Service) providerLabel(name string) string {
	if s.registry.Has(name) {
		return name
	}
	return unknownProvider
}

func (s *Service) search(ctx context.Context, req types.SearchRequest, start time.Time) (*types.ResultSet, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	timestamp := start.UnixMilli()

	page, err := s.regulator.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := s.enricher.Enrich(ctx, page.Results, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	rs := &types.ResultSet{
		ID:        ResultSetID(req.Query, req.PageNumber, req.Vertical, timestamp),
		Results:   results,
		Matches:   page.Matches,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	}

	if s.cfg.EnableCache && s.cache != nil {
		s.writeCache(ctx, cache.Key{
			Query:        req.Query,
			Vertical:     req.Vertical,
			PageNumber:   req.PageNumber,
			Timestamp:    timestamp,
			ProviderName: req.ProviderName,
		}, rs)
	}
	return rs, nil
}

// ResultSetID is query_page_vertical_timestamp, timestamp in Unix
// milliseconds.
func ResultSetID(query string, pageNumber int, vertical string, timestamp int64) string {
	return fmt.Sprintf("%s_%d_%s_%d", query, pageNumber, vertical, timestamp)
}

func (s *Service) withDefaults(req types.SearchRequest) types.SearchRequest {
	if req.ResultsPerPage == 0 {
		req.ResultsPerPage = s.cfg.ResultsPerPage
	}
	if req.PageNumber == 0 {
		req.PageNumber = 1
	}
	if req.ProviderName == "" {
		req.ProviderName = s.cfg.DefaultProvider
	}
	if req.RelevanceFeedback == "" {
		req.RelevanceFeedback = types.FeedbackNone
	}
	if req.DistributionOfLabour == "" {
		req.DistributionOfLabour = types.LabourNone
	}
	return req
}

// writeCache hands rs to the cache on a detached goroutine. The write
// outlives the request context and is bounded by the cache write timeout.
func (s *Service) writeCache(ctx context.Context, key cache.Key, rs *types.ResultSet) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CacheWriteTimeout)
		defer cancel()

		err := s.cache.AddSearchResults(wctx, key, rs)
		s.metrics.CacheWrite(err)
		if err != nil {
			s.logger.Warn("cache write failed", "id", rs.ID, "key", key.String(), "error", err)
		}
	}()
}

// Wait blocks until every background cache write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// DocumentResult is the envelope returned by GetByID.
type DocumentResult struct {
	Result *types.Document `json:"result" yaml:"result"`
}

// GetByID fetches one raw document from the named provider. There is no
// enrichment and no caching.
func (s *Service) GetByID(ctx context.Context, id, providerName string) (*DocumentResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is empty", ErrInvalidRequest)
	}
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	doc, err := s.registry.GetByID(ctx, id, providerName)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Result: doc}, nil
}

// Providers describes the registered providers.
func (s *Service) Providers() []provider.Info {
	return s.registry.Describe()
}
