// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/search-aggregator/internal/metrics"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// Feature service names, as used in errors, logs and metrics.
const (
	ServiceBookmarks   = "bookmarks"
	ServiceAnnotations = "annotations"
	ServiceRatings     = "ratings"
	ServiceViews       = "views"
)

// BookmarkService looks up the bookmark state of a result. With exclude
// set it answers whether the result was excluded from the session.
type BookmarkService interface {
	GetBookmark(ctx context.Context, sessionID, resultID string, exclude bool) (*types.Bookmark, error)
}

// AnnotationService returns the notes left on a result.
type AnnotationService interface {
	GetAnnotations(ctx context.Context, sessionID, resultID string) ([]types.Annotation, error)
}

// RatingService returns a user's rating of a result plus the session total.
type RatingService interface {
	GetRating(ctx context.Context, sessionID, resultID, userID string) (*types.Rating, error)
}

// ViewService counts how often a URL was opened in the session.
type ViewService interface {
	GetViews(ctx context.Context, sessionID, url string) (int, error)
}

// Features bundles the four feature services. A nil member is skipped and
// its metadata field stays empty.
type Features struct {
	Bookmarks   BookmarkService
	Annotations AnnotationService
	Ratings     RatingService
	Views       ViewService
}

// Enricher attaches per-user metadata to results.
type Enricher struct {
	features       Features
	policy         types.EnrichmentPolicy
	maxConcurrency int
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// NewEnricher creates an Enricher. An empty policy means all-or-nothing.
func NewEnricher(features Features, cfg types.SearchConfig, logger *slog.Logger, m *metrics.Metrics) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.EnrichmentPolicy
	if policy == "" {
		policy = types.PolicyAllOrNothing
	}
	return &Enricher{
		features:       features,
		policy:         policy,
		maxConcurrency: cfg.MaxConcurrency,
		logger:         logger,
		metrics:        m,
	}
}

// Enrich runs every lookup for every result concurrently and returns copies
// of results, in input order, each carrying its metadata.
//
// Lookups never cancel each other. Under PolicyAllOrNothing any failure
// fails the call once all lookups have finished; under PolicyDegrade the
// failed field is left empty and the failure is only logged and counted.
func (e *Enricher) Enrich(ctx context.Context, results []types.Result, sessionID, userID string) ([]types.Result, error) {
	metas := make([]types.ResultMetadata, len(results))

	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	for i, r := range results {
		key := r.Key()
		viewKey := r.URL
		if viewKey == "" {
			viewKey = key
		}
		// Each lookup writes a distinct field of metas[i].
		m := &metas[i]

		if f := e.features.Bookmarks; f != nil {
			e.run(&g, ServiceBookmarks, key, func() error {
				b, err := f.GetBookmark(ctx, sessionID, key, false)
				if err != nil {
					return err
				}
				m.Bookmark = b
				return nil
			})
			e.run(&g, ServiceBookmarks, key, func() error {
				b, err := f.GetBookmark(ctx, sessionID, key, true)
				if err != nil {
					return err
				}
				m.Exclude = b != nil
				return nil
			})
		}
		if f := e.features.Annotations; f != nil {
			e.run(&g, ServiceAnnotations, key, func() error {
				a, err := f.GetAnnotations(ctx, sessionID, key)
				if err != nil {
					return err
				}
				m.Annotations = a
				return nil
			})
		}
		if f := e.features.Ratings; f != nil {
			e.run(&g, ServiceRatings, key, func() error {
				rt, err := f.GetRating(ctx, sessionID, key, userID)
				if err != nil {
					return err
				}
				m.Rating = rt
				return nil
			})
		}
		if f := e.features.Views; f != nil {
			e.run(&g, ServiceViews, viewKey, func() error {
				n, err := f.GetViews(ctx, sessionID, viewKey)
				if err != nil {
					return err
				}
				m.Views = n
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil && e.policy != types.PolicyDegrade {
		return nil, err
	}

	out := make([]types.Result, len(results))
	for i, r := range results {
		if metas[i].Annotations == nil {
			metas[i].Annotations = []types.Annotation{}
		}
		r.Metadata = &metas[i]
		out[i] = r
	}
	return out, nil
}

// run schedules one lookup. A failure is logged and counted whatever the
// policy; under PolicyDegrade it is not reported to the group.
func (e *Enricher) run(g *errgroup.Group, service, key string, lookup func() error) {
	g.Go(func() error {
		err := lookup()
		if err == nil {
			return nil
		}
		e.metrics.EnrichmentFailure(service)
		e.logger.Warn("feature lookup failed", "service", service, "key", key, "error", err)
		if e.policy == types.PolicyDegrade {
			return nil
		}
		return &LookupError{Service: service, Key: key, Err: err}
	})
}
