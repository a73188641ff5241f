// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// Regulator applies the relevance-feedback and distribution-of-labour
// policy of a request and fetches the page from a provider.
type Regulator interface {
	Fetch(ctx context.Context, req types.SearchRequest) (*types.Page, error)
}

// Dispatcher routes a fetch to a named provider. *provider.Registry
// implements it.
type Dispatcher interface {
	Fetch(ctx context.Context, providerName, query, vertical string, pageNumber, resultsPerPage int, feedbackDocs []string) (*types.Page, error)
}

// BookmarkLister lists the bookmarks of a session, optionally restricted to
// one user.
type BookmarkLister interface {
	ListBookmarks(ctx context.Context, sessionID, userID string) ([]types.SessionBookmark, error)
}

// FeedbackRegulator derives feedback documents and result filtering from
// the session's bookmarks.
//
// Relevance feedback "individual" sends the requesting user's bookmarked
// documents, "shared" sends every bookmarked document of the session.
// Excluded documents are never feedback. Distribution of labour
// "unbookmarkedOnly" hides results anyone in the session has bookmarked or
// excluded; "unbookmarkedSoft" hides only excluded results. Matches is
// always the provider's total.
type FeedbackRegulator struct {
	dispatcher Dispatcher
	bookmarks  BookmarkLister
}

// NewFeedbackRegulator creates the regulator. bookmarks may be nil, in
// which case no session has bookmarks.
func NewFeedbackRegulator(d Dispatcher, bookmarks BookmarkLister) *FeedbackRegulator {
	return &FeedbackRegulator{dispatcher: d, bookmarks: bookmarks}
}

// Fetch implements Regulator.
func (r *FeedbackRegulator) Fetch(ctx context.Context, req types.SearchRequest) (*types.Page, error) {
	marks, err := r.sessionBookmarks(ctx, req)
	if err != nil {
		return nil, err
	}

	var feedbackDocs []string
	switch req.RelevanceFeedback {
	case types.FeedbackIndividual, types.FeedbackShared:
		for _, b := range marks {
			if b.Excluded {
				continue
			}
			if req.RelevanceFeedback == types.FeedbackIndividual && b.UserID != req.UserID {
				continue
			}
			feedbackDocs = append(feedbackDocs, b.DocID)
		}
	}

	page, err := r.dispatcher.Fetch(ctx, req.ProviderName, req.Query, req.Vertical, req.PageNumber, req.ResultsPerPage, feedbackDocs)
	if err != nil {
		return nil, err
	}

	hide := make(map[string]bool)
	for _, b := range marks {
		switch req.DistributionOfLabour {
		case types.LabourUnbookmarkedOnly:
			hide[b.DocID] = true
		case types.LabourUnbookmarkedSoft:
			if b.Excluded {
				hide[b.DocID] = true
			}
		}
	}
	if len(hide) == 0 {
		return page, nil
	}

	kept := make([]types.Result, 0, len(page.Results))
	for _, res := range page.Results {
		if !hide[res.Key()] {
			kept = append(kept, res)
		}
	}
	return &types.Page{Results: kept, Matches: page.Matches}, nil
}

// sessionBookmarks loads the session's bookmarks only when the request's
// policy needs them.
func (r *FeedbackRegulator) sessionBookmarks(ctx context.Context, req types.SearchRequest) ([]types.SessionBookmark, error) {
	needed := (req.RelevanceFeedback != "" && req.RelevanceFeedback != types.FeedbackNone) ||
		(req.DistributionOfLabour != "" && req.DistributionOfLabour != types.LabourNone)
	if !needed || r.bookmarks == nil || req.SessionID == "" {
		return nil, nil
	}
	marks, err := r.bookmarks.ListBookmarks(ctx, req.SessionID, "")
	if err != nil {
		return nil, fmt.Errorf("listing session bookmarks: %w", err)
	}
	return marks, nil
}
