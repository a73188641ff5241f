// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/search-aggregator/internal/search"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// handleSearch serves GET /v1/search/{vertical}.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(chi.URLParam(r, "vertical"), r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	rs, err := s.svc.Search(r.Context(), req)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleGetByID serves GET /v1/search/doc/{id}.
func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.GetByID(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("provider"))
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// parseSearchRequest builds a request from query parameters. Missing page
// and perPage are left zero for the service defaults.
func parseSearchRequest(vertical string, q url.Values) (types.SearchRequest, error) {
	req := types.SearchRequest{
		Query:        q.Get("query"),
		Vertical:     vertical,
		SessionID:    q.Get("sessionId"),
		UserID:       q.Get("userId"),
		ProviderName: q.Get("provider"),
	}

	var err error
	if req.PageNumber, err = intParam(q, "page"); err != nil {
		return req, err
	}
	if req.ResultsPerPage, err = intParam(q, "perPage"); err != nil {
		return req, err
	}
	if req.RelevanceFeedback, err = types.ParseRelevanceFeedback(q.Get("relevanceFeedback")); err != nil {
		return req, err
	}
	if req.DistributionOfLabour, err = types.ParseDistributionOfLabour(q.Get("distributionOfLabour")); err != nil {
		return req, err
	}
	if req.Query == "" {
		return req, fmt.Errorf("%w: query parameter is required", search.ErrInvalidRequest)
	}
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
