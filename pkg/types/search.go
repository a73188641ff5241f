// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the search-aggregator
// pipeline: requests, canonical results, per-user metadata and result sets.
package types

import (
	"fmt"
	"strings"
)

// RelevanceFeedback selects which documents the regulator hands to a
// provider as relevance feedback.
type RelevanceFeedback string

const (
	FeedbackNone       RelevanceFeedback = "false"
	FeedbackIndividual RelevanceFeedback = "individual"
	FeedbackShared     RelevanceFeedback = "shared"
)

// ParseRelevanceFeedback accepts the wire forms of RelevanceFeedback. An
// empty string is treated as "false".
func ParseRelevanceFeedback(s string) (RelevanceFeedback, error) {
	switch RelevanceFeedback(strings.TrimSpace(s)) {
	case "", FeedbackNone:
		return FeedbackNone, nil
	case FeedbackIndividual:
		return FeedbackIndividual, nil
	case FeedbackShared:
		return FeedbackShared, nil
	}
	return "", fmt.Errorf("unknown relevance feedback %q (want false, individual or shared)", s)
}

// DistributionOfLabour selects how results already handled by the session
// are distributed among collaborators.
type DistributionOfLabour string

const (
	LabourNone             DistributionOfLabour = "false"
	LabourUnbookmarkedSoft DistributionOfLabour = "unbookmarkedSoft"
	LabourUnbookmarkedOnly DistributionOfLabour = "unbookmarkedOnly"
)

// ParseDistributionOfLabour accepts the wire forms of DistributionOfLabour.
// An empty string is treated as "false".
func ParseDistributionOfLabour(s string) (DistributionOfLabour, error) {
	switch DistributionOfLabour(strings.TrimSpace(s)) {
	case "", LabourNone:
		return LabourNone, nil
	case LabourUnbookmarkedSoft:
		return LabourUnbookmarkedSoft, nil
	case LabourUnbookmarkedOnly:
		return LabourUnbookmarkedOnly, nil
	}
	return "", fmt.Errorf("unknown distribution of labour %q (want false, unbookmarkedSoft or unbookmarkedOnly)", s)
}

// SearchRequest is one search call. It is passed by value and never
// modified after construction.
type SearchRequest struct {
	Query                string
	Vertical             string
	PageNumber           int
	ResultsPerPage       int
	SessionID            string
	UserID               string
	ProviderName         string
	RelevanceFeedback    RelevanceFeedback
	DistributionOfLabour DistributionOfLabour
}

// Validate reports the first malformed field of the request.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query is empty")
	}
	if r.Vertical == "" {
		return fmt.Errorf("vertical is empty")
	}
	if r.PageNumber < 1 {
		return fmt.Errorf("page number must be >= 1, got %d", r.PageNumber)
	}
	if r.ResultsPerPage <= 0 {
		return fmt.Errorf("results per page must be > 0, got %d", r.ResultsPerPage)
	}
	if _, err := ParseRelevanceFeedback(string(r.RelevanceFeedback)); err != nil {
		return err
	}
	if _, err := ParseDistributionOfLabour(string(r.DistributionOfLabour)); err != nil {
		return err
	}
	return nil
}

// Hit is one raw document returned by a backend, before formatting.
type Hit struct {
	// ID is the backend's document id (Elasticsearch _id). May be empty.
	ID string `json:"_id"`

	// Index names the index or collection the hit came from.
	Index string `json:"_index"`

	// Score is the backend relevance score; formatters ignore it.
	Score float64 `json:"_score"`

	// Source holds the stored document fields.
	Source map[string]any `json:"_source"`
}

// Result is the canonical, provider-independent shape of a search hit.
type Result struct {
	// ID is derived from the backend document id.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name is the primary label of the result (e.g. the topic).
	Name string `json:"name" yaml:"name"`

	// Source is the originating title, tweet or site of the result.
	Source string `json:"source" yaml:"source"`

	// Text is the snippet shown under the result.
	Text string `json:"text" yaml:"text"`

	// URL is the result location when the backend reports one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Metadata is attached once, by enrichment.
	Metadata *ResultMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Key returns the identifier used for feature-service lookups: the ID, or
// the URL when the backend supplied no id.
func (r Result) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URL
}

// Bookmark is the bookmark state of one result within a session.
type Bookmark struct {
	UserID   string `json:"userId" yaml:"user_id"`
	Starred  bool   `json:"starred" yaml:"starred"`
	Excluded bool   `json:"excluded" yaml:"excluded"`
	Created  int64  `json:"created" yaml:"created"`
}

// SessionBookmark is a bookmark together with the result it marks.
type SessionBookmark struct {
	DocID    string `json:"docId" yaml:"doc_id"`
	Bookmark `yaml:",inline"`
}

// Annotation is a note a user left on a result.
type Annotation struct {
	UserID     string `json:"userId" yaml:"user_id"`
	Annotation string `json:"annotation" yaml:"annotation"`
	Created    int64  `json:"created" yaml:"created"`
}

// Rating holds the requesting user's rating of a result and the sum of all
// ratings in the session.
type Rating struct {
	Rating int `json:"rating" yaml:"rating"`
	Total  int `json:"total" yaml:"total"`
}

// ResultMetadata is the per-user metadata attached to a Result. Each field
// is sourced from a separate feature service.
type ResultMetadata struct {
	Bookmark    *Bookmark    `json:"bookmark" yaml:"bookmark"`
	Exclude     bool         `json:"exclude" yaml:"exclude"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
	Rating      *Rating      `json:"rating" yaml:"rating"`
	Views       int          `json:"views" yaml:"views"`
}

// Page is what a provider (and the regulator in front of it) returns for one
// query: formatted results plus the backend's total hit count, which may
// exceed len(Results).
type Page struct {
	Results []Result `json:"results" yaml:"results"`
	Matches int      `json:"matches" yaml:"matches"`
}

// ResultSet is the envelope returned by a search call.
type ResultSet struct {
	ID        string   `json:"id" yaml:"id"`
	Results   []Result `json:"results" yaml:"results"`
	Matches   int      `json:"matches" yaml:"matches"`
	SessionID string   `json:"sessionId" yaml:"session_id"`
	UserID    string   `json:"userId" yaml:"user_id"`
}

// Document is a single raw document fetched by id. Providers do not
// normalize it.
type Document struct {
	ID       string         `json:"id" yaml:"id"`
	Index    string         `json:"index,omitempty" yaml:"index,omitempty"`
	Provider string         `json:"provider" yaml:"provider"`
	Source   map[string]any `json:"source" yaml:"source"`
}
