// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"

	"github.com/pdiddy/search-aggregator/internal/provider"
)

var (
	// ErrInvalidRequest means the request failed validation before any I/O.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrEnrichment means a feature-service lookup failed during enrichment.
	ErrEnrichment = errors.New("enrichment failure")
)

// LookupError is one failed feature-service lookup. It matches
// ErrEnrichment and the underlying cause under errors.Is.
type LookupError struct {
	Service string
	Key     string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s lookup for %q: %v", ErrEnrichment, e.Service, e.Key, e.Err)
}

func (e *LookupError) Unwrap() []error { return []error{ErrEnrichment, e.Err} }

// ErrorName returns the taxonomy name of err: the provider names plus
// EnrichmentFailure and InvalidRequest. It returns "" for anything else.
func ErrorName(err error) string {
	if name := provider.ErrorName(err); name != "" {
		return name
	}
	switch {
	case errors.Is(err, ErrEnrichment):
		return "EnrichmentFailure"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	}
	return ""
}
