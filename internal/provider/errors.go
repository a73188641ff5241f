// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import "errors"

// Errors returned by the registry and the adapters. Callers match them with
// errors.Is; the wrapping message carries the details.
var (
	// ErrInvalidProvider means the provider name is not registered.
	ErrInvalidProvider = errors.New("provider does not exist")

	// ErrInvalidVertical means the provider has no dataset for the vertical.
	ErrInvalidVertical = errors.New("invalid vertical")

	// ErrUnsupportedFeature means the caller asked for a capability the
	// provider lacks, such as relevance feedback documents.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrNoResults means the backend answered with zero hits. It is reported
	// as a failure, not as an empty page.
	ErrNoResults = errors.New("no results from search api")

	// ErrDocumentNotFound means a lookup by id matched no document.
	ErrDocumentNotFound = errors.New("document not found")
)

var errorNames = []struct {
	err  error
	name string
}{
	{ErrInvalidProvider, "InvalidProvider"},
	{ErrInvalidVertical, "InvalidVertical"},
	{ErrUnsupportedFeature, "UnsupportedFeature"},
	{ErrNoResults, "NoResults"},
	{ErrDocumentNotFound, "DocumentNotFound"},
}

// ErrorName returns the taxonomy name of a provider error, or "" when err
// wraps none of them.
func ErrorName(err error) string {
	for _, n := range errorNames {
		if errors.Is(err, n.err) {
			return n.name
		}
	}
	return ""
}
