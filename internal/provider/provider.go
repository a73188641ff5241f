// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider routes search requests to pluggable backends and
// normalizes their hits into canonical results.
//
// Each backend (Elasticsearch, Bing) implements Provider. A Registry is
// built once at startup and only read afterwards, so lookups take no lock.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// Capabilities describes optional features a backend supports.
type Capabilities struct {
	// RelevanceFeedback reports whether Fetch accepts feedback documents.
	RelevanceFeedback bool `json:"relevanceFeedback"`

	// GetByID reports whether single-document lookups are supported.
	GetByID bool `json:"getById"`
}

// Provider is one search backend.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Verticals() []string

	// Fetch runs one query against the dataset registered for vertical and
	// returns the formatted page. feedbackDocs are document ids to use for
	// relevance feedback.
	Fetch(ctx context.Context, query, vertical string, pageNumber, resultsPerPage int, feedbackDocs []string) (*types.Page, error)

	// GetByID returns the raw document stored under id.
	GetByID(ctx context.Context, id string) (*types.Document, error)
}

// Registry maps provider names to providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an immutable registry. Nil entries are skipped so
// optional providers can be passed unconditionally; empty or duplicate
// names are rejected.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		name := p.Name()
		if name == "" {
			return nil, fmt.Errorf("provider with empty name")
		}
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("provider %q registered twice", name)
		}
		r.providers[name] = p
	}
	return r, nil
}

// lookup returns the provider registered under name. It never mutates the map.
func (r *Registry) lookup(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrInvalidProvider, name, r.Names())
	}
	return p, nil
}

// Fetch dispatches a query to the named provider. Provider failures are
// returned unchanged; there is no retry or fallback provider.
func (r *Registry) Fetch(ctx context.Context, providerName, query, vertical string, pageNumber, resultsPerPage int, feedbackDocs []string) (*types.Page, error) {
	p, err := r.lookup(providerName)
	if err != nil {
		return nil, err
	}
	return p.Fetch(ctx, query, vertical, pageNumber, resultsPerPage, feedbackDocs)
}

// GetByID dispatches a document lookup to the named provider.
func (r *Registry) GetByID(ctx context.Context, id, providerName string) (*types.Document, error) {
	p, err := r.lookup(providerName)
	if err != nil {
		return nil, err
	}
	return p.GetByID(ctx, id)
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info describes one registered provider.
type Info struct {
	Name         string       `json:"name"`
	Verticals    []string     `json:"verticals"`
	Capabilities Capabilities `json:"capabilities"`
}

// Describe returns Info for every registered provider, sorted by name.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.providers))
	for _, name := range r.Names() {
		p := r.providers[name]
		out = append(out, Info{Name: name, Verticals: p.Verticals(), Capabilities: p.Capabilities()})
	}
	return out
}

// rejectFeedback fails when feedback documents are supplied to a provider
// without the RelevanceFeedback capability.
func rejectFeedback(p Provider, feedbackDocs []string) error {
	if len(feedbackDocs) > 0 && !p.Capabilities().RelevanceFeedback {
		return fmt.Errorf("%w: the %s search provider does not support relevance feedback, but got %d relevance feedback documents",
			ErrUnsupportedFeature, p.Name(), len(feedbackDocs))
	}
	return nil
}

// offset converts a 1-based page number into a result offset.
func offset(pageNumber, resultsPerPage int) int {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return (pageNumber - 1) * resultsPerPage
}
