// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/search-aggregator/internal/httputil"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// ElasticsearchName is the registry name of the Elasticsearch provider.
const ElasticsearchName = "elasticsearch"

// Elasticsearch queries an Elasticsearch cluster over its JSON HTTP API.
// Each vertical is served by exactly one dataset, fixed at construction.
type Elasticsearch struct {
	Client     *http.Client
	BaseURL    string
	Username   string
	Password   string
	UserAgent  string
	MaxRetries int

	verticals map[string]Dataset
}

// NewElasticsearch creates the provider for the given vertical bindings.
func NewElasticsearch(cfg types.ElasticsearchConfig, verticals map[string]Dataset) (*Elasticsearch, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is empty")
	}
	if len(verticals) == 0 {
		return nil, fmt.Errorf("elasticsearch provider has no verticals")
	}
	bound := make(map[string]Dataset, len(verticals))
	for v, d := range verticals {
		bound[v] = d
	}
	return &Elasticsearch{
		Client:     &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(cfg.URL, "/"),
		Username:   cfg.Username,
		Password:   cfg.Password,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		verticals:  bound,
	}, nil
}

// ElasticsearchDatasets resolves the configured vertical bindings: built-in
// datasets, overridden by the datasets file, with the text vertical swapped
// for the custom index when one is configured.
func ElasticsearchDatasets(cfg types.ElasticsearchConfig) (map[string]Dataset, error) {
	all := []Dataset{SearchResultsAnnotated, TweetsAnnotated}
	if cfg.DatasetsFile != "" {
		fromFile, err := ReadDatasetsFile(cfg.DatasetsFile)
		if err != nil {
			return nil, err
		}
		all = append(all, fromFile...)
	}
	verticals, err := BindVerticals(Catalog(all...), cfg.Verticals)
	if err != nil {
		return nil, err
	}

	if ci := cfg.CustomIndex; ci.Index != "" {
		custom, err := DatasetSpec{
			Name:          ci.Index,
			Index:         ci.Index,
			QueryField:    ci.Fields.Name,
			QueryTemplate: ci.QueryTemplate,
			Fields: FieldMapping{
				Name:   ci.Fields.Name,
				Source: ci.Fields.Source,
				Text:   ci.Fields.Text,
				URL:    ci.Fields.URL,
			},
		}.Compile()
		if err != nil {
			return nil, fmt.Errorf("custom index: %w", err)
		}
		verticals["text"] = custom
	}
	return verticals, nil
}

// Name returns the provider identifier.
func (e *Elasticsearch) Name() string { return ElasticsearchName }

// Capabilities reports that relevance feedback is not supported.
func (e *Elasticsearch) Capabilities() Capabilities {
	return Capabilities{RelevanceFeedback: false, GetByID: true}
}

// Verticals returns the served verticals in sorted order.
func (e *Elasticsearch) Verticals() []string {
	out := make([]string, 0, len(e.verticals))
	for v := range e.verticals {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Fetch runs a paginated query against the vertical's dataset.
func (e *Elasticsearch) Fetch(ctx context.Context, query, vertical string, pageNumber, resultsPerPage int, feedbackDocs []string) (*types.Page, error) {
	if err := rejectFeedback(e, feedbackDocs); err != nil {
		return nil, err
	}
	dataset, ok := e.verticals[vertical]
	if !ok {
		return nil, fmt.Errorf("%w %q: valid verticals are %v", ErrInvalidVertical, vertical, e.Verticals())
	}

	body, err := dataset.QueryBody(query)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"from": {strconv.Itoa(offset(pageNumber, resultsPerPage))},
		"size": {strconv.Itoa(resultsPerPage)},
	}

	var sr esSearchResponse
	if err := e.do(ctx, "/"+url.PathEscape(dataset.Index)+"/_search?"+params.Encode(), body, &sr); err != nil {
		return nil, err
	}
	if len(sr.Hits.Hits) == 0 {
		return nil, fmt.Errorf("%w: index %s, query %q", ErrNoResults, dataset.Index, query)
	}

	results := make([]types.Result, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		results = append(results, dataset.Formatter.FormatHit(hit))
	}
	return &types.Page{Results: results, Matches: sr.Hits.Total.Value}, nil
}

// GetByID looks id up across the indices of all configured datasets and
// returns the stored document unformatted.
func (e *Elasticsearch) GetByID(ctx context.Context, id string) (*types.Document, error) {
	seen := make(map[string]bool)
	var indices []string
	for _, d := range e.verticals {
		if !seen[d.Index] {
			seen[d.Index] = true
			indices = append(indices, url.PathEscape(d.Index))
		}
	}
	sort.Strings(indices)

	body, err := json.Marshal(map[string]any{
		"size":  1,
		"query": map[string]any{"ids": map[string]any{"values": []string{id}}},
	})
	if err != nil {
		return nil, err
	}

	var sr esSearchResponse
	if err := e.do(ctx, "/"+strings.Join(indices, ",")+"/_search", body, &sr); err != nil {
		return nil, err
	}
	if len(sr.Hits.Hits) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	hit := sr.Hits.Hits[0]
	return &types.Document{ID: hit.ID, Index: hit.Index, Provider: ElasticsearchName, Source: hit.Source}, nil
}

// Ping checks that the cluster answers.
func (e *Elasticsearch) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	e.authorize(req)
	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elasticsearch returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (e *Elasticsearch) authorize(req *http.Request) {
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}
	if e.Username != "" {
		req.SetBasicAuth(e.Username, e.Password)
	}
}

// do POSTs a JSON body to path and decodes the JSON answer into out.
func (e *Elasticsearch) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, e.MaxRetries)
	if err != nil {
		return fmt.Errorf("elasticsearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("elasticsearch returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing elasticsearch response: %w", err)
	}
	return nil
}

// Elasticsearch API JSON structures.
type esSearchResponse struct {
	Hits struct {
		Total esTotal     `json:"total"`
		Hits  []types.Hit `json:"hits"`
	} `json:"hits"`
}

// esTotal accepts both hits.total forms: a bare integer (Elasticsearch 6)
// and {"value": n, "relation": "eq"} (7 and later).
type esTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

func (t *esTotal) UnmarshalJSON(data []byte) error {
	if n, err := strconv.Atoi(string(bytes.TrimSpace(data))); err == nil {
		t.Value = n
		t.Relation = "eq"
		return nil
	}
	type plain esTotal
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing hits.total: %w", err)
	}
	*t = esTotal(p)
	return nil
}
