// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/search-aggregator/internal/httputil"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// BingName is the registry name of the Bing provider.
const BingName = "bing"

// DefaultBingEndpoint is the Bing Web Search v7 API base.
const DefaultBingEndpoint = "https://api.bing.microsoft.com/v7.0"

// bingVerticals maps verticals to endpoint paths.
var bingVerticals = map[string]string{
	"web":  "/search",
	"news": "/news/search",
}

// Bing queries the Bing Web Search API. Results carry a URL but no document
// id, so feature lookups key on the URL.
type Bing struct {
	Client     *http.Client
	Endpoint   string
	APIKey     string
	Market     string
	UserAgent  string
	MaxRetries int
}

// NewBing returns nil when no API key is configured, so the registry simply
// omits the provider.
func NewBing(cfg types.BingConfig) *Bing {
	if cfg.APIKey == "" {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultBingEndpoint
	}
	return &Bing{
		Client:     &http.Client{Timeout: cfg.Timeout},
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     cfg.APIKey,
		Market:     cfg.Market,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// Name returns the provider identifier.
func (b *Bing) Name() string { return BingName }

// Capabilities reports that neither relevance feedback nor id lookups are supported.
func (b *Bing) Capabilities() Capabilities { return Capabilities{} }

// Verticals returns the served verticals.
func (b *Bing) Verticals() []string { return []string{"news", "web"} }

// Fetch queries the endpoint for vertical.
func (b *Bing) Fetch(ctx context.Context, query, vertical string, pageNumber, resultsPerPage int, feedbackDocs []string) (*types.Page, error) {
	if err := rejectFeedback(b, feedbackDocs); err != nil {
		return nil, err
	}
	path, ok := bingVerticals[vertical]
	if !ok {
		return nil, fmt.Errorf("%w %q: valid verticals are %v", ErrInvalidVertical, vertical, b.Verticals())
	}

	params := url.Values{
		"q":      {query},
		"count":  {strconv.Itoa(resultsPerPage)},
		"offset": {strconv.Itoa(offset(pageNumber, resultsPerPage))},
	}
	if b.Market != "" {
		params.Set("mkt", b.Market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.APIKey)
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Bing API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Bing API returned HTTP %d", resp.StatusCode)
	}

	var page *types.Page
	switch vertical {
	case "news":
		var nr bingNewsResponse
		if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
			return nil, fmt.Errorf("parsing Bing response: %w", err)
		}
		page = nr.page()
	default:
		var wr bingWebResponse
		if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
			return nil, fmt.Errorf("parsing Bing response: %w", err)
		}
		page = wr.page()
	}

	if len(page.Results) == 0 {
		return nil, fmt.Errorf("%w: bing %s, query %q", ErrNoResults, vertical, query)
	}
	return page, nil
}

// GetByID is not offered by the Bing API.
func (b *Bing) GetByID(_ context.Context, id string) (*types.Document, error) {
	return nil, fmt.Errorf("%w: the %s search provider cannot fetch documents by id (%q)", ErrUnsupportedFeature, BingName, id)
}

// Bing API JSON structures.
type bingWebResponse struct {
	WebPages struct {
		TotalEstimatedMatches int `json:"totalEstimatedMatches"`
		Value                 []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			URL        string `json:"url"`
			DisplayURL string `json:"displayUrl"`
			Snippet    string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (r bingWebResponse) page() *types.Page {
	p := &types.Page{Matches: r.WebPages.TotalEstimatedMatches}
	for _, v := range r.WebPages.Value {
		// Bing's own id is a response-local anchor ("...#WebPages.0"),
		// not a stable document id, so the URL identifies the result.
		p.Results = append(p.Results, types.Result{
			Name:   v.Name,
			Source: v.DisplayURL,
			Text:   v.Snippet,
			URL:    v.URL,
		})
	}
	return p
}

type bingNewsResponse struct {
	TotalEstimatedMatches int `json:"totalEstimatedMatches"`
	Value                 []struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Provider    []struct {
			Name string `json:"name"`
		} `json:"provider"`
	} `json:"value"`
}

func (r bingNewsResponse) page() *types.Page {
	p := &types.Page{Matches: r.TotalEstimatedMatches}
	for _, v := range r.Value {
		source := ""
		if len(v.Provider) > 0 {
			source = v.Provider[0].Name
		}
		p.Results = append(p.Results, types.Result{
			Name:   v.Name,
			Source: source,
			Text:   v.Description,
			URL:    v.URL,
		})
	}
	return p
}
