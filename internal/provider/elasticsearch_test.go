// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

const esTwoHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 57, "relation": "eq"},
    "hits": [
      {"_index": "search_results_annotated", "_id": "d1", "_score": 2.1,
       "_source": {"topic": "cats", "title": "Cat care", "snippet": "Feeding cats", "url": "https://a.example/cats"}},
      {"_index": "search_results_annotated", "_id": "d2", "_score": 1.4,
       "_source": {"topic": "cats", "title": "Cat breeds"}}
    ]
  }
}`

func newTestElasticsearch(t *testing.T, handler http.HandlerFunc) *Elasticsearch {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	verticals, err := BindVerticals(Catalog(SearchResultsAnnotated, TweetsAnnotated), map[string]string{
		"text":   "search_results_annotated",
		"social": "tweets_annotated",
	})
	require.NoError(t, err)

	es, err := NewElasticsearch(types.ElasticsearchConfig{URL: srv.URL + "/", Username: "elastic", Password: "pw"}, verticals)
	require.NoError(t, err)
	return es
}

func TestElasticsearchFetch(t *testing.T) {
	var gotPath, gotFrom, gotSize, gotUser, gotPass string
	var gotBody map[string]any
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFrom = r.URL.Query().Get("from")
		gotSize = r.URL.Query().Get("size")
		gotUser, gotPass, _ = r.BasicAuth()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, esTwoHits)
	})

	page, err := es.Fetch(context.Background(), "cats", "text", 1, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, "/search_results_annotated/_search", gotPath)
	assert.Equal(t, "0", gotFrom)
	assert.Equal(t, "10", gotSize)
	assert.Equal(t, "elastic", gotUser)
	assert.Equal(t, "pw", gotPass)
	assert.Equal(t, map[string]any{"query": map[string]any{"match": map[string]any{"topic": "cats"}}}, gotBody)

	assert.Equal(t, 57, page.Matches)
	require.Len(t, page.Results, 2)
	assert.Equal(t, types.Result{ID: "d1", Name: "cats", Source: "Cat care", Text: "Feeding cats", URL: "https://a.example/cats"}, page.Results[0])
	assert.Equal(t, types.Result{ID: "d2", Name: "cats", Source: "Cat breeds"}, page.Results[1])
	assert.Nil(t, page.Results[0].Metadata)
}

func TestElasticsearchFetchPagination(t *testing.T) {
	tests := []struct {
		page, size int
		wantFrom   string
		wantSize   string
	}{
		{1, 10, "0", "10"},
		{2, 10, "10", "10"},
		{3, 7, "14", "7"},
	}
	for _, tt := range tests {
		var from, size string
		es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
			from, size = r.URL.Query().Get("from"), r.URL.Query().Get("size")
			_, _ = io.WriteString(w, esTwoHits)
		})
		_, err := es.Fetch(context.Background(), "cats", "text", tt.page, tt.size, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.wantFrom, from, "page %d", tt.page)
		assert.Equal(t, tt.wantSize, size, "page %d", tt.page)
	}
}

func TestElasticsearchFetchLegacyTotal(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"total":12,"hits":[{"_id":"t1","_source":{"topic":"x","tweet":"hello"}}]}}`)
	})
	page, err := es.Fetch(context.Background(), "x", "social", 1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Matches)
	assert.Equal(t, "hello", page.Results[0].Source)
}

func TestElasticsearchFetchNoResults(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`)
	})
	_, err := es.Fetch(context.Background(), "zzzz-nothing", "text", 1, 10, nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestElasticsearchFetchRejectsBeforeIO(t *testing.T) {
	var calls atomic.Int32
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, esTwoHits)
	})

	_, err := es.Fetch(context.Background(), "cats", "images", 1, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidVertical)

	_, err = es.Fetch(context.Background(), "cats", "text", 1, 10, []string{"d1"})
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
	assert.Contains(t, err.Error(), "elasticsearch search provider does not support relevance feedback")

	assert.Zero(t, calls.Load())
}

func TestElasticsearchFetchHTTPError(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parsing_exception"}}`)
	})
	_, err := es.Fetch(context.Background(), "cats", "text", 1, 10, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Contains(t, err.Error(), "parsing_exception")
	assert.Empty(t, ErrorName(err))
}

func TestElasticsearchCustomIndex(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_id":"p1","_source":{"title":"Deep cats","venue":"NeurIPS","paperAbstract":"We study cats."}}]}}`)
	}))
	defer srv.Close()

	cfg := types.ElasticsearchConfig{
		URL: srv.URL,
		CustomIndex: types.CustomIndexConfig{
			Index:         "semantic_scholar",
			QueryTemplate: `{"query":{"multi_match":{"query":{{json .Query}},"fields":["title","paperAbstract"]}}}`,
			Fields:        types.FieldMappingConfig{Name: "title", Source: "venue", Text: "paperAbstract"},
		},
	}
	verticals, err := ElasticsearchDatasets(cfg)
	require.NoError(t, err)
	assert.True(t, verticals["text"].Custom())

	es, err := NewElasticsearch(cfg, verticals)
	require.NoError(t, err)

	page, err := es.Fetch(context.Background(), "cats", "text", 1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "/semantic_scholar/_search", gotPath)
	assert.Contains(t, gotBody, "query")
	assert.Equal(t, types.Result{ID: "p1", Name: "Deep cats", Source: "NeurIPS", Text: "We study cats."}, page.Results[0])
}

func TestElasticsearchGetByID(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Query struct {
			IDs struct {
				Values []string `json:"values"`
			} `json:"ids"`
		} `json:"query"`
	}
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_index":"tweets_annotated","_id":"doc42","_source":{"tweet":"hi"}}]}}`)
	})

	doc, err := es.GetByID(context.Background(), "doc42")
	require.NoError(t, err)
	assert.Equal(t, "/search_results_annotated,tweets_annotated/_search", gotPath)
	assert.Equal(t, []string{"doc42"}, gotBody.Query.IDs.Values)
	assert.Equal(t, "doc42", doc.ID)
	assert.Equal(t, "tweets_annotated", doc.Index)
	assert.Equal(t, ElasticsearchName, doc.Provider)
	assert.Equal(t, "hi", doc.Source["tweet"])
}

func TestElasticsearchGetByIDNotFound(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":0},"hits":[]}}`)
	})
	_, err := es.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestElasticsearchPing(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"version":{"number":"8.13.0"}}`)
	})
	assert.NoError(t, es.Ping(context.Background()))
}

func TestNewElasticsearchValidation(t *testing.T) {
	_, err := NewElasticsearch(types.ElasticsearchConfig{}, map[string]Dataset{"text": SearchResultsAnnotated})
	assert.ErrorContains(t, err, "url is empty")

	_, err = NewElasticsearch(types.ElasticsearchConfig{URL: "http://localhost:9200"}, nil)
	assert.ErrorContains(t, err, "no verticals")
}

func TestElasticsearchVerticalsSorted(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, []string{"social", "text"}, es.Verticals())
	assert.Equal(t, Capabilities{RelevanceFeedback: false, GetByID: true}, es.Capabilities())
}

func TestEsTotalUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`5`, 5},
		{` 5 `, 5},
		{`{"value": 10000, "relation": "gte"}`, 10000},
	}
	for _, tt := range tests {
		var total esTotal
		require.NoError(t, json.Unmarshal([]byte(tt.in), &total), tt.in)
		assert.Equal(t, tt.want, total.Value, tt.in)
	}

	var total esTotal
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &total))
}
