package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/search-aggregator/internal/search"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

func TestReplayRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.yaml")
	want := types.SearchRequest{
		Query:                "cats",
		Vertical:             "social",
		PageNumber:           3,
		ResultsPerPage:       5,
		SessionID:            "s1",
		UserID:               "u1",
		ProviderName:         "elasticsearch",
		RelevanceFeedback:    types.FeedbackShared,
		DistributionOfLabour: types.LabourUnbookmarkedSoft,
	}
	rs := &types.ResultSet{ID: "cats_3_social_1", Matches: 57, Results: []types.Result{{ID: "a"}, {ID: "b"}}}
	require.NoError(t, search.WriteResultFile(path, want, rs))

	var out bytes.Buffer
	got, err := replayRequest(path, &out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Contains(t, out.String(), `Replaying "cats"`)
	assert.Contains(t, out.String(), "2 of 57 matches")
}

func TestReplayRequestErrors(t *testing.T) {
	_, err := replayRequest(filepath.Join(t.TempDir(), "missing.yaml"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "reading result file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request:\n  query: cats\n  relevance_feedback: sometimes\n"), 0o644))
	_, err = replayRequest(path, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown relevance feedback")
}

func TestSearchRequestFromFlags(t *testing.T) {
	_, err := searchRequestFromFlags(searchCmd, nil)
	assert.ErrorContains(t, err, "a query is required")

	req, err := searchRequestFromFlags(searchCmd, []string{"big", "cats"})
	require.NoError(t, err)
	assert.Equal(t, "big cats", req.Query)
	assert.Equal(t, "text", req.Vertical)
	assert.Equal(t, 1, req.PageNumber)
	assert.Equal(t, types.FeedbackNone, req.RelevanceFeedback)
}
