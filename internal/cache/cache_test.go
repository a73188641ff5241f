// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

func newTestCache(t *testing.T, cfg types.RedisConfig) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg.URL = "redis://" + mr.Addr()
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

// storedResultSet reads back what AddSearchResults wrote under key.
func storedResultSet(t *testing.T, mr *miniredis.Miniredis, prefix string, key Key) *types.ResultSet {
	t.Helper()
	data, err := mr.Get(prefix + key.String())
	require.NoError(t, err)
	var rs types.ResultSet
	require.NoError(t, json.Unmarshal([]byte(data), &rs))
	return &rs
}

func TestKeyString(t *testing.T) {
	k := Key{Query: "cats", Vertical: "text", PageNumber: 2, Timestamp: 1700000000000, ProviderName: "elasticsearch"}
	assert.Len(t, k.String(), 64)
	assert.Equal(t, k.String(), k.String())

	other := k
	other.Timestamp++
	assert.NotEqual(t, k.String(), other.String())
}

func TestKeyStringSeparatorsInQuery(t *testing.T) {
	tests := []struct {
		a, b Key
	}{
		{
			Key{Query: "a|b", Vertical: "c", PageNumber: 1},
			Key{Query: "a", Vertical: "b|c", PageNumber: 1},
		},
		{
			Key{Query: `x","y`, Vertical: "v"},
			Key{Query: "x", Vertical: `y","v`},
		},
	}
	for _, tt := range tests {
		assert.NotEqual(t, tt.a.String(), tt.b.String(), "%+v vs %+v", tt.a, tt.b)
	}
}

func TestAddAndGetSearchResults(t *testing.T) {
	c, mr := newTestCache(t, types.RedisConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	key := Key{Query: "cats", Vertical: "text", PageNumber: 1, Timestamp: 42, ProviderName: "elasticsearch"}
	rs := &types.ResultSet{
		ID:        "cats_1_text_42",
		Results:   []types.Result{{ID: "d1", Name: "cats", Metadata: &types.ResultMetadata{Views: 3}}},
		Matches:   57,
		SessionID: "s1",
		UserID:    "u1",
	}
	require.NoError(t, c.AddSearchResults(ctx, key, rs))

	stored := defaultPrefix + key.String()
	assert.True(t, mr.Exists(stored))
	assert.Equal(t, 10*time.Minute, mr.TTL(stored))

	assert.Equal(t, rs, storedResultSet(t, mr, defaultPrefix, key))

	piped := Key{Query: "cats|text", Vertical: "1", PageNumber: 42, ProviderName: "elasticsearch"}
	require.NoError(t, c.AddSearchResults(ctx, piped, &types.ResultSet{ID: "piped"}))
	assert.Equal(t, "cats_1_text_42", storedResultSet(t, mr, defaultPrefix, key).ID, "distinct keys must not overwrite each other")
	assert.Equal(t, "piped", storedResultSet(t, mr, defaultPrefix, piped).ID)
}

func TestDefaultsAndPrefix(t *testing.T) {
	c, mr := newTestCache(t, types.RedisConfig{Prefix: "test:"})
	assert.Equal(t, defaultTTL, c.ttl)

	key := Key{Query: "q", Vertical: "text", PageNumber: 1, Timestamp: 1, ProviderName: "p"}
	require.NoError(t, c.AddSearchResults(context.Background(), key, &types.ResultSet{ID: "x"}))
	assert.True(t, mr.Exists("test:"+key.String()))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("test:"+key.String()), "entry must expire after the TTL")
}

func TestAddSearchResultsServerDown(t *testing.T) {
	c, mr := newTestCache(t, types.RedisConfig{})
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.AddSearchResults(ctx, Key{Query: "q"}, &types.ResultSet{ID: "x"})
	assert.ErrorContains(t, err, "caching result set x")
	assert.Error(t, c.Ping(ctx))
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(types.RedisConfig{URL: "http://not-redis"})
	assert.ErrorContains(t, err, "parsing redis url")
}
