// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores completed result sets in Redis. Entries are write
// only from this service: the search path never reads them back, later
// consumers (analytics, session replay) do.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

const (
	defaultTTL    = time.Hour
	defaultPrefix = "search:results:"
)

// Key identifies one cached result set.
type Key struct {
	Query        string
	Vertical     string
	PageNumber   int
	Timestamp    int64
	ProviderName string
}

// String returns the hex SHA-256 of the JSON-encoded fields. Field
// boundaries survive the encoding, so no query text makes two keys collide.
func (k Key) String() string {
	raw, _ := json.Marshal([]any{k.Query, k.Vertical, k.PageNumber, k.Timestamp, k.ProviderName})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Redis is the Redis-backed result-set cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to cfg.URL. It does not contact the server; use Ping for that.
func New(cfg types.RedisConfig) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opt), cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, cfg types.RedisConfig) *Redis {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix}
}

// AddSearchResults stores rs under key with the configured TTL.
func (c *Redis) AddSearchResults(ctx context.Context, key Key, rs *types.ResultSet) error {
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encoding result set: %w", err)
	}
	k := c.prefix + key.String()
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching result set %s: %w", rs.ID, err)
	}
	slog.Debug("cached result set", "key", k, "id", rs.ID, "query", key.Query,
		"provider", key.ProviderName, "results", len(rs.Results))
	return nil
}

// Ping checks the connection.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
