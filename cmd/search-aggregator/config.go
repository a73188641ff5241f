// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/search-aggregator/internal/provider"
	"github.com/pdiddy/search-aggregator/internal/secrets"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// setDefaults registers every setting so that environment variables are
// picked up by Unmarshal even when no config file mentions the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", time.Minute)

	v.SetDefault("search.results_per_page", 10)
	v.SetDefault("search.default_provider", provider.ElasticsearchName)
	v.SetDefault("search.enable_cache", false)
	v.SetDefault("search.cache_write_timeout", 5*time.Second)
	v.SetDefault("search.enrichment_policy", string(types.PolicyAllOrNothing))
	v.SetDefault("search.max_concurrency", 0)

	v.SetDefault("elasticsearch.url", "http://localhost:9200")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.timeout", 30*time.Second)
	v.SetDefault("elasticsearch.user_agent", "search-aggregator/"+version)
	v.SetDefault("elasticsearch.max_retries", 3)
	v.SetDefault("elasticsearch.datasets_file", "")
	v.SetDefault("elasticsearch.custom_index.index", "")
	v.SetDefault("elasticsearch.custom_index.query_template", "")
	v.SetDefault("elasticsearch.custom_index.fields.name", "")
	v.SetDefault("elasticsearch.custom_index.fields.source", "")
	v.SetDefault("elasticsearch.custom_index.fields.text", "")
	v.SetDefault("elasticsearch.custom_index.fields.url", "")

	v.SetDefault("bing.endpoint", provider.DefaultBingEndpoint)
	v.SetDefault("bing.api_key", "")
	v.SetDefault("bing.market", "en-US")
	v.SetDefault("bing.timeout", 15*time.Second)
	v.SetDefault("bing.user_agent", "search-aggregator/"+version)
	v.SetDefault("bing.max_retries", 3)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("redis.prefix", "search:results:")

	v.SetDefault("features.db_path", "data/features.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// configFrom reads the merged viper settings into types.Config.
func configFrom(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applySecrets fills credentials the configuration left empty from the
// secrets directory.
func applySecrets(cfg *types.Config, s secrets.Secrets) {
	cfg.Elasticsearch.Password = s.Or(secrets.ElasticsearchPassword, cfg.Elasticsearch.Password)
	cfg.Bing.APIKey = s.Or(secrets.BingAPIKey, cfg.Bing.APIKey)
	cfg.Redis.URL = s.Or(secrets.RedisURL, cfg.Redis.URL)
}
