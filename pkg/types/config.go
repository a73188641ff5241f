package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "search-aggregator/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichmentPolicy selects how the enrichment fan-out treats a failed
// feature-service lookup.
type EnrichmentPolicy string

const (
	// PolicyAllOrNothing fails the whole enrichment on the first failed lookup.
	PolicyAllOrNothing EnrichmentPolicy = "all_or_nothing"

	// PolicyDegrade leaves the failed field empty and reports the failure
	// out of band.
	PolicyDegrade EnrichmentPolicy = "degrade"
)

// SearchConfig holds settings for the search orchestrator.
type SearchConfig struct {
	// ResultsPerPage is used when a request does not set one (default 10).
	ResultsPerPage int `json:"results_per_page" yaml:"results_per_page" mapstructure:"results_per_page"`

	// DefaultProvider is used when a request does not name a provider.
	DefaultProvider string `json:"default_provider" yaml:"default_provider" mapstructure:"default_provider"`

	// EnableCache hands completed result sets to the cache.
	EnableCache bool `json:"enable_cache" yaml:"enable_cache" mapstructure:"enable_cache"`

	// CacheWriteTimeout bounds a single detached cache write (default 5s).
	CacheWriteTimeout time.Duration `json:"cache_write_timeout" yaml:"cache_write_timeout" mapstructure:"cache_write_timeout"`

	// EnrichmentPolicy is all_or_nothing (default) or degrade.
	EnrichmentPolicy EnrichmentPolicy `json:"enrichment_policy" yaml:"enrichment_policy" mapstructure:"enrichment_policy"`

	// MaxConcurrency caps in-flight feature lookups; 0 means unlimited.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// CustomIndexConfig switches the text vertical to a custom index with its
// own query body.
type CustomIndexConfig struct {
	// Index is the Elasticsearch index name. Empty disables custom-index mode.
	Index string `json:"index" yaml:"index" mapstructure:"index"`

	// QueryTemplate is a text/template producing the JSON request body.
	// The query string is available as {{json .Query}}.
	QueryTemplate string `json:"query_template" yaml:"query_template" mapstructure:"query_template"`

	// Fields maps canonical result fields to source fields.
	Fields FieldMappingConfig `json:"fields" yaml:"fields" mapstructure:"fields"`
}

// FieldMappingConfig names the source field backing each canonical field.
type FieldMappingConfig struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Text   string `json:"text" yaml:"text" mapstructure:"text"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

// ElasticsearchConfig holds settings for the Elasticsearch provider.
type ElasticsearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the cluster base URL (e.g. "http://localhost:9200"). Empty
	// disables the provider.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// Verticals maps a vertical name to a dataset name
	// (default text: search_results_annotated).
	Verticals map[string]string `json:"verticals" yaml:"verticals" mapstructure:"verticals"`

	// DatasetsFile is an optional YAML file of additional dataset definitions.
	DatasetsFile string `json:"datasets_file,omitempty" yaml:"datasets_file,omitempty" mapstructure:"datasets_file"`

	CustomIndex CustomIndexConfig `json:"custom_index" yaml:"custom_index" mapstructure:"custom_index"`
}

// BingConfig holds settings for the Bing Web Search provider.
type BingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the API base (default "https://api.bing.microsoft.com/v7.0").
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey enables the provider when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Market is the mkt parameter (e.g. "en-US").
	Market string `json:"market" yaml:"market" mapstructure:"market"`
}

// RedisConfig holds settings for the result-set cache.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// TTL is how long cached result sets live (default 1h).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// Prefix namespaces cache keys (default "search:results:").
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// FeaturesConfig locates the feature-service lookup database.
type FeaturesConfig struct {
	// DBPath is the SQLite database file (default "data/features.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host" mapstructure:"host"`
	Port         int           `json:"port" yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings of the service.
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server" mapstructure:"server"`
	Search        SearchConfig        `json:"search" yaml:"search" mapstructure:"search"`
	Elasticsearch ElasticsearchConfig `json:"elasticsearch" yaml:"elasticsearch" mapstructure:"elasticsearch"`
	Bing          BingConfig          `json:"bing" yaml:"bing" mapstructure:"bing"`
	Redis         RedisConfig         `json:"redis" yaml:"redis" mapstructure:"redis"`
	Features      FeaturesConfig      `json:"features" yaml:"features" mapstructure:"features"`
	Log           LogConfig           `json:"log" yaml:"log" mapstructure:"log"`
}
