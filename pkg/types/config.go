package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// EutilsConfig holds settings for the E-utilities executor.
type EutilsConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the E-utilities root (ESearch and EFetch live below it).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Email identifies the caller to NCBI; sent as the "email" parameter.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// Tool is sent as the "tool" parameter.
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// APIKey is an optional NCBI API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// FetchBatchSize caps the IDs per EFetch request; each batch is one
	// response chunk for the analyzer (default 200).
	FetchBatchSize int `json:"fetch_batch_size" yaml:"fetch_batch_size" mapstructure:"fetch_batch_size"`

	// MaxRetries is the number of retries on HTTP 429 and 5xx (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// SearchCacheTTL keeps ESearch ID lists for repeated identical queries.
	// Zero disables the cache.
	SearchCacheTTL time.Duration `json:"search_cache_ttl" yaml:"search_cache_ttl" mapstructure:"search_cache_ttl"`
}

// OutputConfig holds settings for rendering extracted records.
type OutputConfig struct {
	// RecordBaseURL prefixes the PMID in canonical article URLs.
	RecordBaseURL string `json:"record_base_url" yaml:"record_base_url" mapstructure:"record_base_url"`
}

// HistoryConfig holds settings for the search history store.
type HistoryConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default number of entries listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RequestsPerSecond and Burst bound requests per client address.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst" mapstructure:"burst"`

	// SearchTimeout bounds a single /api/search request.
	SearchTimeout time.Duration `json:"search_timeout" yaml:"search_timeout" mapstructure:"search_timeout"`
}

// Config groups all component configurations.
type Config struct {
	Eutils  EutilsConfig  `json:"eutils" yaml:"eutils" mapstructure:"eutils"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Eutils: EutilsConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "pubmed-search/0.1",
			},
			BaseURL:        "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Tool:           "pubmed-search",
			FetchBatchSize: 200,
			MaxRetries:     5,
			SearchCacheTTL: 10 * time.Minute,
		},
		Output: OutputConfig{
			RecordBaseURL: "https://pubmed.ncbi.nlm.nih.gov",
		},
		History: HistoryConfig{
			Path:       "pubmed-search.db",
			MaxResults: 20,
		},
		Server: ServerConfig{
			Addr:              ":5000",
			RequestsPerSecond: 2,
			Burst:             5,
			SearchTimeout:     2 * time.Minute,
		},
	}
}
