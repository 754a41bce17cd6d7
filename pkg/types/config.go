package types

import "time"

// HTTPConfig holds shared HTTP settings for requests to MaRDI.
type HTTPConfig struct {
	// Timeout bounds one whole search (entity lookup plus SPARQL fetch).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request
	// (e.g. "MaRDI-MCP-Agent/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (0 = default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// MardiConfig holds the knowledge graph endpoints and query settings.
type MardiConfig struct {
	// SPARQLURL is the SPARQL query service endpoint.
	SPARQLURL string `json:"sparql_url" yaml:"sparql_url"`

	// APIURL is the MediaWiki action API used for entity search.
	APIURL string `json:"api_url" yaml:"api_url"`

	// FetchLimit is the SPARQL LIMIT for raw bindings (default 20).
	FetchLimit int `json:"fetch_limit" yaml:"fetch_limit"`

	// Language selects labels and descriptions (default "en").
	Language string `json:"language" yaml:"language"`
}

// CacheConfig holds settings for the SQLite binding cache.
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// TTL is how long cached lookups stay valid (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// SearchConfig groups everything one search needs.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	Mardi MardiConfig `json:"mardi" yaml:"mardi"`
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// MaxResults is the cap on returned records (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DefaultSearchConfig returns the settings used when nothing is configured.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "MaRDI-MCP-Agent/1.0",
		},
		Mardi: MardiConfig{
			SPARQLURL:  "https://query.portal.mardi4nfdi.de/sparql",
			APIURL:     "https://portal.mardi4nfdi.de/w/api.php",
			FetchLimit: 20,
			Language:   "en",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     7 * 24 * time.Hour,
		},
		MaxResults: 10,
	}
}
