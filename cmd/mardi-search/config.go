// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/mardi-search/internal/secrets"
	"github.com/pdiddy/mardi-search/pkg/types"
)

// setConfigDefaults registers every configuration key with its default so
// that environment variables are picked up for all of them.
func setConfigDefaults() {
	d := types.DefaultSearchConfig()

	viper.SetDefault("mardi.sparql_url", d.Mardi.SPARQLURL)
	viper.SetDefault("mardi.api_url", d.Mardi.APIURL)
	viper.SetDefault("mardi.fetch_limit", d.Mardi.FetchLimit)
	viper.SetDefault("mardi.language", d.Mardi.Language)

	viper.SetDefault("search.max_results", d.MaxResults)

	viper.SetDefault("http.timeout", d.Timeout)
	viper.SetDefault("http.user_agent", d.UserAgent)
	viper.SetDefault("http.max_retries", d.MaxRetries)

	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.path", defaultCachePath())
	viper.SetDefault("cache.ttl", d.Cache.TTL)
}

// defaultCachePath is ~/.cache/mardi-search/cache.db (or the platform
// equivalent), falling back to the working directory.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".mardi-search", "cache.db")
	}
	return filepath.Join(dir, "mardi-search", "cache.db")
}

// searchConfig assembles the effective configuration from viper.
func searchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    viper.GetDuration("http.timeout"),
			UserAgent:  secrets.UserAgent(viper.GetString("http.user_agent"), loadedSecrets),
			MaxRetries: viper.GetInt("http.max_retries"),
		},
		Mardi: types.MardiConfig{
			SPARQLURL:  viper.GetString("mardi.sparql_url"),
			APIURL:     viper.GetString("mardi.api_url"),
			FetchLimit: viper.GetInt("mardi.fetch_limit"),
			Language:   viper.GetString("mardi.language"),
		},
		Cache: types.CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			Path:    viper.GetString("cache.path"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
		MaxResults: viper.GetInt("search.max_results"),
	}
}
