// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mardi-search/internal/search"
	"github.com/pdiddy/mardi-search/internal/secrets"
	"github.com/pdiddy/mardi-search/pkg/types"
)

func TestSearchConfigDefaults(t *testing.T) {
	cfg := searchConfig()
	d := types.DefaultSearchConfig()

	assert.Equal(t, d.Mardi, cfg.Mardi)
	assert.Equal(t, d.MaxResults, cfg.MaxResults)
	assert.Equal(t, d.Timeout, cfg.Timeout)
	assert.Equal(t, d.Cache.TTL, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "cache.db", filepath.Base(cfg.Cache.Path))
}

func TestSearchConfigOverrides(t *testing.T) {
	viper.Set("search.max_results", 3)
	viper.Set("http.timeout", 5*time.Second)
	loadedSecrets = map[string]string{secrets.ContactKey: "ops@example.org"}
	t.Cleanup(func() {
		viper.Set("search.max_results", nil)
		viper.Set("http.timeout", nil)
		loadedSecrets = nil
	})

	cfg := searchConfig()
	assert.Equal(t, 3, cfg.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "MaRDI-MCP-Agent/1.0 (ops@example.org)", cfg.UserAgent)
}

func TestPrintOutput(t *testing.T) {
	out := search.Output{
		Concept: "gamma function",
		Entity:  &types.Entity{ID: "Q56103", Label: "gamma function"},
		Records: []types.ResultRecord{{
			ID:   "Euler's reflection formula",
			TeX:  `\Gamma(z)\Gamma(1-z) = \frac{\pi}{\sin(\pi z)}`,
			Type: types.TypeDefinition,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, printOutput(out, false, &buf))
	assert.Contains(t, buf.String(), `"id": "Euler's reflection formula"`)

	buf.Reset()
	require.NoError(t, printOutput(out, true, &buf))
	assert.Contains(t, buf.String(), "gamma function (Q56103)")
	assert.Contains(t, buf.String(), "1 formulas")
}

func TestNewSearcherWithoutCache(t *testing.T) {
	cfg := types.DefaultSearchConfig()
	cfg.Cache.Enabled = false

	s, cleanup, err := newSearcher(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, 20, s.FetchLimit)
}

func TestNewSearcherWithCache(t *testing.T) {
	cfg := types.DefaultSearchConfig()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")

	s, cleanup, err := newSearcher(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, s.Source)
}
