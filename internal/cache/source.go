// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pdiddy/mardi-search/internal/search"
	"github.com/pdiddy/mardi-search/pkg/types"
)

// CachedSource answers from the Store when it can and falls back to the
// wrapped Source otherwise. Only successful upstream answers are cached;
// cache read or write errors are logged and never fail a search.
type CachedSource struct {
	Store    *Store
	Upstream search.Source
	Logger   *slog.Logger
}

var _ search.Source = (*CachedSource)(nil)

// NewSource wraps upstream with store.
func NewSource(store *Store, upstream search.Source, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedSource{Store: store, Upstream: upstream, Logger: logger}
}

// termKey makes lookups for "Gamma  Function" and "gamma function" share
// one cache row. The upstream search is case-insensitive as well.
func termKey(term string) string {
	return strings.ToLower(search.NormalizeConcept(term))
}

// SearchEntity implements search.Source.
func (c *CachedSource) SearchEntity(ctx context.Context, term string) (*types.Entity, error) {
	key := termKey(term)
	e, hit, err := c.Store.Entity(ctx, key)
	if err != nil {
		c.Logger.Warn("cache read failed", "term", key, "error", err)
	} else if hit {
		c.Logger.Debug("cache hit", "term", key)
		return e, nil
	}

	e, err = c.Upstream.SearchEntity(ctx, term)
	if err != nil {
		return nil, err
	}
	if err := c.Store.PutEntity(ctx, key, e); err != nil {
		c.Logger.Warn("cache write failed", "term", key, "error", err)
	}
	return e, nil
}

// FetchRawBindings implements search.Source.
func (c *CachedSource) FetchRawBindings(ctx context.Context, entityID string, limit int) ([]types.RawBinding, error) {
	bindings, hit, err := c.Store.Bindings(ctx, entityID, limit)
	if err != nil {
		c.Logger.Warn("cache read failed", "entity", entityID, "error", err)
	} else if hit {
		c.Logger.Debug("cache hit", "entity", entityID, "bindings", len(bindings))
		return bindings, nil
	}

	bindings, err = c.Upstream.FetchRawBindings(ctx, entityID, limit)
	if err != nil {
		return nil, err
	}
	if err := c.Store.PutBindings(ctx, entityID, limit, bindings); err != nil {
		c.Logger.Warn("cache write failed", "entity", entityID, "error", err)
	}
	return bindings, nil
}
