// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search is the boundary between the tutor agent and MaRDI. It
// resolves a concept, fetches raw formula bindings, and ranks them. Every
// failure on the way (unknown concept, timeout, bad response) degrades to
// an empty result instead of an error, because the caller embeds the JSON
// output verbatim into a model prompt.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/mardi-search/internal/rank"
	"github.com/pdiddy/mardi-search/pkg/types"
)

// Source resolves concepts and fetches raw bindings. mardi.Client talks to
// the portal; cache.CachedSource wraps another Source with SQLite.
type Source interface {
	SearchEntity(ctx context.Context, term string) (*types.Entity, error)
	FetchRawBindings(ctx context.Context, entityID string, limit int) ([]types.RawBinding, error)
}

// Searcher runs concept searches against a Source.
type Searcher struct {
	Source Source

	// FetchLimit is the number of raw bindings requested (0 = source default).
	FetchLimit int

	// MaxResults caps the returned records (0 = rank.DefaultCap).
	MaxResults int

	// Timeout bounds the whole collaborator round trip (0 = no timeout).
	Timeout time.Duration

	Logger *slog.Logger
}

// New builds a Searcher from cfg.
func New(src Source, cfg types.SearchConfig, logger *slog.Logger) *Searcher {
	return &Searcher{
		Source:     src,
		FetchLimit: cfg.Mardi.FetchLimit,
		MaxResults: cfg.MaxResults,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	}
}

// Output is the result of one search together with what happened at the
// boundary.
type Output struct {
	Concept string
	Entity  *types.Entity

	// Fetched is the number of raw bindings received before ranking.
	Fetched int

	Records []types.ResultRecord

	// Err describes a lookup or transport failure that was turned into an
	// empty result. Empty on success and on "concept not found".
	Err string
}

func (s *Searcher) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// Records resolves concept, fetches its formulas, and ranks them. It never
// fails; problems show up as an empty Records slice and a non-empty Err.
func (s *Searcher) Records(ctx context.Context, concept string) Output {
	out := Output{
		Concept: NormalizeConcept(concept),
		Records: []types.ResultRecord{},
	}
	if out.Concept == "" {
		return out
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	log := s.logger().With("concept", out.Concept)

	entity, err := s.Source.SearchEntity(ctx, out.Concept)
	if err != nil {
		log.Warn("entity lookup failed", "error", err)
		out.Err = err.Error()
		return out
	}
	if entity == nil {
		log.Info("concept not found")
		return out
	}
	out.Entity = entity

	bindings, err := s.Source.FetchRawBindings(ctx, entity.ID, s.FetchLimit)
	if err != nil {
		log.Warn("formula fetch failed", "entity", entity.ID, "error", err)
		out.Err = err.Error()
		return out
	}

	out.Fetched = len(bindings)
	out.Records = rank.Rank(bindings, s.MaxResults)
	log.Debug("ranked formulas", "entity", entity.ID, "fetched", out.Fetched, "kept", len(out.Records))
	return out
}

// Search returns the ranked records for concept as an indented JSON array,
// the string handed to the agent. It is "[]" when nothing usable was found.
func (s *Searcher) Search(ctx context.Context, concept string) string {
	out := s.Records(ctx, concept)
	js, err := rank.JSON(out.Records)
	if err != nil {
		s.logger().Error("encoding results", "concept", out.Concept, "error", err)
		return "[]"
	}
	return js
}

// NormalizeConcept applies NFKC and collapses runs of whitespace, so that
// "gamma  function" and "gamma function" resolve and cache the same way.
func NormalizeConcept(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
