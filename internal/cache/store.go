// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps MaRDI entity lookups and raw formula bindings in a
// local SQLite database so repeated tutor questions about the same concept
// do not hit the portal again. Entries expire after a configurable TTL.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mardi-search/pkg/types"
)

const defaultTTL = 7 * 24 * time.Hour

// timeLayout is fixed-width so fetched_at compares correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the cache database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.CacheConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			term TEXT PRIMARY KEY,
			found INTEGER NOT NULL,
			entity_id TEXT,
			label TEXT,
			description TEXT,
			concept_uri TEXT,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bindings (
			entity_id TEXT NOT NULL,
			fetch_limit INTEGER NOT NULL,
			payload TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (entity_id, fetch_limit)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_fetched_at ON entities(fetched_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bindings_fetched_at ON bindings(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// cutoff is the oldest fetched_at that is still fresh.
func (s *Store) cutoff() string {
	return s.now().Add(-s.ttl).UTC().Format(timeLayout)
}

// Entity returns the cached lookup for term. hit is false when nothing
// fresh is cached. A hit with a nil entity records "not found".
func (s *Store) Entity(ctx context.Context, term string) (entity *types.Entity, hit bool, err error) {
	var (
		found                       bool
		id, label, desc, conceptURI sql.NullString
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT found, entity_id, label, description, concept_uri FROM entities
		 WHERE term = ? AND fetched_at >= ?`, term, s.cutoff(),
	).Scan(&found, &id, &label, &desc, &conceptURI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached entity: %w", err)
	}
	if !found {
		return nil, true, nil
	}
	return &types.Entity{
		ID:          id.String,
		Label:       label.String,
		Description: desc.String,
		ConceptURI:  conceptURI.String,
	}, true, nil
}

// PutEntity caches the lookup result for term. A nil entity is cached as
// "not found".
func (s *Store) PutEntity(ctx context.Context, term string, e *types.Entity) error {
	var id, label, desc, conceptURI any
	if e != nil {
		id, label, desc, conceptURI = e.ID, e.Label, e.Description, e.ConceptURI
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (term, found, entity_id, label, description, concept_uri, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(term) DO UPDATE SET
			found=excluded.found, entity_id=excluded.entity_id, label=excluded.label,
			description=excluded.description, concept_uri=excluded.concept_uri,
			fetched_at=excluded.fetched_at`,
		term, e != nil, id, label, desc, conceptURI, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("caching entity: %w", err)
	}
	return nil
}

// Bindings returns the cached raw bindings for entityID fetched with limit.
func (s *Store) Bindings(ctx context.Context, entityID string, limit int) ([]types.RawBinding, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bindings
		 WHERE entity_id = ? AND fetch_limit = ? AND fetched_at >= ?`,
		entityID, limit, s.cutoff(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached bindings: %w", err)
	}

	var bindings []types.RawBinding
	if err := json.Unmarshal([]byte(payload), &bindings); err != nil {
		return nil, false, fmt.Errorf("decoding cached bindings: %w", err)
	}
	return bindings, true, nil
}

// PutBindings caches the raw bindings fetched for entityID with limit.
func (s *Store) PutBindings(ctx context.Context, entityID string, limit int, bindings []types.RawBinding) error {
	if bindings == nil {
		bindings = []types.RawBinding{}
	}
	payload, err := json.Marshal(bindings)
	if err != nil {
		return fmt.Errorf("encoding bindings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bindings (entity_id, fetch_limit, payload, row_count, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(entity_id, fetch_limit) DO UPDATE SET
			payload=excluded.payload, row_count=excluded.row_count, fetched_at=excluded.fetched_at`,
		entityID, limit, string(payload), len(bindings), s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("caching bindings: %w", err)
	}
	return nil
}

// Stats holds cache occupancy counts.
type Stats struct {
	Entities        int `json:"entities" yaml:"entities"`
	NotFound        int `json:"not_found" yaml:"not_found"`
	BindingSets     int `json:"binding_sets" yaml:"binding_sets"`
	Bindings        int `json:"bindings" yaml:"bindings"`
	ExpiredEntities int `json:"expired_entities" yaml:"expired_entities"`
	ExpiredBindings int `json:"expired_binding_sets" yaml:"expired_binding_sets"`
}

// Stats counts cached rows, including expired ones not yet pruned.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	cutoff := s.cutoff()

	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
		        coalesce(sum(CASE WHEN found = 0 THEN 1 ELSE 0 END), 0),
		        coalesce(sum(CASE WHEN fetched_at < ? THEN 1 ELSE 0 END), 0)
		 FROM entities`, cutoff,
	).Scan(&st.Entities, &st.NotFound, &st.ExpiredEntities)
	if err != nil {
		return st, fmt.Errorf("counting entities: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT count(*),
		        coalesce(sum(row_count), 0),
		        coalesce(sum(CASE WHEN fetched_at < ? THEN 1 ELSE 0 END), 0)
		 FROM bindings`, cutoff,
	).Scan(&st.BindingSets, &st.Bindings, &st.ExpiredBindings)
	if err != nil {
		return st, fmt.Errorf("counting bindings: %w", err)
	}
	return st, nil
}

// Prune deletes expired rows and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.cutoff()
	var total int64
	for _, table := range []string{"entities", "bindings"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE fetched_at < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("pruning %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Clear deletes every cached row.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entities", "bindings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}
