// Package store caches analysis artifacts in a local SQLite database so
// repeat runs against the same article and configuration skip the pipeline.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newslens/internal/core"
)

// Store is the SQLite-backed artifact cache. The pipeline itself stays
// stateless; only the CLI driver consults the cache.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// NewStore opens (or creates) the cache database under dataDir.
func NewStore(dataDir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	dbPath := filepath.Join(dataDir, "newslens.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: dbPath, ttl: ttl}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS artifacts (
		cache_key TEXT PRIMARY KEY,
		input_url TEXT,
		artifact TEXT,
		created_at DATETIME
	);`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create artifacts table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheKey derives the cache key for an input URL under a configuration
// fingerprint. Different selection or analysis settings must not share
// cached artifacts.
func CacheKey(inputURL, configFingerprint string) string {
	sum := sha256.Sum256([]byte(inputURL + "\x00" + configFingerprint))
	return hex.EncodeToString(sum[:])
}

// PutArtifact stores an artifact under its cache key, replacing any previous
// entry.
func (s *Store) PutArtifact(key string, artifact core.AnalysisArtifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO artifacts (cache_key, input_url, artifact, created_at)
	VALUES (?, ?, ?, ?)`
	if _, err := s.db.Exec(query, key, artifact.Input.URL, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to cache artifact: %w", err)
	}
	return nil
}

// GetArtifact returns the cached artifact for the key when present and
// younger than the TTL. The boolean reports a usable hit; stale entries are
// deleted on read.
func (s *Store) GetArtifact(key string) (core.AnalysisArtifact, bool, error) {
	var payload string
	var createdAt time.Time

	query := `SELECT artifact, created_at FROM artifacts WHERE cache_key = ?`
	err := s.db.QueryRow(query, key).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return core.AnalysisArtifact{}, false, nil
	}
	if err != nil {
		return core.AnalysisArtifact{}, false, fmt.Errorf("failed to read cache: %w", err)
	}

	if time.Since(createdAt) > s.ttl {
		_, _ = s.db.Exec(`DELETE FROM artifacts WHERE cache_key = ?`, key)
		return core.AnalysisArtifact{}, false, nil
	}

	var artifact core.AnalysisArtifact
	if err := json.Unmarshal([]byte(payload), &artifact); err != nil {
		return core.AnalysisArtifact{}, false, fmt.Errorf("failed to decode cached artifact: %w", err)
	}
	return artifact, true, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries   int
	Expired   int
	SizeBytes int64
	Path      string
}

// GetStats reports entry counts and the database file size.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Path: s.path}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("failed to count entries: %w", err)
	}
	cutoff := time.Now().UTC().Add(-s.ttl)
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM artifacts WHERE created_at < ?`, cutoff).Scan(&stats.Expired); err != nil {
		return stats, fmt.Errorf("failed to count expired entries: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// Clear removes every cached artifact.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM artifacts`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Prune removes entries older than the TTL and returns how many were deleted.
func (s *Store) Prune() (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	result, err := s.db.Exec(`DELETE FROM artifacts WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
