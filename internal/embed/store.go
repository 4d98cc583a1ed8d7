// Copyright PaperMind Labs, 2026. All rights reserved.

package embed

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "papermind.db"

// Store persists cached embeddings in a SQLite database. Rows are keyed
// by normalized text and tagged with the model that produced them: when
// the configured model differs from the stored one, Open wipes every row,
// so a vector from model A is never returned for a lookup expecting
// model B's dimensionality.
type Store struct {
	db    *sql.DB
	model string
}

// OpenStore opens or creates the cache database at dir/papermind.db for
// the given embedding model.
func OpenStore(dir, model string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, model: model}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	if err := s.validateModel(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cache_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			text_key TEXT PRIMARY KEY,
			vector BLOB NOT NULL,
			dim INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// validateModel compares the stored model tag against the configured one
// and invalidates the cache in full on a mismatch.
func (s *Store) validateModel() error {
	var stored string
	err := s.db.QueryRow(`SELECT value FROM cache_meta WHERE key = 'model'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		// Fresh database.
	case err != nil:
		return fmt.Errorf("reading cache model tag: %w", err)
	case stored != s.model:
		if _, err := s.db.Exec(`DELETE FROM embeddings`); err != nil {
			return fmt.Errorf("invalidating cache for model change: %w", err)
		}
	default:
		return nil
	}

	_, err = s.db.Exec(
		`INSERT INTO cache_meta (key, value) VALUES ('model', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, s.model)
	if err != nil {
		return fmt.Errorf("writing cache model tag: %w", err)
	}
	return nil
}

// Load reads all persisted vectors into a map keyed by normalized text.
func (s *Store) Load() (map[string][]float32, error) {
	rows, err := s.db.Query(`SELECT text_key, vector, dim FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("reading cached embeddings: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]float32)
	for rows.Next() {
		var key string
		var blob []byte
		var dim int
		if err := rows.Scan(&key, &blob, &dim); err != nil {
			return nil, fmt.Errorf("scanning cached embedding: %w", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("decoding cached embedding %q: %w", key, err)
		}
		entries[key] = vec
	}
	return entries, rows.Err()
}

// Put upserts one vector. Errors are swallowed: the store is a cache and
// a failed write only costs a recomputation later.
func (s *Store) Put(key string, vec []float32) {
	_, _ = s.db.Exec(
		`INSERT INTO embeddings (text_key, vector, dim) VALUES (?, ?, ?)
		 ON CONFLICT(text_key) DO UPDATE SET vector=excluded.vector, dim=excluded.dim`,
		key, encodeVector(vec), len(vec))
}

// Count returns the number of persisted vectors.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cached embeddings: %w", err)
	}
	return n, nil
}

// Model returns the model tag the store is bound to.
func (s *Store) Model() string { return s.model }

// Clear removes every persisted vector.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clearing embedding cache: %w", err)
	}
	return nil
}

// Vectors are stored as little-endian float32 blobs.

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob) != 4*dim {
		return nil, fmt.Errorf("blob is %d bytes, want %d for dim %d", len(blob), 4*dim, dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
