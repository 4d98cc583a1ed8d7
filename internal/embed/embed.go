// Copyright PaperMind Labs, 2026. All rights reserved.

// Package embed turns text into fixed-dimension vectors through a
// pluggable backend, memoizing results so repeated texts hit the model
// at most once per process (and at most once ever, with the SQLite
// store attached). Embedding text→vector is a pure function under a
// fixed model version, so entries never expire.
package embed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/papermind/papermind/pkg/types"
)

// Embedder generates a vector embedding for one text. Implementations
// must be deterministic for a fixed model version and return vectors of
// a single stable dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int

	// Model returns the model identifier; cached vectors are only valid
	// for the model that produced them.
	Model() string
}

// Cache memoizes text→vector computations keyed by normalized text.
// Reads and writes are safe under concurrent access from batch workers;
// the lock is never held across a backend call, so concurrent misses on
// the same text may both reach the backend. That is harmless: both calls
// return equal vectors and the last write wins.
type Cache struct {
	backend    Embedder
	store      *Store
	maxTextLen int
	workers    int

	mu      sync.RWMutex
	entries map[string][]float32
}

const (
	defaultMaxTextLen = 8000
	defaultWorkers    = 5
)

// NewCache builds a cache over backend. store may be nil to disable
// persistence; when set, previously persisted vectors are loaded into
// memory and new vectors are written through.
func NewCache(backend Embedder, cfg types.EmbeddingConfig, store *Store) (*Cache, error) {
	c := &Cache{
		backend:    backend,
		store:      store,
		maxTextLen: cfg.MaxTextLen,
		workers:    cfg.BatchWorkers,
		entries:    make(map[string][]float32),
	}
	if c.maxTextLen <= 0 {
		c.maxTextLen = defaultMaxTextLen
	}
	if c.workers <= 0 {
		c.workers = defaultWorkers
	}

	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading embedding cache: %w", err)
		}
		c.entries = loaded
	}
	return c, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Dimension returns the backend's vector dimensionality.
func (c *Cache) Dimension() int { return c.backend.Dimension() }

// Embed returns the vector for text, computing and caching it on a miss.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.Normalize(text)
	if key == "" {
		return nil, fmt.Errorf("empty text")
	}

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.backend.Embed(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if d := c.backend.Dimension(); d > 0 && len(vec) != d {
		return nil, fmt.Errorf("backend returned %d-dim vector, want %d", len(vec), d)
	}

	c.mu.Lock()
	c.entries[key] = vec
	c.mu.Unlock()

	if c.store != nil {
		// Persistence is best effort; a failed write only costs a
		// recomputation in a later process.
		c.store.Put(key, vec)
	}
	return vec, nil
}

// BatchResult holds the outcome of embedding one text in a batch.
type BatchResult struct {
	Vector []float32
	Err    error
}

// EmbedBatch embeds texts through a bounded worker pool, preserving
// input order and length. A failed text is recorded in its result slot,
// never zero-filled; callers filter failures in lock-step with whatever
// the texts describe.
func (c *Cache) EmbedBatch(ctx context.Context, texts []string) []BatchResult {
	results := make([]BatchResult, len(texts))
	if len(texts) == 0 {
		return results
	}

	workers := c.workers
	if workers > len(texts) {
		workers = len(texts)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vec, err := c.Embed(ctx, texts[i])
				results[i] = BatchResult{Vector: vec, Err: err}
			}
		}()
	}

	for i := range texts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Normalize prepares text for embedding and cache lookup: newlines
// collapse to spaces, surrounding whitespace is trimmed, and the result
// is truncated to the backend's maximum length. Case is preserved.
func (c *Cache) Normalize(text string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(cleaned) > c.maxTextLen {
		cleaned = cleaned[:c.maxTextLen]
	}
	return cleaned
}
