// Copyright PaperMind Labs, 2026. All rights reserved.

// Package index owns the vector index: immutable generations of paper
// vectors with positionally aligned metadata, rebuilt from scratch per
// corpus and searched with an exhaustive squared-L2 scan. Corpora are
// small (bounded by the aggregation result limit), so a flat index beats
// any approximate structure.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/papermind/papermind/internal/embed"
	"github.com/papermind/papermind/pkg/types"
)

// ErrNotReady reports a search against an index with no built generation.
// This is a caller error, not a transient fault.
var ErrNotReady = errors.New("index not ready: no generation has been built")

// BuildError reports a rebuild in which no paper could be embedded.
type BuildError struct {
	// Attempted is the number of papers in the rebuild request.
	Attempted int

	// Failed is the number of papers whose embedding failed.
	Failed int

	// Err is the first embedding failure, when any occurred.
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed: %d/%d papers embedded: %v", e.Attempted-e.Failed, e.Attempted, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Generation is one immutable snapshot of the index: Vectors[i]
// corresponds to Papers[i] by position, always. Treat both slices as
// read-only once published.
type Generation struct {
	// ID increases monotonically per index instance.
	ID uint64

	// Fingerprint identifies the deduplicated paper set this generation
	// was built from, regardless of paper order.
	Fingerprint string

	Vectors [][]float32
	Papers  []types.Paper
}

// Len returns the number of indexed papers.
func (g *Generation) Len() int { return len(g.Papers) }

// Scored pairs a paper with its similarity to the query.
type Scored struct {
	Paper types.Paper
	Score float64
}

// Index manages the current generation. Rebuilds are serialized; the
// current generation is swapped atomically so an in-flight search against
// generation N completes against N even if a concurrent rebuild has
// already published N+1.
type Index struct {
	rebuildMu sync.Mutex
	current   atomic.Pointer[Generation]
	nextID    atomic.Uint64
}

// New returns an empty index with no generation.
func New() *Index {
	return &Index{}
}

// Current returns the current generation, or nil before the first build.
func (ix *Index) Current() *Generation {
	return ix.current.Load()
}

// embedText is the representation indexed per paper. Combining title and
// abstract embeds better than either alone.
func embedText(p types.Paper) string {
	return "Title: " + p.Title + "\n\nAbstract: " + p.Abstract
}

// Rebuild embeds every paper and publishes a new generation. Papers whose
// embedding fails are dropped, with Vectors and Papers filtered in
// lock-step so positional alignment never drifts. Zero successful
// embeddings aborts the build with a BuildError and leaves the previous
// generation in place. Per-paper failures are logged to w.
func (ix *Index) Rebuild(ctx context.Context, papers []types.Paper, cache *embed.Cache, w io.Writer) (*Generation, error) {
	ix.rebuildMu.Lock()
	defer ix.rebuildMu.Unlock()

	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = embedText(p)
	}

	results := cache.EmbedBatch(ctx, texts)

	var (
		vectors  [][]float32
		kept     []types.Paper
		failed   int
		firstErr error
	)
	for i, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(w, "warning: dropping %q: %v\n", papers[i].Title, r.Err)
			continue
		}
		vectors = append(vectors, r.Vector)
		kept = append(kept, papers[i])
	}

	if len(kept) == 0 {
		return nil, &BuildError{Attempted: len(papers), Failed: failed, Err: firstErr}
	}

	dim := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return nil, &BuildError{
				Attempted: len(papers),
				Failed:    failed,
				Err:       fmt.Errorf("mixed vector dimensions %d and %d in one build", dim, len(v)),
			}
		}
	}

	gen := &Generation{
		ID:          ix.nextID.Add(1),
		Fingerprint: Fingerprint(papers),
		Vectors:     vectors,
		Papers:      kept,
	}
	ix.current.Store(gen)
	return gen, nil
}

// Restore publishes a previously saved generation as current.
func (ix *Index) Restore(gen *Generation) {
	ix.rebuildMu.Lock()
	defer ix.rebuildMu.Unlock()
	if gen.ID > ix.nextID.Load() {
		ix.nextID.Store(gen.ID)
	}
	ix.current.Store(gen)
}

// Search scans the current generation for the k nearest papers.
// Returns ErrNotReady before the first successful build.
func (ix *Index) Search(queryVec []float32, k int) ([]Scored, error) {
	gen := ix.current.Load()
	if gen == nil {
		return nil, ErrNotReady
	}
	return gen.Search(queryVec, k)
}

// Search scans this generation exhaustively, scoring each paper by
// similarity = 1/(1+d²) where d² is the squared Euclidean distance to
// queryVec. Results come back sorted by non-increasing similarity, ties
// broken by index order (stable sort). k is clamped to the generation
// size.
func (g *Generation) Search(queryVec []float32, k int) ([]Scored, error) {
	if len(g.Vectors) > 0 && len(queryVec) != len(g.Vectors[0]) {
		return nil, fmt.Errorf("query vector is %d-dim, index is %d-dim", len(queryVec), len(g.Vectors[0]))
	}
	if k > g.Len() {
		k = g.Len()
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]Scored, g.Len())
	for i, vec := range g.Vectors {
		d2 := squaredDistance(queryVec, vec)
		p := g.Papers[i]
		p.RelevanceScore = 1.0 / (1.0 + d2)
		scored[i] = Scored{Paper: p, Score: p.RelevanceScore}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored[:k], nil
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Fingerprint hashes the source-qualified IDs of a paper set, order
// independently, so two fetches of the same corpus compare equal.
func Fingerprint(papers []types.Paper) string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = string(p.Source) + ":" + p.ID
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		io.WriteString(h, id)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
