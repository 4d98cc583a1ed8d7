// Copyright PaperMind Labs, 2026. All rights reserved.

// Package recommend orchestrates the retrieval pipeline: aggregate
// sources, embed the corpus, rebuild the vector index, search it with
// the query embedding, and return scored papers. The pipeline owns all
// of its state explicitly; nothing is shared through package globals.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/papermind/papermind/internal/embed"
	"github.com/papermind/papermind/internal/index"
	"github.com/papermind/papermind/internal/source"
	"github.com/papermind/papermind/pkg/types"
)

// ErrNoResults reports that aggregation and filtering yielded zero
// papers. It is a "not found" condition, distinct from a service fault;
// the pipeline never attempts to build an empty index.
var ErrNoResults = errors.New("no papers found")

// State names a phase of one logical query.
type State string

const (
	StateEmpty     State = "empty"
	StateFetching  State = "fetching"
	StateIndexing  State = "indexing"
	StateSearching State = "searching"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Pipeline wires fetchers, the embedding cache, and the vector index
// into one retrieval flow.
type Pipeline struct {
	fetchers []source.Fetcher
	cache    *embed.Cache
	index    *index.Index
	cfg      types.PipelineConfig
	w        io.Writer

	mu    sync.Mutex
	state State
}

// New builds a pipeline. Warnings and progress are written to w.
func New(fetchers []source.Fetcher, cache *embed.Cache, ix *index.Index, cfg types.PipelineConfig, w io.Writer) *Pipeline {
	return &Pipeline{
		fetchers: fetchers,
		cache:    cache,
		index:    ix,
		cfg:      cfg,
		w:        w,
		state:    StateEmpty,
	}
}

// State returns the phase the most recent query reached.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Index exposes the pipeline's index for snapshot save/load.
func (p *Pipeline) Index() *index.Index { return p.index }

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Options adjusts one Recommend call.
type Options struct {
	// MaxResults caps the deduplicated corpus size. Zero uses the
	// configured default.
	MaxResults int

	// TopK is the number of ranked papers returned (default 5).
	TopK int

	// ForceRefresh rebuilds the index even when the fetched corpus
	// matches the current generation's fingerprint.
	ForceRefresh bool
}

// Result is the outcome of one query.
type Result struct {
	// Papers are the top-ranked papers with RelevanceScore set, in
	// non-increasing score order.
	Papers []types.Paper

	// GenerationID identifies the index generation that served the query.
	GenerationID uint64

	// Corpus is the deduplicated paper count going into indexing.
	Corpus int

	// Dropped is the number of papers excluded because their embedding failed.
	Dropped int

	// Reused reports that the current generation's fingerprint matched
	// the fetched corpus, skipping the rebuild.
	Reused bool
}

// Recommend runs the full pipeline for query. Per-source and per-text
// failures are absorbed along the way; the errors that reach the caller
// are the named aggregate conditions: ErrNoResults when nothing survives
// fetching, an *index.BuildError when no embedding succeeds, or a plain
// error when the query itself cannot be embedded.
func (p *Pipeline) Recommend(ctx context.Context, query string, opts Options) (*Result, error) {
	if query == "" {
		p.setState(StateFailed)
		return nil, fmt.Errorf("query is empty")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = p.cfg.Sources.MaxResults
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	p.setState(StateFetching)
	papers := source.FetchAll(ctx, query, p.fetchers, maxResults, p.cfg.Sources, p.w)
	if len(papers) == 0 {
		p.setState(StateFailed)
		return nil, fmt.Errorf("query %q: %w", query, ErrNoResults)
	}

	p.setState(StateIndexing)
	gen, reused, err := p.generationFor(ctx, papers, opts.ForceRefresh)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}

	p.setState(StateSearching)
	queryVec, err := p.cache.Embed(ctx, query)
	if err != nil {
		p.setState(StateFailed)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := gen.Search(queryVec, topK)
	if err != nil {
		p.setState(StateFailed)
		return nil, fmt.Errorf("searching index: %w", err)
	}

	ranked := make([]types.Paper, len(scored))
	for i, s := range scored {
		ranked[i] = s.Paper
	}

	p.setState(StateReady)
	return &Result{
		Papers:       ranked,
		GenerationID: gen.ID,
		Corpus:       len(papers),
		Dropped:      len(papers) - gen.Len(),
		Reused:       reused,
	}, nil
}

// generationFor returns the generation to search: the current one when
// its fingerprint matches the fetched corpus (a repeat query need not
// re-embed an identical paper set), or a fresh rebuild otherwise.
func (p *Pipeline) generationFor(ctx context.Context, papers []types.Paper, force bool) (*index.Generation, bool, error) {
	if !force {
		if cur := p.index.Current(); cur != nil && cur.Fingerprint == index.Fingerprint(papers) {
			return cur, true, nil
		}
	}
	gen, err := p.index.Rebuild(ctx, papers, p.cache, p.w)
	if err != nil {
		return nil, false, fmt.Errorf("rebuilding index: %w", err)
	}
	return gen, false, nil
}
