// Copyright PaperMind Labs, 2026. All rights reserved.

// Package source queries external paper-metadata providers and merges
// their output into one deduplicated Paper list. Each provider implements
// the Fetcher interface per the Strategy pattern; FetchAll fans out to
// all configured fetchers concurrently and absorbs per-source failures.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/papermind/papermind/pkg/types"
)

// Fetcher queries a single paper-metadata provider. Implementations must
// return whitespace-normalized Papers and drop results whose abstract is
// missing or shorter than cfg.MinAbstractLen: short abstracts produce
// low-quality embeddings downstream.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int, cfg types.SourceConfig) ([]types.Paper, error)
}

// Fetchers returns the fetchers enabled by cfg, sorted by name.
func Fetchers(cfg types.SourceConfig) []Fetcher {
	var fetchers []Fetcher
	if cfg.EnableArxiv {
		fetchers = append(fetchers, &ArxivFetcher{Client: httpClient(cfg)})
	}
	if cfg.EnableOpenAlex {
		fetchers = append(fetchers, &OpenAlexFetcher{Client: httpClient(cfg), Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableSemanticScholar {
		fetchers = append(fetchers, &SemanticScholarFetcher{Client: httpClient(cfg), APIKey: cfg.SemanticScholarAPIKey})
	}
	sort.Slice(fetchers, func(i, j int) bool { return fetchers[i].Name() < fetchers[j].Name() })
	return fetchers
}

// FetchAll fans the query out to all fetchers concurrently, merges their
// output in alphabetical fetcher order, deduplicates by normalized title,
// and truncates to maxResults. A failing fetcher contributes zero papers
// and a warning on w; it never fails the aggregate call.
//
// maxResults is divided evenly across fetchers as a per-source limit.
// Dedup keeps the first occurrence of each title key, so fetcher order
// determines which provider's record survives a cross-source duplicate.
func FetchAll(ctx context.Context, query string, fetchers []Fetcher, maxResults int, cfg types.SourceConfig, w io.Writer) []types.Paper {
	if len(fetchers) == 0 {
		return nil
	}

	perSource := maxResults / len(fetchers)
	if perSource < 1 {
		perSource = 1
	}
	if cfg.MaxPerSource > 0 && perSource > cfg.MaxPerSource {
		perSource = cfg.MaxPerSource
	}

	// Collect by fetcher name so the merge order is deterministic
	// regardless of completion order.
	byName := make(map[string][]types.Paper, len(fetchers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, f := range fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			papers, err := f.Fetch(ctx, query, perSource, cfg)
			if err != nil {
				fmt.Fprintf(w, "warning: source %s failed: %v\n", f.Name(), err)
				return
			}
			mu.Lock()
			byName[f.Name()] = papers
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	names := make([]string, 0, len(fetchers))
	for _, f := range fetchers {
		names = append(names, f.Name())
	}
	sort.Strings(names)

	var all []types.Paper
	for _, name := range names {
		all = append(all, byName[name]...)
	}

	deduped := Deduplicate(all)
	if maxResults > 0 && len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}
	return deduped
}

// Deduplicate removes papers that share a normalized-title key, keeping
// the first occurrence. It is idempotent: running it on already-deduped
// input returns the same list.
func Deduplicate(papers []types.Paper) []types.Paper {
	seen := make(map[string]struct{}, len(papers))
	unique := make([]types.Paper, 0, len(papers))

	for _, p := range papers {
		key := TitleKey(p.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// titleKeyLen bounds the dedup key so trailing subtitle differences
// ("... : a survey") do not defeat cross-source matching.
const titleKeyLen = 50

// TitleKey returns the deduplication key for a title: lower-cased, all
// whitespace and hyphens stripped, truncated to the first 50 bytes.
// Stripping hyphens catches hyphenation variants across providers.
func TitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r == '-':
		case r == ' ', r == '\t', r == '\n', r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	key := b.String()
	if len(key) > titleKeyLen {
		key = key[:titleKeyLen]
	}
	return key
}

// normalizeSpace collapses all runs of whitespace (including newlines
// embedded by providers that hard-wrap text) into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// httpClient builds a client with the configured request timeout. Every
// provider call is bounded by it; a timeout is a fetch failure, not fatal
// to the pipeline.
func httpClient(cfg types.SourceConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// minAbstractLen returns the configured abstract threshold or the default.
func minAbstractLen(cfg types.SourceConfig) int {
	if cfg.MinAbstractLen > 0 {
		return cfg.MinAbstractLen
	}
	return 100
}
