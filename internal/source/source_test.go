// Copyright PaperMind Labs, 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/papermind/papermind/pkg/types"
)

// --- mock fetcher ---

type mockFetcher struct {
	name     string
	papers   []types.Paper
	err      error
	gotLimit int
	delay    time.Duration
}

func (m *mockFetcher) Name() string { return m.name }

func (m *mockFetcher) Fetch(_ context.Context, _ string, limit int, _ types.SourceConfig) ([]types.Paper, error) {
	m.gotLimit = limit
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.papers, m.err
}

func testCfg() types.SourceConfig {
	return types.SourceConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults:     20,
		MaxPerSource:   50,
		MinAbstractLen: 100,
	}
}

func paper(source types.Source, id, title string) types.Paper {
	return types.Paper{ID: id, Title: title, Abstract: strings.Repeat("a", 120), Source: source}
}

// --- TitleKey ---

func TestTitleKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"case insensitive", "Deep Learning for X", "deep learning for x", true},
		{"whitespace stripped", "Deep  Learning\tfor X", "DeepLearningforX", true},
		{"hyphen variants", "self-attention networks", "self attention networks", true},
		{"different titles", "Paper A", "Paper B", false},
		{"long titles compared by prefix", strings.Repeat("x", 60) + " one", strings.Repeat("x", 60) + " two", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleKey(tt.a) == TitleKey(tt.b); got != tt.same {
				t.Errorf("TitleKey(%q) == TitleKey(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

// --- Deduplicate ---

func TestDeduplicateFirstWins(t *testing.T) {
	papers := []types.Paper{
		{Title: "Deep Learning for X", Source: types.SourceArxiv, ID: "1"},
		{Title: "deep learning for x", Source: types.SourceSemanticScholar, ID: "2"},
		{Title: "Something Else Entirely", Source: types.SourceArxiv, ID: "3"},
	}

	unique := Deduplicate(papers)
	if len(unique) != 2 {
		t.Fatalf("len(unique) = %d, want 2", len(unique))
	}
	if unique[0].Source != types.SourceArxiv || unique[0].ID != "1" {
		t.Errorf("first occurrence should win, got %+v", unique[0])
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	papers := []types.Paper{
		{Title: "Paper A", ID: "1"},
		{Title: "paper a", ID: "2"},
		{Title: "Paper B", ID: "3"},
	}

	once := Deduplicate(papers)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Deduplicate is not idempotent: %v != %v", once, twice)
	}
}

// --- FetchAll ---

func TestFetchAllMergesInNameOrder(t *testing.T) {
	// The slower fetcher sorts first alphabetically; its papers must
	// still lead the merged list.
	slow := &mockFetcher{
		name:   "arxiv",
		delay:  20 * time.Millisecond,
		papers: []types.Paper{paper(types.SourceArxiv, "a1", "Alpha Paper")},
	}
	fast := &mockFetcher{
		name:   "semantic_scholar",
		papers: []types.Paper{paper(types.SourceSemanticScholar, "s1", "Beta Paper")},
	}

	got := FetchAll(context.Background(), "q", []Fetcher{slow, fast}, 10, testCfg(), io.Discard)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Source != types.SourceArxiv {
		t.Errorf("got[0].Source = %s, want arxiv (alphabetical merge order)", got[0].Source)
	}
}

func TestFetchAllCrossSourceDuplicate(t *testing.T) {
	a := &mockFetcher{
		name:   "arxiv",
		papers: []types.Paper{paper(types.SourceArxiv, "a1", "Deep Learning for X")},
	}
	s := &mockFetcher{
		name:   "semantic_scholar",
		papers: []types.Paper{paper(types.SourceSemanticScholar, "s1", "deep learning for x")},
	}

	got := FetchAll(context.Background(), "q", []Fetcher{a, s}, 10, testCfg(), io.Discard)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 after cross-source dedup", len(got))
	}
	if got[0].Source != types.SourceArxiv {
		t.Errorf("surviving paper from %s, want arxiv (first in fetch order)", got[0].Source)
	}
}

func TestFetchAllAbsorbsFailure(t *testing.T) {
	ok := &mockFetcher{
		name:   "arxiv",
		papers: []types.Paper{paper(types.SourceArxiv, "a1", "Alpha Paper")},
	}
	broken := &mockFetcher{name: "semantic_scholar", err: errors.New("HTTP 500")}

	var log strings.Builder
	got := FetchAll(context.Background(), "q", []Fetcher{ok, broken}, 10, testCfg(), &log)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (failing source contributes zero papers)", len(got))
	}
	if !strings.Contains(log.String(), "semantic_scholar") {
		t.Errorf("failure should be logged, got %q", log.String())
	}
}

func TestFetchAllPerSourceLimit(t *testing.T) {
	a := &mockFetcher{name: "arxiv"}
	s := &mockFetcher{name: "semantic_scholar"}
	o := &mockFetcher{name: "openalex"}

	FetchAll(context.Background(), "q", []Fetcher{a, s, o}, 10, testCfg(), io.Discard)

	// 10 / 3 = 3, remainder dropped.
	for _, f := range []*mockFetcher{a, s, o} {
		if f.gotLimit != 3 {
			t.Errorf("%s limit = %d, want 3", f.name, f.gotLimit)
		}
	}
}

func TestFetchAllTruncatesToMaxResults(t *testing.T) {
	var papers []types.Paper
	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		papers = append(papers, paper(types.SourceArxiv, title, title+" Paper"))
	}
	f := &mockFetcher{name: "arxiv", papers: papers}

	got := FetchAll(context.Background(), "q", []Fetcher{f}, 3, testCfg(), io.Discard)
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestFetchAllNoFetchers(t *testing.T) {
	got := FetchAll(context.Background(), "q", nil, 10, testCfg(), io.Discard)
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

// --- helpers ---

func TestNormalizeSpace(t *testing.T) {
	in := "  Attention\nIs   All\tYou Need \n"
	want := "Attention Is All You Need"
	if got := normalizeSpace(in); got != want {
		t.Errorf("normalizeSpace = %q, want %q", got, want)
	}
}

func TestFetchersSortedAndFiltered(t *testing.T) {
	cfg := testCfg()
	cfg.EnableArxiv = true
	cfg.EnableSemanticScholar = true
	cfg.EnableOpenAlex = true

	fetchers := Fetchers(cfg)
	if len(fetchers) != 3 {
		t.Fatalf("len = %d, want 3", len(fetchers))
	}
	for i := 1; i < len(fetchers); i++ {
		if fetchers[i-1].Name() >= fetchers[i].Name() {
			t.Errorf("fetchers not sorted: %s before %s", fetchers[i-1].Name(), fetchers[i].Name())
		}
	}

	cfg.EnableSemanticScholar = false
	cfg.EnableOpenAlex = false
	fetchers = Fetchers(cfg)
	if len(fetchers) != 1 || fetchers[0].Name() != "arxiv" {
		t.Errorf("got %d fetchers, want only arxiv", len(fetchers))
	}
}
