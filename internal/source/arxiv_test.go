// Copyright PaperMind Labs, 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Attention Is
  All You Need</title>
    <summary>` + longAbstract + `</summary>
    <published>2023-01-17T12:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.LG"/>
    <category term="cs.CL"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Short Abstract Paper</title>
    <summary>Too short to embed.</summary>
    <published>2023-01-01T00:00:00Z</published>
    <author><name>Grace Hopper</name></author>
  </entry>
  <entry>
    <id>http://example.org/not-an-arxiv-id</id>
    <title>Entry Without ID</title>
    <summary>` + longAbstract + `</summary>
  </entry>
</feed>`

const longAbstract = `This paper presents a detailed study of sequence transduction models built
entirely on attention mechanisms, dispensing with recurrence and convolutions,
and reports strong results on standard translation benchmarks.`

func TestArxivFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); !strings.HasPrefix(got, "all:") {
			t.Errorf("search_query = %q, want all: prefix", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivFeedXML))
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	f := &ArxivFetcher{Client: ts.Client()}
	papers, err := f.Fetch(context.Background(), "attention transformers", 10, testCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// The short-abstract entry and the entry without an arXiv ID are dropped.
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}

	p := papers[0]
	if p.ID != "2301.07041" {
		t.Errorf("ID = %q, want 2301.07041 (version suffix stripped)", p.ID)
	}
	if strings.Contains(p.Title, "\n") || strings.Contains(p.Title, "  ") {
		t.Errorf("title not whitespace-normalized: %q", p.Title)
	}
	if p.URL != "https://arxiv.org/abs/2301.07041" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.PDFURL != "https://arxiv.org/pdf/2301.07041.pdf" {
		t.Errorf("PDFURL = %q", p.PDFURL)
	}
	if p.Published != "2023-01-17" {
		t.Errorf("Published = %q, want 2023-01-17", p.Published)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "cs.LG" {
		t.Errorf("Categories = %v", p.Categories)
	}
	if p.Source != "arxiv" {
		t.Errorf("Source = %q", p.Source)
	}
}

func TestArxivFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	f := &ArxivFetcher{Client: ts.Client()}
	if _, err := f.Fetch(context.Background(), "q", 10, testCfg()); err == nil {
		t.Error("expected error on HTTP 503")
	}
}

func TestArxivFetchEmptyQuery(t *testing.T) {
	f := &ArxivFetcher{Client: http.DefaultClient}
	if _, err := f.Fetch(context.Background(), "   ", 10, testCfg()); err == nil {
		t.Error("expected error on empty query")
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/cond-mat/9901001v2", "cond-mat/9901001"},
		{"http://example.org/no-abs-path", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
