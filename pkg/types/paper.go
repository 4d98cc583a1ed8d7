// Copyright PaperMind Labs, 2026. All rights reserved.

// Package types defines shared data structures for the papermind
// retrieval pipeline: the normalized Paper record produced by source
// fetchers and the per-stage configuration structs.
package types

// Source identifies an external paper-metadata provider.
type Source string

const (
	SourceArxiv           Source = "arxiv"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceOpenAlex        Source = "openalex"
)

// Paper is a normalized paper-metadata record. Fetchers create Papers
// from raw provider output; after that the record is immutable except
// for RelevanceScore (assigned during search) and Explanation (attached
// by the explanation service for top-ranked results).
type Paper struct {
	// ID is the provider-assigned identifier, unique within one source
	// (arXiv ID, Semantic Scholar paper ID, or bare DOI).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title, whitespace-normalized (no embedded newlines).
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract, whitespace-normalized. Fetchers drop
	// results whose abstract is missing or shorter than the configured
	// minimum, so Abstract is always non-trivial here.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication date as "YYYY-MM-DD", or empty when the
	// provider reports none.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`

	// URL is the paper landing page.
	URL string `json:"url" yaml:"url"`

	// PDFURL is a direct PDF link when the provider exposes one (arXiv).
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Source identifies which provider returned this record.
	Source Source `json:"source" yaml:"source"`

	// CitationCount is the provider-reported citation count, nil when the
	// provider does not track citations.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Categories lists subject classifications (arXiv category terms).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// RelevanceScore is the similarity of this paper to the query, in
	// (0, 1], set by index search. Zero means not yet scored.
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// Explanation is a short natural-language account of why the paper is
	// relevant, attached for top results only.
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}
