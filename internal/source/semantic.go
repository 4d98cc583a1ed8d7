// Copyright PaperMind Labs, 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papermind/papermind/internal/httputil"
	"github.com/papermind/papermind/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,year,publicationDate,url,citationCount"

// SemanticScholarFetcher queries the Semantic Scholar Graph API.
type SemanticScholarFetcher struct {
	Client *http.Client
	APIKey string
}

// Name returns the source tag.
func (f *SemanticScholarFetcher) Name() string { return string(types.SourceSemanticScholar) }

// Fetch queries Semantic Scholar and normalizes each result into a Paper.
// The unauthenticated API rate-limits aggressively, so requests go through
// the shared 429 retry helper.
func (f *SemanticScholarFetcher) Fetch(ctx context.Context, query string, limit int, cfg types.SourceConfig) ([]types.Paper, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // API limit
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if f.APIKey != "" {
		req.Header.Set("x-api-key", f.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	minLen := minAbstractLen(cfg)
	var papers []types.Paper
	for _, item := range sr.Data {
		abstract := normalizeSpace(item.Abstract)
		if len(abstract) < minLen {
			continue
		}

		p := types.Paper{
			ID:            item.PaperID,
			Title:         normalizeSpace(item.Title),
			Abstract:      abstract,
			URL:           item.URL,
			Source:        types.SourceSemanticScholar,
			CitationCount: item.CitationCount,
		}

		for _, a := range item.Authors {
			if a.Name != "" {
				p.Authors = append(p.Authors, a.Name)
			}
		}

		if item.PublicationDate != "" {
			p.Published = item.PublicationDate
		} else if item.Year > 0 {
			p.Published = fmt.Sprintf("%d", item.Year)
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string           `json:"paperId"`
	Title           string           `json:"title"`
	Abstract        string           `json:"abstract"`
	Year            int              `json:"year"`
	PublicationDate string           `json:"publicationDate"`
	URL             string           `json:"url"`
	CitationCount   *int             `json:"citationCount"`
	Authors         []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
