// Copyright PaperMind Labs, 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "papermind/0.1 (research@papermind.ai)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for the source-fetch stage.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of papers returned by aggregation
	// after deduplication (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxPerSource caps the per-source fetch limit regardless of how
	// MaxResults divides across sources (default 50).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source"`

	// MinAbstractLen is the minimum abstract length in bytes; shorter
	// abstracts are dropped at fetch time (default 100).
	MinAbstractLen int `json:"min_abstract_len" yaml:"min_abstract_len"`

	// EnableArxiv controls whether the arXiv fetcher is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar fetcher is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex fetcher is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// EmbeddingConfig holds settings for the embedding stage.
type EmbeddingConfig struct {
	// Model is the embedding model identifier (default "text-embedding-3-small").
	// Cached vectors are keyed by model; changing it invalidates the cache.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Dimension is the expected vector dimensionality (default 1536).
	Dimension int `json:"dimension" yaml:"dimension"`

	// MaxTextLen is the per-text truncation length in bytes before
	// embedding (default 8000).
	MaxTextLen int `json:"max_text_len" yaml:"max_text_len"`

	// BatchWorkers bounds concurrent embedding calls (default 5).
	BatchWorkers int `json:"batch_workers" yaml:"batch_workers"`

	// CacheDir is the directory for the persistent embedding cache
	// (default "data"). Empty disables persistence.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// ExplainConfig holds settings for the explanation stage.
type ExplainConfig struct {
	// Model is the chat model used to generate explanations (default "gpt-3.5-turbo").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the chat API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxExplained is the number of top-ranked papers that receive an
	// explanation (default 5).
	MaxExplained int `json:"max_explained" yaml:"max_explained"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Sources   SourceConfig    `json:"sources" yaml:"sources"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Explain   ExplainConfig   `json:"explain" yaml:"explain"`
}

// DefaultPipelineConfig returns the baseline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Sources: SourceConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "papermind/0.1 (research@papermind.ai)",
			},
			MaxResults:            10,
			MaxPerSource:          50,
			MinAbstractLen:        100,
			EnableArxiv:           true,
			EnableSemanticScholar: true,
			EnableOpenAlex:        false,
		},
		Embedding: EmbeddingConfig{
			Model:        "text-embedding-3-small",
			Dimension:    1536,
			MaxTextLen:   8000,
			BatchWorkers: 5,
			CacheDir:     "data",
		},
		Explain: ExplainConfig{
			Model:        "gpt-3.5-turbo",
			MaxExplained: 5,
		},
	}
}
