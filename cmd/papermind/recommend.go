// Copyright PaperMind Labs, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papermind/papermind/internal/embed"
	"github.com/papermind/papermind/internal/explain"
	"github.com/papermind/papermind/internal/index"
	"github.com/papermind/papermind/internal/recommend"
	"github.com/papermind/papermind/internal/source"
	"github.com/papermind/papermind/pkg/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Recommend papers relevant to a free-text query",
	Long: `Recommend fetches papers from the enabled sources, deduplicates them,
builds a vector index over titles and abstracts, and returns the papers
nearest to the query embedding, ranked by similarity.

Results can optionally carry a short generated explanation of why each
paper matches the query (--explain).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()

	cfg := pipelineConfig()
	applySourceFlags(cmd, &cfg.Sources)

	fetchers := source.Fetchers(cfg.Sources)
	if len(fetchers) == 0 {
		return fmt.Errorf("no sources enabled: enable at least one of arxiv, semantic_scholar, openalex")
	}

	embedder, err := embed.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	var store *embed.Store
	if cfg.Embedding.CacheDir != "" {
		store, err = embed.OpenStore(cfg.Embedding.CacheDir, embedder.Model())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: embedding cache disabled: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	cache, err := embed.NewCache(embedder, cfg.Embedding, store)
	if err != nil {
		return err
	}

	ix := index.New()
	indexDir, _ := cmd.Flags().GetString("index-dir")
	if indexDir != "" {
		if gen, loadErr := index.LoadGeneration(indexDir, embedder.Model(), embedder.Dimension()); loadErr == nil {
			ix.Restore(gen)
		}
	}

	pipe := recommend.New(fetchers, cache, ix, cfg, os.Stderr)

	maxResults, _ := cmd.Flags().GetInt("max-results")
	topK, _ := cmd.Flags().GetInt("top-k")
	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")

	res, err := pipe.Recommend(ctx, query, recommend.Options{
		MaxResults:   maxResults,
		TopK:         topK,
		ForceRefresh: forceRefresh,
	})
	if errors.Is(err, recommend.ErrNoResults) {
		fmt.Println("No papers found.")
		return nil
	}
	if err != nil {
		return err
	}

	if withExplanations, _ := cmd.Flags().GetBool("explain"); withExplanations {
		svc, svcErr := explain.NewService(cfg.Explain)
		if svcErr != nil {
			fmt.Fprintf(os.Stderr, "warning: explanations disabled: %v\n", svcErr)
		} else {
			svc.ExplainTop(ctx, query, res.Papers, cfg.Explain.MaxExplained)
		}
	}

	if indexDir != "" {
		if saveErr := index.SaveGeneration(pipe.Index().Current(), indexDir, embedder.Model()); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: index snapshot not saved: %v\n", saveErr)
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Papers)
	}

	formatResult(res)
	return nil
}

// applySourceFlags narrows the enabled sources to the --sources list.
func applySourceFlags(cmd *cobra.Command, cfg *types.SourceConfig) {
	list, _ := cmd.Flags().GetString("sources")
	if list == "" {
		return
	}

	cfg.EnableArxiv = false
	cfg.EnableSemanticScholar = false
	cfg.EnableOpenAlex = false
	for _, tag := range strings.Split(list, ",") {
		switch types.Source(strings.TrimSpace(tag)) {
		case types.SourceArxiv:
			cfg.EnableArxiv = true
		case types.SourceSemanticScholar:
			cfg.EnableSemanticScholar = true
		case types.SourceOpenAlex:
			cfg.EnableOpenAlex = true
		default:
			fmt.Fprintf(os.Stderr, "warning: unknown source %q ignored\n", tag)
		}
	}
}

// formatResult writes the ranked papers as a human-readable table.
func formatResult(res *recommend.Result) {
	fmt.Printf("%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Source")
	fmt.Println(strings.Repeat("-", 110))

	for i, p := range res.Papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if len(p.Published) >= 4 {
			year = p.Published[:4]
		}
		fmt.Printf("%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, title, formatAuthors(p.Authors), year, p.RelevanceScore, p.Source)
		if p.Explanation != "" {
			fmt.Printf("      %s\n", p.Explanation)
		}
	}

	fmt.Printf("\n%d results from a corpus of %d papers (generation %d",
		len(res.Papers), res.Corpus, res.GenerationID)
	if res.Reused {
		fmt.Print(", reused")
	}
	if res.Dropped > 0 {
		fmt.Printf(", %d dropped", res.Dropped)
	}
	fmt.Println(")")
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	recommendCmd.Flags().Int("max-results", 0, "maximum corpus size after deduplication (0 = config default)")
	recommendCmd.Flags().Int("top-k", 5, "number of ranked papers to return")
	recommendCmd.Flags().String("sources", "", "comma-separated source tags (arxiv, semantic_scholar, openalex)")
	recommendCmd.Flags().Bool("explain", false, "generate a relevance explanation for top results")
	recommendCmd.Flags().Bool("force-refresh", false, "rebuild the index even for an unchanged corpus")
	recommendCmd.Flags().String("index-dir", "", "directory for index snapshots (load before, save after)")
	recommendCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(recommendCmd)
}
