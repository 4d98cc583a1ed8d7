// Copyright PaperMind Labs, 2026. All rights reserved.

// Package main is the entry point for the papermind CLI, the boundary
// layer over the retrieval pipeline: it loads configuration and secrets,
// wires the pipeline, and maps its named error conditions to user-visible
// output.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papermind/papermind/internal/secrets"
	"github.com/papermind/papermind/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the papermind CLI.
var rootCmd = &cobra.Command{
	Use:   "papermind",
	Short: "Research paper recommendations from a free-text query",
	Long: `papermind recommends research papers for a free-text query. It aggregates
results from academic metadata APIs (arXiv, Semantic Scholar, OpenAlex),
deduplicates them, embeds titles and abstracts into a shared vector space,
and ranks papers by nearest-neighbor similarity to the query embedding.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papermind.yaml or ~/.config/papermind/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papermind")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papermind"))
		}
	}

	viper.SetEnvPrefix("PAPERMIND")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the pipeline configuration from defaults,
// the config file, and loaded secrets, in increasing precedence.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if viper.IsSet("sources.max_results") {
		cfg.Sources.MaxResults = viper.GetInt("sources.max_results")
	}
	if viper.IsSet("sources.min_abstract_len") {
		cfg.Sources.MinAbstractLen = viper.GetInt("sources.min_abstract_len")
	}
	if viper.IsSet("sources.timeout") {
		cfg.Sources.Timeout = viper.GetDuration("sources.timeout")
	}
	if viper.IsSet("sources.enable_arxiv") {
		cfg.Sources.EnableArxiv = viper.GetBool("sources.enable_arxiv")
	}
	if viper.IsSet("sources.enable_semantic_scholar") {
		cfg.Sources.EnableSemanticScholar = viper.GetBool("sources.enable_semantic_scholar")
	}
	if viper.IsSet("sources.enable_openalex") {
		cfg.Sources.EnableOpenAlex = viper.GetBool("sources.enable_openalex")
	}
	if viper.IsSet("embedding.model") {
		cfg.Embedding.Model = viper.GetString("embedding.model")
	}
	if viper.IsSet("embedding.dimension") {
		cfg.Embedding.Dimension = viper.GetInt("embedding.dimension")
	}
	if viper.IsSet("embedding.cache_dir") {
		cfg.Embedding.CacheDir = viper.GetString("embedding.cache_dir")
	}
	if viper.IsSet("explain.model") {
		cfg.Explain.Model = viper.GetString("explain.model")
	}

	cfg.Sources.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", viper.GetString("sources.semantic_scholar_api_key"))
	cfg.Sources.OpenAlexEmail = secretDefault("openalex-email", viper.GetString("sources.openalex_email"))

	apiKey := secretDefault("openai-api-key", viper.GetString("embedding.api_key"))
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Embedding.APIKey = apiKey
	cfg.Explain.APIKey = apiKey

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
