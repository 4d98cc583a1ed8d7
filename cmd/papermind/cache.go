// Copyright PaperMind Labs, 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papermind/papermind/internal/embed"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent embedding cache",
	Long: `Cache manages the SQLite-backed embedding cache. Cached vectors are
keyed by normalized text and bound to one embedding model; switching
models invalidates the cache automatically.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count and model binding",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Printf("model:   %s\n", store.Model())
		fmt.Printf("entries: %d\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Embedding cache cleared.")
		return nil
	},
}

func openCacheStore() (*embed.Store, error) {
	cfg := pipelineConfig()
	if cfg.Embedding.CacheDir == "" {
		return nil, fmt.Errorf("embedding cache is disabled (embedding.cache_dir is empty)")
	}
	return embed.OpenStore(cfg.Embedding.CacheDir, cfg.Embedding.Model)
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
