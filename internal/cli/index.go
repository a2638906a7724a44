package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the recipe corpus and write the embedding cache",
	Long: `Load the recipe corpus, embed every recipe and store the vectors in the
embedding cache (retrieval.cache_path). When the cache already matches the corpus
and model, nothing is recomputed.

Examples:
  reciperag index           # Build or reuse the cache
  reciperag index --force   # Discard the cache and re-embed`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "delete the existing cache before indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if _, err := os.Stat(cfg.Retrieval.CorpusPath); err != nil {
		return fmt.Errorf("corpus not found: %w", err)
	}

	if indexForce {
		if err := os.Remove(cfg.Retrieval.CachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache: %w", err)
		}
		fmt.Printf("Removed cache %s\n", cfg.Retrieval.CachePath)
	}

	fmt.Printf("Loading %s...\n", cfg.Retrieval.CorpusPath)
	dimension := "model default"
	if cfg.Embedding.Dimension > 0 {
		dimension = fmt.Sprint(cfg.Embedding.Dimension)
	}
	fmt.Printf("Embedding config: provider=%s, model=%s, dimension=%s\n",
		cfg.Embedding.Provider, cfg.Embedding.Model, dimension)

	start := time.Now()
	r, err := openRetriever(cfg)
	if err != nil {
		return err
	}
	corpus := r.Corpus()

	cacheState := "rebuilt"
	if r.CacheHit() {
		cacheState = "reused"
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Corpus version: %s\n", corpus.Version)
	fmt.Printf("  Recipes:        %d\n", corpus.Len())
	fmt.Printf("  Cache:          %s\n", cacheState)
	fmt.Printf("  Fingerprint:    %s\n", r.Fingerprint()[:16])
	fmt.Printf("  Took:           %s\n", formatDuration(time.Since(start)))

	if len(corpus.Degraded) > 0 {
		fmt.Printf("\nWarnings (%d degraded fields):\n", len(corpus.Degraded))
		for _, d := range corpus.Degraded {
			fmt.Printf("  - recipe %d (%s) %s: %s\n", d.Index, d.DishID, d.Field, d.Reason)
		}
	}

	fmt.Printf("\nCache stored at: %s\n", cfg.Retrieval.CachePath)
	return nil
}
