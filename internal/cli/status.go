package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reciperag/internal/adapter/fs"
	"reciperag/internal/adapter/store"
	"reciperag/internal/domain"
	"reciperag/internal/usecase"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the corpus, cache and results are in place",
	Long: `Report which experiment files exist: the corpus, the embedding cache, the
results directory and the per-condition results. Exits non-zero when a required
file is missing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := cfg.Experiment.ResultsDir

	checks, ok := fs.CheckPaths([]fs.PathCheck{
		{Description: "Recipe corpus", Path: cfg.Retrieval.CorpusPath, Required: true},
		{Description: "Embedding cache", Path: cfg.Retrieval.CachePath},
		{Description: "Results directory", Path: dir, Required: true},
		{Description: "Zero-shot results", Path: usecase.ResultsPath(dir, domain.ConditionZeroShot), Required: true},
		{Description: "Few-shot RAG results", Path: usecase.ResultsPath(dir, domain.ConditionFewShotRAG), Required: true},
		{Description: "Metrics comparison", Path: filepath.Join(dir, usecase.MetricsReportName)},
	})

	fmt.Println("EXPERIMENT STATUS")
	fmt.Println(strings.Repeat("=", 60))
	for _, c := range checks {
		mark := "ok"
		if !c.Exists {
			mark = "missing"
			if !c.Required {
				mark = "absent"
			}
		}
		fmt.Printf("  [%-7s] %-22s %s\n", mark, c.Description, c.Path)
	}

	if info, err := store.NewBoltEmbeddingCache(cfg.Retrieval.CachePath, logger).Inspect(); err == nil {
		fmt.Printf("\nCache: %d vectors, model %s, dimension %d, schema v%d\n",
			info.Count, info.Model, info.Dimension, info.SchemaVersion)
		if info.Model != cfg.Embedding.Model ||
			(cfg.Embedding.Dimension > 0 && info.Dimension != cfg.Embedding.Dimension) {
			fmt.Println("  (built with a different embedding config; the next run will re-embed)")
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("\nCache: unreadable (%v)\n", err)
	}

	if _, err := os.Stat(dir); err == nil {
		files, err := fs.ResultFiles(dir, "**/*.json")
		if err != nil {
			return err
		}
		fmt.Printf("\nResult files in %s:\n", dir)
		if len(files) == 0 {
			fmt.Println("  (none)")
		}
		for _, f := range files {
			fmt.Printf("  %-9s %s\n", f.Kind, f.Name)
		}
	}

	if !ok {
		return fmt.Errorf("setup incomplete: required files are missing")
	}
	fmt.Println("\nAll required files present.")
	return nil
}
