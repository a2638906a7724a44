package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"reciperag/internal/adapter/corpus"
	"reciperag/internal/adapter/dataset"
)

var (
	curateInput  string
	curateOutput string
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Build the recipe corpus from a Recipes1M CSV export",
	Long: `Read a Recipes1M CSV export, keep well-formed recipes from the configured
source, sample them evenly across title categories and write the corpus JSON.
Sampling is seeded (curation.seed), so the same input always yields the same corpus.

Examples:
  reciperag curate --input data/recipes_raw.csv
  reciperag curate --input raw.csv --output data/recipes.json`,
	RunE: runCurate,
}

func init() {
	rootCmd.AddCommand(curateCmd)
	curateCmd.Flags().StringVar(&curateInput, "input", "", "Recipes1M CSV file (required)")
	curateCmd.Flags().StringVar(&curateOutput, "output", "", "corpus JSON to write (default retrieval.corpus_path)")
	curateCmd.MarkFlagRequired("input")
}

func runCurate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	output := curateOutput
	if output == "" {
		output = cfg.Retrieval.CorpusPath
	}

	f, err := os.Open(curateInput)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	fmt.Printf("Curating %d recipes from %s (source %s, seed %d)...\n",
		cfg.Curation.Total, curateInput, cfg.Curation.Source, cfg.Curation.Seed)

	file, report, err := dataset.Curate(f, dataset.Options{
		Total:          cfg.Curation.Total,
		Seed:           cfg.Curation.Seed,
		Source:         cfg.Curation.Source,
		Version:        cfg.Experiment.Version,
		MinIngredients: cfg.Curation.MinIngredients,
		MaxIngredients: cfg.Curation.MaxIngredients,
		MinSteps:       cfg.Curation.MinSteps,
		MaxSteps:       cfg.Curation.MaxSteps,
	})
	if err != nil {
		return fmt.Errorf("curation failed: %w", err)
	}

	if err := corpus.Write(output, file); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}

	fmt.Printf("\nCuration complete:\n")
	fmt.Printf("  Rows read:      %d\n", report.Rows)
	fmt.Printf("  From source:    %d\n", report.FromSource)
	fmt.Printf("  Quality rows:   %d\n", report.Quality)
	fmt.Printf("  Sampled:        %d\n", file.TotalRecipes)

	names := make([]string, 0, len(report.Available))
	for name := range report.Available {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("\n  %-12s %10s %10s\n", "category", "available", "sampled")
	for _, name := range names {
		fmt.Printf("  %-12s %10d %10d\n", name, report.Available[name], report.Sampled[name])
	}
	if file.TotalRecipes < cfg.Curation.Total {
		fmt.Printf("\nWarning: only %d of %d requested recipes were available\n", file.TotalRecipes, cfg.Curation.Total)
	}

	fmt.Printf("\nCorpus stored at: %s\n", output)
	fmt.Println("Run 'reciperag index' to rebuild the embedding cache.")
	return nil
}
