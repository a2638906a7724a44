package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reciperag/internal/usecase"
)

var (
	runCondition string
	runCompare   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run experiment conditions with timing and metadata",
	Long: `Run one or both experiment conditions. Each run writes its results file and a
metadata_<condition>_<timestamp>.json record with run id, model and timing.
Running both conditions also writes the metrics comparison.

Examples:
  reciperag run --condition zero_shot
  reciperag run --condition few_shot_RAG --compare
  reciperag run --condition both`,
	RunE: runExperiment,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runCondition, "condition", "both", "zero_shot, few_shot_RAG or both")
	runCmd.Flags().BoolVar(&runCompare, "compare", false, "write the metrics comparison after the run")
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	conditions, err := resolveConditions(runCondition)
	if err != nil {
		return err
	}
	compare := runCompare || len(conditions) > 1

	uc, model, err := newGenerateUseCase(cfg, conditions)
	if err != nil {
		return err
	}

	runner := usecase.NewRunner(uc, usecase.RunnerOptions{
		ResultsDir: cfg.Experiment.ResultsDir,
		Dishes:     cfg.Generation.Dishes,
		Metadata: usecase.MetadataOptions{
			Model:          model.ModelName(),
			Temperature:    cfg.Generation.Temperature,
			MaxTokens:      cfg.Generation.MaxTokens,
			RetrievalModel: cfg.Embedding.Model,
			K:              1,
			Timezone:       cfg.Location().String(),
		},
	}, logger)

	for _, c := range conditions {
		fmt.Printf("\n=== %s ===\n", c)
		res, err := runner.Run(cmd.Context(), c)
		if err != nil {
			return fmt.Errorf("%s run failed: %w", c, err)
		}
		fmt.Printf("  Run ID:         %s\n", res.Metadata.RunID)
		fmt.Printf("  Recipes:        %d\n", res.Metadata.NumSamples)
		if d := res.Metadata.TotalDurationSeconds; d != nil {
			fmt.Printf("  Duration:       %.1fs\n", *d)
		}
		fmt.Printf("  Results:        %s\n", res.OutputPath)
		fmt.Printf("  Metadata:       %s\n", res.MetadataPath)
	}
	printLLMStats(model)

	if !compare {
		return nil
	}

	fmt.Println()
	comparison, path, err := runner.Compare()
	if errors.Is(err, usecase.ErrResultsMissing) {
		fmt.Printf("Skipping comparison: %v\n", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	printComparison(comparison)
	fmt.Printf("\nComparison stored at: %s\n", path)
	return nil
}
