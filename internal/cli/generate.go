package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reciperag/internal/usecase"
)

var generateCondition string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate recipes for the configured dishes under one condition",
	Long: `Generate one recipe per dish in generation.dishes and write the results to
<results_dir>/<condition>.json. No experiment metadata is recorded; use "run" for that.

Examples:
  reciperag generate --condition zero_shot
  reciperag generate --condition few_shot_RAG`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateCondition, "condition", "", "zero_shot or few_shot_RAG (required)")
	generateCmd.MarkFlagRequired("condition")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if !usecase.ValidCondition(generateCondition) {
		return fmt.Errorf("unknown condition %q (want zero_shot or few_shot_RAG)", generateCondition)
	}

	uc, model, err := newGenerateUseCase(cfg, []string{generateCondition})
	if err != nil {
		return err
	}

	fmt.Printf("Generating %d recipes (%s, model %s)...\n",
		len(cfg.Generation.Dishes), generateCondition, model.ModelName())

	start := time.Now()
	out, err := uc.Run(cmd.Context(), generateCondition, cfg.Generation.Dishes)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	path, err := usecase.SaveRunOutput(out, cfg.Experiment.ResultsDir)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	fmt.Printf("\nGeneration complete:\n")
	fmt.Printf("  Recipes:        %d\n", len(out.Results))
	fmt.Printf("  Took:           %s\n", formatDuration(time.Since(start)))
	printLLMStats(model)
	fmt.Printf("\nResults stored at: %s\n", path)
	return nil
}
