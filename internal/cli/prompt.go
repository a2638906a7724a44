package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reciperag/internal/domain"
	"reciperag/internal/usecase"
)

var (
	promptQuery     string
	promptCondition string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generation prompt for a dish",
	Long: `Render the prompt that would be sent to the model for a dish. The few-shot RAG
condition retrieves the closest corpus recipe and embeds it as the reference.

Examples:
  reciperag prompt -q "Vegetarian Lasagne"
  reciperag prompt -q "Vegetarian Lasagne" --condition few_shot_RAG`,
	RunE: runPromptCmd,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "dish name (required)")
	promptCmd.Flags().StringVar(&promptCondition, "condition", domain.ConditionZeroShot, "zero_shot or few_shot_RAG")
	promptCmd.MarkFlagRequired("query")
}

func runPromptCmd(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if !usecase.ValidCondition(promptCondition) {
		return fmt.Errorf("unknown condition %q (want zero_shot or few_shot_RAG)", promptCondition)
	}

	var uc *usecase.GenerateUseCase
	if promptCondition == domain.ConditionFewShotRAG {
		r, err := openRetriever(cfg)
		if err != nil {
			return err
		}
		uc = usecase.NewGenerateUseCase(nil, r, usecase.GenerateOptions{}, logger)
	} else {
		uc = usecase.NewGenerateUseCase(nil, nil, usecase.GenerateOptions{}, logger)
	}

	prompt, match, err := uc.Prompt(promptCondition, promptQuery)
	if err != nil {
		return err
	}
	if match != nil {
		logger.Info("reference recipe", "dish_id", match.DishID, "dish_name", match.DishName, "score", match.Score)
	}
	fmt.Println(prompt)
	return nil
}
