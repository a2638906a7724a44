package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reciperag/internal/domain"
	"reciperag/internal/usecase"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare structural metrics of the two conditions",
	Long: `Parse every generated recipe in zero_shot.json and few_shot_RAG.json, count
ingredients and steps, and write metrics_comparison.json to the results directory.`,
	Args: cobra.NoArgs,
	RunE: runCompareCmd,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	comparison, path, err := usecase.CompareResults(cfg.Experiment.ResultsDir)
	if err != nil {
		return err
	}
	printComparison(comparison)
	fmt.Printf("\nComparison stored at: %s\n", path)
	return nil
}

func printComparison(c *domain.Comparison) {
	fmt.Println("METRICS COMPARISON")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%-22s %16s %16s\n", "", domain.ConditionZeroShot, domain.ConditionFewShotRAG)
	fmt.Printf("%-22s %16d %16d\n", "Total recipes", c.ZeroShot.TotalRecipes, c.FewShotRAG.TotalRecipes)
	fmt.Printf("%-22s %16d %16d\n", "Valid recipes", c.ZeroShot.ValidRecipes, c.FewShotRAG.ValidRecipes)
	fmt.Printf("%-22s %16d %16d\n", "Parsing errors", c.ZeroShot.ParsingErrors, c.FewShotRAG.ParsingErrors)
	fmt.Printf("%-22s %16.2f %16.2f\n", "Avg ingredients", c.ZeroShot.AvgIngredients, c.FewShotRAG.AvgIngredients)
	fmt.Printf("%-22s %16.2f %16.2f\n", "Avg steps", c.ZeroShot.AvgSteps, c.FewShotRAG.AvgSteps)
	fmt.Printf("%-22s %16s %16s\n", "Ingredients min-max",
		rangeString(c.ZeroShot.MinIngredients, c.ZeroShot.MaxIngredients),
		rangeString(c.FewShotRAG.MinIngredients, c.FewShotRAG.MaxIngredients))
	fmt.Printf("%-22s %16s %16s\n", "Steps min-max",
		rangeString(c.ZeroShot.MinSteps, c.ZeroShot.MaxSteps),
		rangeString(c.FewShotRAG.MinSteps, c.FewShotRAG.MaxSteps))
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Ingredient delta (RAG - zero-shot): %+.2f\n", c.Comparison.IngredientDelta)
	fmt.Printf("Step delta (RAG - zero-shot):       %+.2f\n", c.Comparison.StepDelta)
	fmt.Printf("Error difference:                   %+d\n", c.Comparison.ErrorDifference)
}

func rangeString(lo, hi *int) string {
	if lo == nil || hi == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d-%d", *lo, *hi)
}
