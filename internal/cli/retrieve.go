package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	retrieveQuery string
	retrieveTopK  int
	retrieveJSON  bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Find the corpus recipes most similar to a dish",
	Long: `Embed a dish name and return the top-k most similar recipes from the corpus,
formatted the way they appear in the RAG prompt.

Examples:
  reciperag retrieve -q "Pepperoni Pizza"
  reciperag retrieve -q "Chicken Burger" -k 3 --json`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "dish name to search for (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of results (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	r, err := openRetriever(cfg)
	if err != nil {
		return err
	}

	topK := cfg.Retrieval.TopK
	if retrieveTopK > 0 {
		topK = retrieveTopK
	}

	matches, err := r.Retrieve(retrieveQuery, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	fmt.Printf("Query: %q (top %d of %d recipes)\n", retrieveQuery, len(matches), r.Corpus().Len())
	fmt.Println(strings.Repeat("-", 60))
	for i, m := range matches {
		fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, m.Score, m.DishName, m.DishID)
		for _, line := range strings.Split(m.Text, "\n") {
			fmt.Printf("   %s\n", line)
		}
		fmt.Println()
	}
	return nil
}
