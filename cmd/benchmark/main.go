package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"reciperag/config"
	"reciperag/internal/adapter/embedding"
	"reciperag/internal/adapter/retriever"
	"reciperag/internal/adapter/store"
	"reciperag/internal/domain"
)

func main() {
	dir := flag.String("dir", ".", "Experiment directory (holds reciperag.yaml)")
	topK := flag.Int("k", 5, "Number of results per query")
	limit := flag.Int("n", 0, "Only query the first n recipes (0 = all)")
	verbose := flag.Bool("v", false, "Print every miss")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	r, err := retriever.New(retriever.Options{
		CorpusPath:         cfg.Retrieval.CorpusPath,
		ModelIdentifier:    cfg.Embedding.Model,
		EmbeddingDimension: cfg.Embedding.Dimension,
	}, embedder, store.NewBoltEmbeddingCache(cfg.Retrieval.CachePath, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retriever init failed: %v\n", err)
		os.Exit(1)
	}
	loadTime := time.Since(start)

	recipes := r.Corpus().Recipes
	if len(recipes) == 0 {
		fmt.Fprintln(os.Stderr, "Corpus is empty - run 'reciperag curate' first")
		os.Exit(1)
	}
	if *limit > 0 && *limit < len(recipes) {
		recipes = recipes[:*limit]
	}

	fmt.Println("SELF-RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Corpus:    %s (%d recipes)\n", cfg.Retrieval.CorpusPath, r.Corpus().Len())
	fmt.Printf("Model:     %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Printf("Cache:     %s (hit=%v, load %s)\n", cfg.Retrieval.CachePath, r.CacheHit(), loadTime.Round(time.Millisecond))
	fmt.Printf("Queries:   %d (k=%d)\n", len(recipes), *topK)
	fmt.Println(strings.Repeat("-", 70))

	// Recipes sharing a dish name are all correct answers for precision.
	byName := make(map[string][]string)
	for _, rec := range r.Corpus().Recipes {
		key := strings.ToLower(rec.DishName)
		byName[key] = append(byName[key], rec.DishID)
	}

	var hits1, hitsK int
	var mrr, precision, top1Score float64
	queryStart := time.Now()
	for _, rec := range recipes {
		results, err := r.Search(rec.DishName, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error for %q: %v\n", rec.DishName, err)
			os.Exit(1)
		}

		ids := resultIDs(results)
		if len(ids) > 0 && ids[0] == rec.DishID {
			hits1++
		}
		if retriever.HitAtK(ids, rec.DishID) {
			hitsK++
		} else if *verbose {
			fmt.Printf("MISS %-40s top: %s\n", truncate(rec.DishName, 40), topName(results))
		}
		mrr += retriever.ReciprocalRank(ids, rec.DishID)
		precision += retriever.PrecisionAtK(ids, byName[strings.ToLower(rec.DishName)])
		if len(results) > 0 {
			top1Score += results[0].Score
		}
	}
	queryTime := time.Since(queryStart)

	n := float64(len(recipes))
	hitRate := float64(hitsK) / n
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Hit@1:              %.3f\n", float64(hits1)/n)
	fmt.Printf("  Hit@%-2d              %.3f [%s]\n", *topK, hitRate, rating(hitRate))
	fmt.Printf("  MRR:                %.3f\n", mrr/n)
	fmt.Printf("  Precision@%-2d        %.3f\n", *topK, precision/n)
	fmt.Printf("  Avg top-1 score:    %.3f\n", top1Score/n)
	fmt.Printf("  Avg query time:     %s\n", (queryTime / time.Duration(len(recipes))).Round(time.Microsecond))

	if hitRate > 0.7 {
		fmt.Println("  Status: GOOD - recipes find themselves by name")
	} else if hitRate > 0.3 {
		fmt.Println("  Status: OK - names are only partly discriminative")
	} else {
		fmt.Println("  Status: POOR - may need a better embedding model")
	}
}

func resultIDs(results []domain.ScoredRecipe) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Recipe.DishID
	}
	return ids
}

func topName(results []domain.ScoredRecipe) string {
	if len(results) == 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%.3f)", results[0].Recipe.DishName, results[0].Score)
}

func rating(v float64) string {
	switch {
	case v > 0.7:
		return "HIGH"
	case v > 0.5:
		return "GOOD"
	case v > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
