package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"reciperag/config"
	"reciperag/internal/adapter/cache"
	"reciperag/internal/adapter/embedding"
	"reciperag/internal/adapter/llm"
	"reciperag/internal/adapter/retriever"
	"reciperag/internal/adapter/store"
	"reciperag/internal/domain"
	"reciperag/internal/port"
	"reciperag/internal/usecase"
)

// newEmbedder builds the configured embedder, memoising query embeddings
// when a query cache size is set.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Retrieval.QueryCacheSize > 0 {
		qc := cache.NewQueryCache(cfg.Retrieval.QueryCacheSize, cfg.Retrieval.QueryCacheTTL)
		embedder = cache.NewCachedEmbedder(embedder, qc)
	}
	return embedder, nil
}

// openRetriever loads the corpus and its embeddings, showing a progress bar
// while embedding on a cache miss.
func openRetriever(cfg *config.Config) (*retriever.RecipeRetriever, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	progress := newProgress("[cyan]Embedding[reset]")
	r, err := retriever.New(retriever.Options{
		CorpusPath:         cfg.Retrieval.CorpusPath,
		ModelIdentifier:    cfg.Embedding.Model,
		EmbeddingDimension: cfg.Embedding.Dimension,
		Progress:           progress,
		Logger:             logger,
	}, embedder, store.NewBoltEmbeddingCache(cfg.Retrieval.CachePath, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load retriever: %w", err)
	}
	return r, nil
}

// newProgress returns a callback that lazily creates a progress bar once the
// total is known, and shows an ETA while it advances. It is safe to call
// from concurrent workers.
func newProgress(description string) func(done, total int) {
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	return func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(description),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("%s ETA: %s", description, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// newGenerateUseCase wires the configured LLM and, when the RAG condition is
// among conditions, the retriever.
func newGenerateUseCase(cfg *config.Config, conditions []string) (*usecase.GenerateUseCase, port.LLM, error) {
	model, err := llm.New(cfg.Generation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var r port.Retriever
	for _, c := range conditions {
		if c == domain.ConditionFewShotRAG {
			rr, err := openRetriever(cfg)
			if err != nil {
				return nil, nil, err
			}
			r = rr
			break
		}
	}

	uc := usecase.NewGenerateUseCase(model, r, usecase.GenerateOptions{
		Version:     cfg.Experiment.Version,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Concurrency: cfg.Generation.Concurrency,
		Location:    cfg.Location(),
		Progress:    newProgress("[cyan]Generating[reset]"),
	}, logger)
	return uc, model, nil
}

// resolveConditions expands "both" into every condition.
func resolveConditions(condition string) ([]string, error) {
	if condition == "both" {
		return usecase.Conditions, nil
	}
	if !usecase.ValidCondition(condition) {
		return nil, fmt.Errorf("unknown condition %q (want zero_shot, few_shot_RAG or both)", condition)
	}
	return []string{condition}, nil
}

// printLLMStats reports call counts when the client tracks them.
func printLLMStats(model port.LLM) {
	s, ok := model.(interface{ Stats() llm.Stats })
	if !ok {
		return
	}
	stats := s.Stats()
	fmt.Printf("  LLM calls:      %d (%d chars in, %d chars out)\n",
		stats.TotalCalls, stats.TotalInputChars, stats.TotalOutputChars)
}
