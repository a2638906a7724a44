package embedding

import (
	"fmt"

	"reciperag/config"
	"reciperag/internal/port"
)

// New builds the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	var (
		remote *OpenAIEmbedder
		err    error
	)

	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(cfg.Model, cfg.Dimension).WithBatchSize(cfg.BatchSize), nil
	case "openai":
		remote, err = NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "deepseek":
		remote, err = NewDeepSeekEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "jina":
		remote, err = NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "ollama":
		remote = NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return remote.WithBaseURL(cfg.BaseURL).WithDimension(cfg.Dimension).WithBatchSize(cfg.BatchSize), nil
}
