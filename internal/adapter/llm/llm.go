// Package llm provides text-generation clients for local Ollama servers and
// OpenAI-compatible chat APIs.
package llm

import (
	"fmt"
	"sync"
	"time"

	"reciperag/config"
	"reciperag/internal/port"
)

// Options are the sampling settings shared by every call of a client.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Stats tracks LLM usage.
type Stats struct {
	TotalCalls       int
	TotalInputChars  int
	TotalOutputChars int
}

type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) record(input, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.TotalCalls++
	r.stats.TotalInputChars += len(input)
	r.stats.TotalOutputChars += len(output)
}

func (r *statsRecorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// New builds the client selected by cfg.Provider.
func New(cfg config.GenerationConfig) (port.LLM, error) {
	opts := Options{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.Model, cfg.BaseURL, opts), nil
	case "openai", "deepseek":
		return NewChatClient(cfg.Provider, cfg.Model, cfg.BaseURL, cfg.APIKeyEnv, opts)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}
