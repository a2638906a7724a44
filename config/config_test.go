package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieval.CorpusPath != filepath.Join("data", "recipes.json") {
		t.Errorf("unexpected CorpusPath %q", cfg.Retrieval.CorpusPath)
	}
	if cfg.Retrieval.TopK != 1 {
		t.Errorf("expected TopK=1, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Embedding.Provider != "hash" {
		t.Errorf("expected hash embedder by default, got %s", cfg.Embedding.Provider)
	}
	if cfg.Generation.Temperature != 0.5 {
		t.Errorf("expected Temperature=0.5, got %f", cfg.Generation.Temperature)
	}
	if cfg.Generation.MaxTokens != 800 {
		t.Errorf("expected MaxTokens=800, got %d", cfg.Generation.MaxTokens)
	}
	if len(cfg.Generation.Dishes) != 3 {
		t.Errorf("expected 3 default dishes, got %v", cfg.Generation.Dishes)
	}
	if cfg.Curation.Seed != 42 {
		t.Errorf("expected Seed=42, got %d", cfg.Curation.Seed)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "reciperag.yaml")

	content := `
retrieval:
  top_k: 3
  query_cache_ttl: 30s
embedding:
  provider: ollama
  model: nomic-embed-text
  dimension: 768
generation:
  timeout: 2m
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.QueryCacheTTL != 30*time.Second {
		t.Errorf("expected QueryCacheTTL=30s, got %s", cfg.Retrieval.QueryCacheTTL)
	}
	if cfg.Embedding.Dimension != 768 {
		t.Errorf("expected Dimension=768, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Generation.Timeout != 2*time.Minute {
		t.Errorf("expected Timeout=2m, got %s", cfg.Generation.Timeout)
	}
	// Unset keys keep their defaults.
	if cfg.Generation.MaxTokens != 800 {
		t.Errorf("expected MaxTokens=800, got %d", cfg.Generation.MaxTokens)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "reciperag.yaml")
	if err := os.WriteFile(configPath, []byte("retrieval: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".reciperag"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".reciperag", "config.yaml")

	content := `
experiment:
  results_dir: out
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Experiment.ResultsDir != filepath.Join(tmpDir, "out") {
		t.Errorf("expected results dir under %s, got %s", tmpDir, cfg.Experiment.ResultsDir)
	}
	if cfg.Retrieval.CorpusPath != filepath.Join(tmpDir, "data", "recipes.json") {
		t.Errorf("expected corpus path under %s, got %s", tmpDir, cfg.Retrieval.CorpusPath)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reciperag.yaml")
	cfg := DefaultConfig()
	cfg.Generation.Model = "deepseek-chat"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Generation.Model != "deepseek-chat" {
		t.Errorf("expected model deepseek-chat, got %s", loaded.Generation.Model)
	}
	if loaded.Retrieval.QueryCacheTTL != 10*time.Minute {
		t.Errorf("expected TTL to survive save, got %s", loaded.Retrieval.QueryCacheTTL)
	}
}

func TestLocation_Fallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Experiment.Timezone = "Not/AZone"
	if cfg.Location() != time.UTC {
		t.Errorf("expected UTC fallback, got %v", cfg.Location())
	}
}
