package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the recipe generation experiment.
type Config struct {
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Curation   CurationConfig   `yaml:"curation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RetrievalConfig holds corpus and embedding cache locations.
type RetrievalConfig struct {
	CorpusPath     string        `yaml:"corpus_path"`
	CachePath      string        `yaml:"cache_path"`
	TopK           int           `yaml:"top_k"`
	QueryCacheSize int           `yaml:"query_cache_size"` // 0 disables query embedding memoisation
	QueryCacheTTL  time.Duration `yaml:"query_cache_ttl"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "hash", "openai", "jina", "deepseek", "ollama"
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"` // 0 uses the model's native size (1024 for hash)
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	BatchSize int    `yaml:"batch_size"`
}

// GenerationConfig holds LLM settings for recipe generation.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "ollama", "openai", "deepseek"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`    // empty selects the provider default
	APIKeyEnv   string        `yaml:"api_key_env"` // empty selects the provider default
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Dishes      []string      `yaml:"dishes"`
}

// ExperimentConfig holds result locations and run labelling.
type ExperimentConfig struct {
	ResultsDir string `yaml:"results_dir"`
	Timezone   string `yaml:"timezone"`
	Version    string `yaml:"version"`
}

// CurationConfig controls corpus sampling from the Recipes1M CSV.
type CurationConfig struct {
	Total          int    `yaml:"total"`
	Seed           int64  `yaml:"seed"`
	Source         string `yaml:"source"`
	MinIngredients int    `yaml:"min_ingredients"`
	MaxIngredients int    `yaml:"max_ingredients"`
	MinSteps       int    `yaml:"min_steps"`
	MaxSteps       int    `yaml:"max_steps"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			CorpusPath:     filepath.Join("data", "recipes.json"),
			CachePath:      filepath.Join("data", "embeddings_cache.db"),
			TopK:           1,
			QueryCacheSize: 256,
			QueryCacheTTL:  10 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "feature-hash-v1",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 64,
		},
		Generation: GenerationConfig{
			Provider:    "ollama",
			Model:       "llama3.2:3b",
			Temperature: 0.5,
			MaxTokens:   800,
			Timeout:     120 * time.Second,
			Concurrency: 1,
			Dishes:      []string{"Vegetarian Lasagne", "Pepperoni Pizza", "Chicken Burger"},
		},
		Experiment: ExperimentConfig{
			ResultsDir: "results",
			Timezone:   "Europe/Berlin",
			Version:    "pilot",
		},
		Curation: CurationConfig{
			Total:          1000,
			Seed:           42,
			Source:         "Recipes1M",
			MinIngredients: 4,
			MaxIngredients: 20,
			MinSteps:       3,
			MaxSteps:       15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for reciperag.yaml).
// Relative paths in the result are resolved against dir.
func LoadFromDir(dir string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range []string{
		filepath.Join(dir, "reciperag.yaml"),
		filepath.Join(dir, ".reciperag", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
			break
		}
	}

	cfg.ResolvePaths(dir)
	return cfg, nil
}

// ResolvePaths makes the corpus, cache and results paths absolute relative to dir.
func (c *Config) ResolvePaths(dir string) {
	c.Retrieval.CorpusPath = resolve(dir, c.Retrieval.CorpusPath)
	c.Retrieval.CachePath = resolve(dir, c.Retrieval.CachePath)
	c.Experiment.ResultsDir = resolve(dir, c.Experiment.ResultsDir)
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Location returns the experiment timezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Experiment.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
