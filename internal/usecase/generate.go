package usecase

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"reciperag/internal/adapter/retriever"
	"reciperag/internal/domain"
	"reciperag/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

// Conditions lists the experiment conditions in run order.
var Conditions = []string{domain.ConditionZeroShot, domain.ConditionFewShotRAG}

// ValidCondition reports whether c names an experiment condition.
func ValidCondition(c string) bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// PromptData fills a prompt template.
type PromptData struct {
	Dish      string
	Reference string
}

// RenderPrompt renders the prompt template for a condition.
func RenderPrompt(condition string, data PromptData) (string, error) {
	if !ValidCondition(condition) {
		return "", fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidArgument, condition)
	}

	content, err := promptTemplates.ReadFile("templates/" + condition + ".txt")
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New(condition).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// GenerateOptions configures a GenerateUseCase.
type GenerateOptions struct {
	Version     string
	Temperature float64
	MaxTokens   int
	Concurrency int
	Location    *time.Location
	// Progress is called after each dish completes.
	Progress func(done, total int)
}

// GenerateUseCase produces recipes for a list of dishes under one condition.
type GenerateUseCase struct {
	llm       port.LLM
	retriever port.Retriever
	opts      GenerateOptions
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerateUseCase creates a generate use case. retriever may be nil when
// only the zero-shot condition is run.
func NewGenerateUseCase(llm port.LLM, r port.Retriever, opts GenerateOptions, logger *slog.Logger) *GenerateUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if r != nil && opts.Concurrency > 1 {
		r = retriever.NewSyncRetriever(r)
	}
	return &GenerateUseCase{
		llm:       llm,
		retriever: r,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Prompt builds the prompt for one dish. For the RAG condition it also
// returns the retrieved reference recipe.
func (u *GenerateUseCase) Prompt(condition, dish string) (string, *domain.Match, error) {
	switch condition {
	case domain.ConditionZeroShot:
		prompt, err := RenderPrompt(condition, PromptData{Dish: dish})
		return prompt, nil, err

	case domain.ConditionFewShotRAG:
		if u.retriever == nil {
			return "", nil, fmt.Errorf("%w: %s requires a retriever", domain.ErrInvalidArgument, condition)
		}
		matches, err := u.retriever.Retrieve(dish, 1)
		if err != nil {
			return "", nil, fmt.Errorf("retrieve reference for %q: %w", dish, err)
		}
		if len(matches) == 0 {
			return "", nil, fmt.Errorf("no reference recipe found for %q", dish)
		}
		ref := matches[0]
		prompt, err := RenderPrompt(condition, PromptData{Dish: dish, Reference: ref.Text})
		return prompt, &ref, err

	default:
		return "", nil, fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidArgument, condition)
	}
}

// Run generates one recipe per dish. Results keep the order of dishes even
// when generation runs concurrently.
func (u *GenerateUseCase) Run(ctx context.Context, condition string, dishes []string) (*domain.RunOutput, error) {
	if !ValidCondition(condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidArgument, condition)
	}

	out := &domain.RunOutput{
		Version:     u.opts.Version,
		Condition:   condition,
		Model:       u.llm.ModelName(),
		Temperature: u.opts.Temperature,
		MaxTokens:   u.opts.MaxTokens,
		Timestamp:   u.now().In(u.opts.Location).Format(time.RFC3339),
		Results:     make([]domain.GenerationResult, len(dishes)),
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Concurrency)

	for i, dish := range dishes {
		g.Go(func() error {
			u.logger.Info("generating recipe", "condition", condition, "dish", dish)

			prompt, ref, err := u.Prompt(condition, dish)
			if err != nil {
				return err
			}

			output, err := u.llm.Generate(gctx, prompt)
			if err != nil {
				return fmt.Errorf("generate %q: %w", dish, err)
			}

			result := domain.GenerationResult{
				DishName: dish,
				Prompt:   prompt,
				Output:   output,
			}
			if ref != nil {
				result.RetrievedRecipeID = ref.DishID
				result.RetrievedDishName = ref.DishName
			}
			out.Results[i] = result

			if u.opts.Progress != nil {
				u.opts.Progress(int(done.Add(1)), len(dishes))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ResultsPath is where a condition's results file lives.
func ResultsPath(dir, condition string) string {
	return filepath.Join(dir, condition+".json")
}

// SaveRunOutput writes out to <dir>/<condition>.json.
func SaveRunOutput(out *domain.RunOutput, dir string) (string, error) {
	path := ResultsPath(dir, out.Condition)
	if err := writeJSON(path, out); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
