package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/internal/adapter/embedding"
	"reciperag/internal/adapter/retriever"
	"reciperag/internal/domain"
)

const jsonInstruction = "Return your output strictly in the following format:\n" +
	`{"ingredients": ["ingredient 1", "ingredient 2", ...], "steps": ["step 1", "step 2", ...]}` + "\n" +
	"Do not include any text outside this JSON object."

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	output  string
	err     error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

type fakeRetriever struct {
	calls []string
}

func (f *fakeRetriever) Retrieve(query string, k int) ([]domain.Match, error) {
	f.calls = append(f.calls, query)
	r := domain.Recipe{
		DishID:      "ref-" + query,
		DishName:    "Reference " + query,
		Ingredients: []string{"salt"},
		Steps:       []string{"cook"},
	}
	return []domain.Match{{Text: domain.FormatRecipe(r), DishID: r.DishID, DishName: r.DishName, Score: 0.9}}, nil
}

func TestRenderPrompt_ZeroShot(t *testing.T) {
	got, err := RenderPrompt(domain.ConditionZeroShot, PromptData{Dish: "Pepperoni Pizza"})
	require.NoError(t, err)

	want := "Give me a clear, step-by-step recipe for Pepperoni Pizza.\n" +
		"Include ingredients and cooking instructions.\n" + jsonInstruction
	assert.Equal(t, want, got)
}

func TestRenderPrompt_FewShotRAG(t *testing.T) {
	ref := "Dish Name: Pizza\nIngredients:\n- dough\nSteps:\n1. bake"
	got, err := RenderPrompt(domain.ConditionFewShotRAG, PromptData{Dish: "Pepperoni Pizza", Reference: ref})
	require.NoError(t, err)

	want := "Give me a clear, step-by-step recipe for Pepperoni Pizza.\n" +
		"Below is a similar recipe for reference.\n" +
		"Use it only as inspiration. Do not copy it verbatim.\n\n" +
		"REFERENCE RECIPE:\n" + ref + "\n\n" + jsonInstruction
	assert.Equal(t, want, got)
}

func TestRenderPrompt_UnknownCondition(t *testing.T) {
	_, err := RenderPrompt("one_shot", PromptData{Dish: "x"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestGenerate_ZeroShot(t *testing.T) {
	llm := &fakeLLM{output: `{"ingredients": ["a"], "steps": ["b"]}`}
	uc := NewGenerateUseCase(llm, nil, GenerateOptions{
		Version:     "pilot",
		Temperature: 0.5,
		MaxTokens:   800,
		Location:    time.FixedZone("CET", 3600),
	}, nil)
	uc.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }

	out, err := uc.Run(context.Background(), domain.ConditionZeroShot, []string{"Vegetarian Lasagne", "Chicken Burger"})
	require.NoError(t, err)

	assert.Equal(t, "pilot", out.Version)
	assert.Equal(t, domain.ConditionZeroShot, out.Condition)
	assert.Equal(t, "fake-llm", out.Model)
	assert.Equal(t, 0.5, out.Temperature)
	assert.Equal(t, 800, out.MaxTokens)
	assert.Equal(t, "2025-01-15T13:00:00+01:00", out.Timestamp)

	require.Len(t, out.Results, 2)
	assert.Equal(t, "Vegetarian Lasagne", out.Results[0].DishName)
	assert.Equal(t, "Chicken Burger", out.Results[1].DishName)
	assert.Empty(t, out.Results[0].RetrievedRecipeID)
	assert.Equal(t, llm.output, out.Results[0].Output)
	assert.Contains(t, out.Results[0].Prompt, "recipe for Vegetarian Lasagne.")
}

func TestGenerate_FewShotRAG_Concurrent(t *testing.T) {
	llm := &fakeLLM{output: "{}"}
	ret := &fakeRetriever{}
	var progress []int
	var mu sync.Mutex
	uc := NewGenerateUseCase(llm, ret, GenerateOptions{
		Concurrency: 3,
		Progress: func(done, total int) {
			mu.Lock()
			progress = append(progress, done)
			mu.Unlock()
			assert.Equal(t, 4, total)
		},
	}, nil)

	dishes := []string{"A", "B", "C", "D"}
	out, err := uc.Run(context.Background(), domain.ConditionFewShotRAG, dishes)
	require.NoError(t, err)

	require.Len(t, out.Results, 4)
	for i, d := range dishes {
		assert.Equal(t, d, out.Results[i].DishName)
		assert.Equal(t, "ref-"+d, out.Results[i].RetrievedRecipeID)
		assert.Equal(t, "Reference "+d, out.Results[i].RetrievedDishName)
		assert.Contains(t, out.Results[i].Prompt, "REFERENCE RECIPE:\nDish Name: Reference "+d)
	}
	assert.Len(t, ret.calls, 4)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, progress)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("rag without retriever", func(t *testing.T) {
		uc := NewGenerateUseCase(&fakeLLM{}, nil, GenerateOptions{}, nil)
		_, err := uc.Run(context.Background(), domain.ConditionFewShotRAG, []string{"A"})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "got %v", err)
	})

	t.Run("unknown condition", func(t *testing.T) {
		uc := NewGenerateUseCase(&fakeLLM{}, nil, GenerateOptions{}, nil)
		_, err := uc.Run(context.Background(), "both", []string{"A"})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "got %v", err)
	})

	t.Run("llm failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		uc := NewGenerateUseCase(&fakeLLM{err: boom}, nil, GenerateOptions{}, nil)
		_, err := uc.Run(context.Background(), domain.ConditionZeroShot, []string{"A"})
		assert.True(t, errors.Is(err, boom), "got %v", err)
	})
}

func TestGenerate_WithRecipeRetriever(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "recipes.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(`{"version": "pilot", "total_recipes": 2, "recipes": [
    {"dish_id": "1", "dish_name": "Tomato Soup", "ingredients": ["tomato", "salt"], "steps": ["boil", "blend"]},
    {"dish_id": "2", "dish_name": "Pepperoni Pizza", "ingredients": ["dough", "cheese", "pepperoni"], "steps": ["prep dough", "add toppings", "bake"]}
  ]}`), 0644))

	r, err := retriever.New(retriever.Options{CorpusPath: corpusPath}, embedding.NewHashEmbedder("", 1024), nil)
	require.NoError(t, err)

	llm := &fakeLLM{output: "{}"}
	uc := NewGenerateUseCase(llm, r, GenerateOptions{}, nil)

	prompt, ref, err := uc.Prompt(domain.ConditionFewShotRAG, "Pizza")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "2", ref.DishID)
	assert.True(t, strings.Contains(prompt, "REFERENCE RECIPE:\nDish Name: Pepperoni Pizza\nIngredients:\n- dough"))
}

func TestSaveLoadRunOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	out := &domain.RunOutput{
		Version:   "pilot",
		Condition: domain.ConditionFewShotRAG,
		Model:     "llama3.2:3b",
		Results: []domain.GenerationResult{{
			DishName:          "Pepperoni Pizza",
			Prompt:            "p",
			RetrievedRecipeID: "2",
			RetrievedDishName: "Pepperoni Pizza",
			Output:            `{"ingredients": [], "steps": []}`,
		}},
	}

	path, err := SaveRunOutput(out, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "few_shot_RAG.json"), path)

	loaded, err := LoadRunOutput(path)
	require.NoError(t, err)
	assert.Equal(t, out, loaded)
}
