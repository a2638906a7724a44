package usecase

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/internal/domain"
)

func TestNewExperimentMetadata(t *testing.T) {
	opts := MetadataOptions{
		Model:          "llama3.2:3b",
		Temperature:    0.5,
		MaxTokens:      800,
		RetrievalModel: "feature-hash-v1",
		K:              1,
		Timezone:       "UTC",
	}

	zero := NewExperimentMetadata(domain.ConditionZeroShot, opts)
	assert.Equal(t, "Zero-Shot Recipe Generation", zero.ExperimentName)
	assert.Nil(t, zero.RetrievalModel)
	assert.Nil(t, zero.KRetrieval)
	assert.Len(t, zero.RunID, 36)

	rag := NewExperimentMetadata(domain.ConditionFewShotRAG, opts)
	assert.Equal(t, "Few-Shot RAG Recipe Generation", rag.ExperimentName)
	require.NotNil(t, rag.RetrievalModel)
	assert.Equal(t, "feature-hash-v1", *rag.RetrievalModel)
	assert.Equal(t, 1, *rag.KRetrieval)
	assert.NotEqual(t, zero.RunID, rag.RunID)
}

func TestExperimentTimer(t *testing.T) {
	meta := NewExperimentMetadata(domain.ConditionZeroShot, MetadataOptions{Timezone: "UTC"})
	timer := NewExperimentTimer(meta, nil)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := start
	timer.now = func() time.Time { return clock }

	timer.Start()
	clock = start.Add(90 * time.Second)
	elapsed := timer.Stop(3)

	assert.Equal(t, 90*time.Second, elapsed)
	assert.Equal(t, "2025-03-01T10:00:00Z", meta.StartTime)
	assert.Equal(t, "2025-03-01T10:01:30Z", meta.EndTime)
	require.NotNil(t, meta.TotalDurationSeconds)
	assert.Equal(t, 90.0, *meta.TotalDurationSeconds)
	assert.Equal(t, 3, meta.NumSamples)
}

func TestSaveLoadExperimentMetadata(t *testing.T) {
	dir := t.TempDir()
	meta := NewExperimentMetadata(domain.ConditionFewShotRAG, MetadataOptions{Model: "m", K: 1, Timezone: "UTC"})

	path, err := saveExperimentMetadata(meta, dir, time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata_few_shot_RAG_20250301_090507.json"), path)

	loaded, err := LoadExperimentMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)
}

func TestRunner_Run(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	llm := &fakeLLM{output: `{"ingredients": ["a", "b"], "steps": ["c"]}`}
	gen := NewGenerateUseCase(llm, &fakeRetriever{}, GenerateOptions{Version: "pilot"}, nil)
	runner := NewRunner(gen, RunnerOptions{
		ResultsDir: dir,
		Dishes:     []string{"Vegetarian Lasagne", "Pepperoni Pizza", "Chicken Burger"},
		Metadata:   MetadataOptions{Model: llm.ModelName(), K: 1, RetrievalModel: "feature-hash-v1", Timezone: "UTC"},
	}, nil)

	for _, c := range Conditions {
		res, err := runner.Run(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, ResultsPath(dir, c), res.OutputPath)
		assert.FileExists(t, res.MetadataPath)
		assert.Regexp(t, regexp.MustCompile(`metadata_`+c+`_\d{8}_\d{6}\.json$`), res.MetadataPath)
		assert.Equal(t, 3, res.Metadata.NumSamples)
		assert.NotNil(t, res.Metadata.TotalDurationSeconds)
	}

	comparison, path, err := runner.Compare()
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 0.0, comparison.Comparison.IngredientDelta)
	assert.Equal(t, 3, comparison.ZeroShot.ValidRecipes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}
