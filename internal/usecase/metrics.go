package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"reciperag/internal/domain"
)

// MetricsReportName is the comparison report written to the results dir.
const MetricsReportName = "metrics_comparison.json"

// LoadRunOutput reads a results file written by SaveRunOutput.
func LoadRunOutput(path string) (*domain.RunOutput, error) {
	var out domain.RunOutput
	if err := readJSON(path, &out); err != nil {
		return nil, err
	}
	if out.Condition == "" {
		out.Condition = "unknown"
	}
	return &out, nil
}

// recipeOutput is the JSON shape the prompts ask the model to return.
type recipeOutput struct {
	Ingredients []json.RawMessage `json:"ingredients"`
	Steps       []json.RawMessage `json:"steps"`
}

// CalculateRecipeMetrics counts ingredients and steps in every generated
// output. Outputs that are not a JSON object are flagged, not dropped.
func CalculateRecipeMetrics(out *domain.RunOutput) []domain.RecipeMetrics {
	metrics := make([]domain.RecipeMetrics, 0, len(out.Results))
	for _, r := range out.Results {
		m := domain.RecipeMetrics{DishName: r.DishName}
		if m.DishName == "" {
			m.DishName = "unknown"
		}

		parsed, err := parseRecipeOutput(r.Output)
		if err != nil {
			m.HasJSONError = true
			m.ErrorMessage = err.Error()
		} else {
			m.NumIngredients = len(parsed.Ingredients)
			m.NumSteps = len(parsed.Steps)
		}
		metrics = append(metrics, m)
	}
	return metrics
}

func parseRecipeOutput(output string) (*recipeOutput, error) {
	text := stripCodeFence(output)

	var probe any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, err
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, errors.New("output is not a JSON object")
	}

	var parsed recipeOutput
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("ingredients and steps must be lists: %w", err)
	}
	return &parsed, nil
}

// stripCodeFence removes a surrounding markdown code fence such as ```json.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Summarize aggregates metrics for a condition. Averages are rounded to two
// decimals; min/max are only reported when some output parsed.
func Summarize(condition string, metrics []domain.RecipeMetrics) domain.SummaryStats {
	stats := domain.SummaryStats{
		Condition:    condition,
		TotalRecipes: len(metrics),
	}

	var valid []domain.RecipeMetrics
	for _, m := range metrics {
		if m.HasJSONError {
			stats.ParsingErrors++
			continue
		}
		valid = append(valid, m)
	}
	stats.ValidRecipes = len(valid)
	if len(valid) == 0 {
		return stats
	}

	minIng, maxIng := valid[0].NumIngredients, valid[0].NumIngredients
	minSteps, maxSteps := valid[0].NumSteps, valid[0].NumSteps
	var sumIng, sumSteps int
	for _, m := range valid {
		sumIng += m.NumIngredients
		sumSteps += m.NumSteps
		minIng = min(minIng, m.NumIngredients)
		maxIng = max(maxIng, m.NumIngredients)
		minSteps = min(minSteps, m.NumSteps)
		maxSteps = max(maxSteps, m.NumSteps)
	}

	stats.AvgIngredients = round2(float64(sumIng) / float64(len(valid)))
	stats.AvgSteps = round2(float64(sumSteps) / float64(len(valid)))
	stats.MinIngredients = &minIng
	stats.MaxIngredients = &maxIng
	stats.MinSteps = &minSteps
	stats.MaxSteps = &maxSteps
	return stats
}

// SummarizeFile loads a results file and summarises it.
func SummarizeFile(path string) (domain.SummaryStats, error) {
	out, err := LoadRunOutput(path)
	if err != nil {
		return domain.SummaryStats{}, err
	}
	return Summarize(out.Condition, CalculateRecipeMetrics(out)), nil
}

// CompareConditions summarises both results files and computes the RAG minus
// zero-shot deltas.
func CompareConditions(zeroShotPath, ragPath string) (*domain.Comparison, error) {
	zero, err := SummarizeFile(zeroShotPath)
	if err != nil {
		return nil, fmt.Errorf("zero-shot results: %w", err)
	}
	rag, err := SummarizeFile(ragPath)
	if err != nil {
		return nil, fmt.Errorf("RAG results: %w", err)
	}

	return &domain.Comparison{
		ZeroShot:   zero,
		FewShotRAG: rag,
		Comparison: domain.ComparisonDelta{
			IngredientDelta: round2(rag.AvgIngredients - zero.AvgIngredients),
			StepDelta:       round2(rag.AvgSteps - zero.AvgSteps),
			ErrorDifference: rag.ParsingErrors - zero.ParsingErrors,
		},
	}, nil
}

// SaveMetricsReport writes the comparison to <dir>/metrics_comparison.json.
func SaveMetricsReport(c *domain.Comparison, dir string) (string, error) {
	path := filepath.Join(dir, MetricsReportName)
	if err := writeJSON(path, c); err != nil {
		return "", err
	}
	return path, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
