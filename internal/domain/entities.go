package domain

// Recipe is a normalized corpus record.
type Recipe struct {
	DishID      string   `json:"dish_id"`
	DishName    string   `json:"dish_name"`
	Category    string   `json:"category,omitempty"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// DegradedField records a per-record field that could not be parsed and was
// replaced by an empty list during corpus normalization.
type DegradedField struct {
	Index  int    `json:"index"`
	DishID string `json:"dish_id"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Corpus is the ordered, immutable recipe collection a retriever serves.
type Corpus struct {
	Version      string
	TotalRecipes int
	Recipes      []Recipe
	Degraded     []DegradedField
}

// Len returns the number of recipes in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Recipes)
}

// Documents returns the embedding input text for every recipe, in corpus order.
func (c *Corpus) Documents() []string {
	docs := make([]string, 0, c.Len())
	for _, r := range c.Recipes {
		docs = append(docs, DocumentText(r))
	}
	return docs
}

type ScoredRecipe struct {
	Index  int
	Recipe Recipe
	Score  float64
}

// Match is a retrieval result ready for prompt injection.
type Match struct {
	Text     string  `json:"text"`
	DishID   string  `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Score    float64 `json:"score"`
}

// CorpusFile is the on-disk corpus layout. Ingredients and steps are kept as
// JSON-encoded strings, the way curation writes them.
type CorpusFile struct {
	Version      string          `json:"version"`
	TotalRecipes int             `json:"total_recipes"`
	Recipes      []CorpusFileRow `json:"recipes"`
}

type CorpusFileRow struct {
	DishID      string `json:"dish_id"`
	DishName    string `json:"dish_name"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients"`
	Steps       string `json:"steps"`
}

// Experiment conditions.
const (
	ConditionZeroShot   = "zero_shot"
	ConditionFewShotRAG = "few_shot_RAG"
)

// GenerationResult is one generated recipe within a run.
type GenerationResult struct {
	DishName          string `json:"dish_name"`
	Prompt            string `json:"prompt"`
	RetrievedRecipeID string `json:"retrieved_recipe_id,omitempty"`
	RetrievedDishName string `json:"retrieved_dish_name,omitempty"`
	Output            string `json:"output"`
}

// RunOutput is the results file written for one experiment condition.
type RunOutput struct {
	Version     string             `json:"version"`
	Condition   string             `json:"condition"`
	Model       string             `json:"model"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Timestamp   string             `json:"timestamp"`
	Results     []GenerationResult `json:"results"`
}

// RecipeMetrics holds the structural metrics of one generated recipe.
type RecipeMetrics struct {
	DishName       string `json:"dish_name"`
	NumIngredients int    `json:"num_ingredients"`
	NumSteps       int    `json:"num_steps"`
	HasJSONError   bool   `json:"has_json_error"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// SummaryStats aggregates RecipeMetrics for a condition. Min/max fields are
// only set when at least one output parsed.
type SummaryStats struct {
	Condition      string  `json:"condition"`
	TotalRecipes   int     `json:"total_recipes"`
	ParsingErrors  int     `json:"parsing_errors"`
	ValidRecipes   int     `json:"valid_recipes"`
	AvgIngredients float64 `json:"avg_ingredients"`
	AvgSteps       float64 `json:"avg_steps"`
	MinIngredients *int    `json:"min_ingredients,omitempty"`
	MaxIngredients *int    `json:"max_ingredients,omitempty"`
	MinSteps       *int    `json:"min_steps,omitempty"`
	MaxSteps       *int    `json:"max_steps,omitempty"`
}

type ComparisonDelta struct {
	IngredientDelta float64 `json:"ingredient_delta"`
	StepDelta       float64 `json:"step_delta"`
	ErrorDifference int     `json:"error_difference"`
}

// Comparison is the metrics report comparing both conditions.
type Comparison struct {
	ZeroShot   SummaryStats    `json:"zero_shot"`
	FewShotRAG SummaryStats    `json:"few_shot_RAG"`
	Comparison ComparisonDelta `json:"comparison"`
}

// ExperimentMetadata describes one timed experiment run.
type ExperimentMetadata struct {
	RunID                string   `json:"run_id"`
	ExperimentName       string   `json:"experiment_name"`
	Condition            string   `json:"condition"`
	Model                string   `json:"model"`
	Temperature          float64  `json:"temperature"`
	MaxTokens            int      `json:"max_tokens"`
	RetrievalModel       *string  `json:"retrieval_model"`
	KRetrieval           *int     `json:"k_retrieval"`
	StartTime            string   `json:"start_time,omitempty"`
	EndTime              string   `json:"end_time,omitempty"`
	TotalDurationSeconds *float64 `json:"total_duration_seconds"`
	NumSamples           int      `json:"num_samples"`
	Timezone             string   `json:"timezone"`
}
