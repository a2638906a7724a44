// Package corpus loads and writes the recipe corpus file.
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reciperag/internal/domain"
)

type rawFile struct {
	Version      json.RawMessage `json:"version"`
	TotalRecipes json.RawMessage `json:"total_recipes"`
	Recipes      []rawRecipe     `json:"recipes"`
}

type rawRecipe struct {
	DishID      json.RawMessage `json:"dish_id"`
	DishName    string          `json:"dish_name"`
	Category    string          `json:"category"`
	Ingredients json.RawMessage `json:"ingredients"`
	Steps       json.RawMessage `json:"steps"`
}

// Load reads the corpus at path and normalizes every record. Records with
// unparseable ingredients or steps are kept with an empty field and listed in
// Corpus.Degraded.
func Load(path string, logger *slog.Logger) (*domain.Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.CorpusLoadError{Path: path, Err: err}
	}

	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.CorpusLoadError{Path: path, Err: err}
	}
	if raw.Recipes == nil {
		return nil, &domain.CorpusLoadError{Path: path, Err: errors.New(`missing "recipes" array`)}
	}

	c := &domain.Corpus{
		Version: scalarString(raw.Version),
		Recipes: make([]domain.Recipe, 0, len(raw.Recipes)),
	}
	if n, err := json.Number(scalarString(raw.TotalRecipes)).Int64(); err == nil {
		c.TotalRecipes = int(n)
	} else {
		c.TotalRecipes = len(raw.Recipes)
	}

	for i, rr := range raw.Recipes {
		r := domain.Recipe{
			DishID:   scalarString(rr.DishID),
			DishName: rr.DishName,
			Category: rr.Category,
		}

		var reason string
		r.Ingredients, reason = NormalizeField(rr.Ingredients)
		if reason != "" {
			c.Degraded = append(c.Degraded, domain.DegradedField{Index: i, DishID: r.DishID, Field: "ingredients", Reason: reason})
		}
		r.Steps, reason = NormalizeField(rr.Steps)
		if reason != "" {
			c.Degraded = append(c.Degraded, domain.DegradedField{Index: i, DishID: r.DishID, Field: "steps", Reason: reason})
		}

		c.Recipes = append(c.Recipes, r)
	}

	for _, d := range c.Degraded {
		logger.Warn("degraded recipe field",
			"index", d.Index, "dish_id", d.DishID, "field", d.Field, "reason", d.Reason)
	}
	logger.Debug("corpus loaded", "path", path, "recipes", len(c.Recipes), "degraded", len(c.Degraded))

	return c, nil
}

// NormalizeField turns a stored ingredients or steps value into a string list.
// It accepts a JSON array of strings or a string holding one. A missing or
// null value yields an empty list; anything else yields an empty list and a
// non-empty reason.
func NormalizeField(raw json.RawMessage) ([]string, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, ""
	}

	switch trimmed[0] {
	case '[':
		return decodeList(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return []string{}, err.Error()
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) == 0 || inner[0] != '[' {
			return []string{}, "string value is not a JSON array"
		}
		return decodeList(inner)
	default:
		return []string{}, "value is neither a list nor a JSON string"
	}
}

func decodeList(data []byte) ([]string, string) {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return []string{}, err.Error()
	}
	if items == nil {
		items = []string{}
	}
	return items, ""
}

// scalarString renders a JSON string or number as a Go string.
func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

// Write stores a corpus file as indented JSON, creating parent directories.
func Write(path string, f *domain.CorpusFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
