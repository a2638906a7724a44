// Package dataset builds the recipe corpus from the Recipes1M CSV export.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"reciperag/internal/domain"
)

// Category assigns recipes to a sampling bucket by title keyword.
type Category struct {
	Name     string
	Keywords []string
}

const OtherCategory = "other"

// Categories are matched in order; the first keyword hit wins.
var Categories = []Category{
	{"chicken", []string{"chicken", "poultry"}},
	{"beef", []string{"beef", "steak"}},
	{"pork", []string{"pork", "bacon", "ham", "sausage"}},
	{"seafood", []string{"fish", "salmon", "shrimp", "tuna", "seafood", "crab", "lobster"}},
	{"vegetarian", []string{"vegetable", "veggie", "vegan", "tofu", "lentil", "bean"}},
	{"pasta", []string{"pasta", "spaghetti", "lasagna", "lasagne", "noodle", "macaroni"}},
	{"soup", []string{"soup", "stew", "chowder", "broth"}},
	{"salad", []string{"salad"}},
	{"dessert", []string{"cake", "cookie", "pie", "brownie", "chocolate", "ice cream", "dessert"}},
	{"bread", []string{"bread", "muffin", "biscuit", "roll", "loaf"}},
	{"breakfast", []string{"pancake", "waffle", "omelette", "omelet", "egg", "breakfast"}},
	{"rice", []string{"rice", "risotto", "fried rice"}},
	{"pizza", []string{"pizza"}},
	{"sandwich", []string{"sandwich", "wrap", "burger"}},
}

// Categorize returns the category for a recipe title.
func Categorize(title string) string {
	lower := strings.ToLower(title)
	for _, c := range Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				return c.Name
			}
		}
	}
	return OtherCategory
}

type Options struct {
	Total          int
	Seed           int64
	Source         string
	Version        string
	MinIngredients int
	MaxIngredients int
	MinSteps       int
	MaxSteps       int
}

// Report summarises a curation run.
type Report struct {
	Rows       int
	FromSource int
	Quality    int
	Available  map[string]int
	Sampled    map[string]int
}

type row struct {
	id          string
	title       string
	ingredients string
	directions  string
	category    string
}

// Curate reads the CSV, keeps quality rows from the configured source and
// samples them evenly across categories, filling the remainder from "other".
// The same input and seed always produce the same corpus.
func Curate(r io.Reader, opts Options) (*domain.CorpusFile, *Report, error) {
	if opts.Total < len(Categories) {
		return nil, nil, fmt.Errorf("%w: total recipes (%d) must be >= number of categories (%d)",
			domain.ErrInvalidArgument, opts.Total, len(Categories))
	}

	rows, report, err := readRows(r, opts)
	if err != nil {
		return nil, nil, err
	}

	byCategory := make(map[string][]row)
	for _, rw := range rows {
		byCategory[rw.category] = append(byCategory[rw.category], rw)
	}
	for name, rs := range byCategory {
		report.Available[name] = len(rs)
	}

	perCategory := opts.Total / len(Categories)
	var sampled []row
	for _, c := range Categories {
		picked := sample(byCategory[c.Name], perCategory, opts.Seed)
		if len(picked) > 0 {
			report.Sampled[c.Name] = len(picked)
		}
		sampled = append(sampled, picked...)
	}
	if remaining := opts.Total - len(sampled); remaining > 0 {
		picked := sample(byCategory[OtherCategory], remaining, opts.Seed)
		if len(picked) > 0 {
			report.Sampled[OtherCategory] = len(picked)
		}
		sampled = append(sampled, picked...)
	}

	out := &domain.CorpusFile{
		Version:      opts.Version,
		TotalRecipes: len(sampled),
		Recipes:      make([]domain.CorpusFileRow, len(sampled)),
	}
	for i, rw := range sampled {
		out.Recipes[i] = domain.CorpusFileRow{
			DishID:      rw.id,
			DishName:    rw.title,
			Category:    rw.category,
			Ingredients: rw.ingredients,
			Steps:       rw.directions,
		}
	}

	return out, report, nil
}

// sample picks n rows without replacement using an RNG seeded per call.
func sample(rows []row, n int, seed int64) []row {
	if n > len(rows) {
		n = len(rows)
	}
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(rows))
	out := make([]row, n)
	for i := 0; i < n; i++ {
		out[i] = rows[perm[i]]
	}
	return out
}

func readRows(r io.Reader, opts Options) ([]row, *Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"title", "ingredients", "directions", "source"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("csv is missing column %q", required)
		}
	}
	idCol, hasID := cols[""]
	if !hasID {
		idCol, hasID = cols["Unnamed: 0"]
	}

	report := &Report{Available: map[string]int{}, Sampled: map[string]int{}}
	var rows []row
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		report.Rows++

		get := func(col int) string {
			if col < len(rec) {
				return rec[col]
			}
			return ""
		}

		if get(cols["source"]) != opts.Source {
			continue
		}
		report.FromSource++

		ingredients := get(cols["ingredients"])
		directions := get(cols["directions"])
		if !within(countItems(ingredients), opts.MinIngredients, opts.MaxIngredients) ||
			!within(countItems(directions), opts.MinSteps, opts.MaxSteps) {
			continue
		}
		report.Quality++

		id := strconv.Itoa(line)
		if hasID {
			id = get(idCol)
		}
		title := get(cols["title"])
		rows = append(rows, row{
			id:          id,
			title:       title,
			ingredients: ingredients,
			directions:  directions,
			category:    Categorize(title),
		})
	}

	return rows, report, nil
}

// countItems returns the length of a JSON array, or 0 if s is not one.
func countItems(s string) int {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return 0
	}
	return len(items)
}

func within(n, lo, hi int) bool {
	return n >= lo && n <= hi
}
