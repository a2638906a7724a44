package domain

import (
	"fmt"
	"strings"
)

// FormatRecipe renders a recipe as the text block injected into prompts.
func FormatRecipe(r Recipe) string {
	ingredients := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = "- " + ing
	}
	steps := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = fmt.Sprintf("%d. %s", i+1, s)
	}

	var sb strings.Builder
	sb.WriteString("Dish Name: ")
	sb.WriteString(r.DishName)
	sb.WriteString("\nIngredients:\n")
	sb.WriteString(strings.Join(ingredients, "\n"))
	sb.WriteString("\nSteps:\n")
	sb.WriteString(strings.Join(steps, "\n"))
	return sb.String()
}

// DocumentText is the embedding input for a recipe: name, ingredients and
// steps joined by single spaces.
func DocumentText(r Recipe) string {
	return r.DishName + " " + strings.Join(r.Ingredients, " ") + " " + strings.Join(r.Steps, " ")
}
