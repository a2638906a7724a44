package port

import "reciperag/internal/domain"

// Retriever finds the recipes most similar to a query.
type Retriever interface {
	// Retrieve returns the top-k recipes formatted for prompt injection.
	Retrieve(query string, k int) ([]domain.Match, error)
}
