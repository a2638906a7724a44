// Package retriever implements dense semantic search over the recipe corpus.
package retriever

import (
	"fmt"
	"log/slog"
	"sync"

	"reciperag/internal/adapter/corpus"
	"reciperag/internal/adapter/memstore"
	"reciperag/internal/adapter/store"
	"reciperag/internal/domain"
	"reciperag/internal/port"
)

// Options configures a RecipeRetriever.
type Options struct {
	CorpusPath string
	// CachePath is used when no EmbeddingCache is passed to New. Leave both
	// empty to keep embeddings in memory only.
	CachePath string
	// ModelIdentifier defaults to the embedder's model name.
	ModelIdentifier string
	// EmbeddingDimension, when non-zero, must match the embedder.
	EmbeddingDimension int
	// Progress is called between embedding batches on a cache miss.
	Progress func(done, total int)
	Logger   *slog.Logger
}

// RecipeRetriever answers top-k similarity queries against an immutable
// corpus whose document embeddings are computed once and cached on disk.
type RecipeRetriever struct {
	corpus      *domain.Corpus
	embedder    port.Embedder
	vectors     [][]float32
	model       string
	fingerprint string
	cacheHit    bool
	logger      *slog.Logger
}

// New loads the corpus and obtains its embeddings, from cache when the
// stored fingerprint matches and from the embedder otherwise.
func New(opts Options, embedder port.Embedder, cache port.EmbeddingCache) (*RecipeRetriever, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", domain.ErrInvalidArgument)
	}

	model := embedder.ModelName()
	if opts.ModelIdentifier != "" && opts.ModelIdentifier != model {
		return nil, fmt.Errorf("%w: embedder serves model %q, configured %q",
			domain.ErrInvalidArgument, model, opts.ModelIdentifier)
	}
	dim := embedder.Dimension()
	if opts.EmbeddingDimension != 0 && opts.EmbeddingDimension != dim {
		return nil, fmt.Errorf("%w: model %s has dimension %d, configured %d",
			domain.ErrDimensionMismatch, model, dim, opts.EmbeddingDimension)
	}

	if cache == nil {
		if opts.CachePath != "" {
			cache = store.NewBoltEmbeddingCache(opts.CachePath, logger)
		} else {
			cache = memstore.NewMemoryCache()
		}
	}

	c, err := corpus.Load(opts.CorpusPath, logger)
	if err != nil {
		return nil, err
	}
	docs := c.Documents()

	r := &RecipeRetriever{
		corpus:      c,
		embedder:    embedder,
		model:       model,
		fingerprint: store.Fingerprint(model, dim, docs),
		logger:      logger,
	}

	vectors, ok, err := cache.Load(r.fingerprint)
	if err != nil {
		return nil, fmt.Errorf("load embedding cache: %w", err)
	}
	if ok && validShape(vectors, len(docs), dim) {
		r.vectors = vectors
		r.cacheHit = true
		logger.Info("loaded cached embeddings", "recipes", len(docs), "model", model)
		return r, nil
	}

	logger.Info("computing embeddings", "recipes", len(docs), "model", model)
	vectors, err = embedAll(embedder, docs, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if !validShape(vectors, len(docs), dim) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d documents",
			domain.ErrDimensionMismatch, len(vectors), len(docs))
	}
	if err := cache.Save(r.fingerprint, model, dim, vectors); err != nil {
		return nil, fmt.Errorf("save embedding cache: %w", err)
	}
	r.vectors = vectors

	return r, nil
}

func embedAll(embedder port.Embedder, docs []string, progress func(done, total int)) ([][]float32, error) {
	if len(docs) == 0 {
		return [][]float32{}, nil
	}
	if pe, ok := embedder.(port.ProgressEmbedder); ok {
		return pe.EmbedWithProgress(docs, progress)
	}
	vectors, err := embedder.Embed(docs)
	if err == nil && progress != nil {
		progress(len(docs), len(docs))
	}
	return vectors, err
}

func validShape(vectors [][]float32, n, dim int) bool {
	if len(vectors) != n {
		return false
	}
	for _, v := range vectors {
		if len(v) != dim {
			return false
		}
	}
	return true
}

// Search returns up to k recipes ordered by descending cosine similarity to
// the query. Ties keep corpus order.
func (r *RecipeRetriever) Search(query string, k int) ([]domain.ScoredRecipe, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(r.vectors) == 0 {
		return []domain.ScoredRecipe{}, nil
	}

	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(embeddings))
	}
	qv := embeddings[0]
	if len(qv) != len(r.vectors[0]) {
		return nil, fmt.Errorf("%w: query vector has %d values, corpus vectors %d",
			domain.ErrDimensionMismatch, len(qv), len(r.vectors[0]))
	}

	scores := make([]float64, len(r.vectors))
	for i, v := range r.vectors {
		scores[i] = cosineSimilarity(qv, v)
	}

	top := topK(scores, k)
	results := make([]domain.ScoredRecipe, 0, len(top))
	for _, i := range top {
		results = append(results, domain.ScoredRecipe{
			Index:  i,
			Recipe: r.corpus.Recipes[i],
			Score:  scores[i],
		})
	}

	r.logger.Debug("retrieved recipes", "query", query, "k", k, "results", len(results))
	return results, nil
}

// Retrieve returns the top-k recipes formatted for prompt injection.
func (r *RecipeRetriever) Retrieve(query string, k int) ([]domain.Match, error) {
	scored, err := r.Search(query, k)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Match, len(scored))
	for i, s := range scored {
		matches[i] = domain.Match{
			Text:     domain.FormatRecipe(s.Recipe),
			DishID:   s.Recipe.DishID,
			DishName: s.Recipe.DishName,
			Score:    s.Score,
		}
	}
	return matches, nil
}

func (r *RecipeRetriever) Corpus() *domain.Corpus {
	return r.corpus
}

// CacheHit reports whether embeddings were served from the cache.
func (r *RecipeRetriever) CacheHit() bool {
	return r.cacheHit
}

func (r *RecipeRetriever) Fingerprint() string {
	return r.fingerprint
}

func (r *RecipeRetriever) ModelName() string {
	return r.model
}

// SyncRetriever serialises calls to a Retriever so it can be shared by
// concurrent workers.
type SyncRetriever struct {
	mu        sync.Mutex
	retriever port.Retriever
}

func NewSyncRetriever(r port.Retriever) *SyncRetriever {
	return &SyncRetriever{retriever: r}
}

func (s *SyncRetriever) Retrieve(query string, k int) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriever.Retrieve(query, k)
}
