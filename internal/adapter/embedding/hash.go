package embedding

import (
	"hash/fnv"
	"math"

	"reciperag/internal/adapter/analyzer"
)

// HashEmbedder is a deterministic, offline embedder. Each token is hashed
// into one of dimension buckets with a hash-derived sign, and the resulting
// vector is L2-normalized. Texts that share tokens get a positive cosine
// similarity; texts with no shared tokens score near zero.
type HashEmbedder struct {
	model     string
	dimension int
	batchSize int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(model string, dimension int) *HashEmbedder {
	if model == "" {
		model = "feature-hash-v1"
	}
	if dimension <= 0 {
		dimension = 1024
	}
	return &HashEmbedder{
		model:     model,
		dimension: dimension,
		batchSize: defaultBatchSize,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashEmbedder) WithBatchSize(n int) *HashEmbedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

func (e *HashEmbedder) Embed(texts []string) ([][]float32, error) {
	return e.EmbedWithProgress(texts, nil)
}

func (e *HashEmbedder) EmbedWithProgress(texts []string, progress func(done, total int)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
		if progress != nil && ((i+1)%e.batchSize == 0 || i+1 == len(texts)) {
			progress(i+1, len(texts))
		}
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dimension)
	for _, tok := range e.tokenizer.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()

		idx := int(sum % uint32(e.dimension))
		if sum&(1<<31) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	return normalize(v)
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return e.model
}
