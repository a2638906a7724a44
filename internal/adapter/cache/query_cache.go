package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"reciperag/internal/port"
)

// QueryCache memoises query embeddings with LRU eviction and a TTL.
// It is safe for concurrent use.
type QueryCache struct {
	lru *expirable.LRU[string, []float32]
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{
		lru: expirable.NewLRU[string, []float32](maxSize, nil, ttl),
	}
}

func cacheKey(model, query string) string {
	data := make([]byte, 0, len(model)+1+len(query))
	data = append(data, model...)
	data = append(data, 0)
	data = append(data, query...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(model, query string) ([]float32, bool) {
	return c.lru.Get(cacheKey(model, query))
}

func (c *QueryCache) Put(model, query string, vector []float32) {
	c.lru.Add(cacheKey(model, query), vector)
}

func (c *QueryCache) Invalidate() {
	c.lru.Purge()
}

func (c *QueryCache) Size() int {
	return c.lru.Len()
}

// CachedEmbedder serves repeated query embeddings from a QueryCache.
// Bulk corpus embedding through EmbedWithProgress bypasses the cache.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *QueryCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *QueryCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	model := e.embedder.ModelName()
	out := make([][]float32, len(texts))

	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		if vec, hit := e.cache.Get(model, text); hit {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := e.embedder.Embed(missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		e.cache.Put(model, missing[j], vec)
	}

	return out, nil
}

func (e *CachedEmbedder) EmbedWithProgress(texts []string, progress func(done, total int)) ([][]float32, error) {
	if pe, ok := e.embedder.(port.ProgressEmbedder); ok {
		return pe.EmbedWithProgress(texts, progress)
	}
	vecs, err := e.embedder.Embed(texts)
	if err == nil && progress != nil {
		progress(len(texts), len(texts))
	}
	return vecs, err
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
