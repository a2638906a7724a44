// Package memstore provides an in-process EmbeddingCache for tests and
// one-shot runs that should not touch disk.
package memstore

import (
	"fmt"
	"sync"

	"reciperag/internal/domain"
)

type entry struct {
	fingerprint string
	model       string
	dimension   int
	vectors     [][]float32
}

type MemoryCache struct {
	mu    sync.RWMutex
	entry *entry
	loads int
	saves int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Load(fingerprint string) ([][]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++

	if c.entry == nil || c.entry.fingerprint != fingerprint {
		return nil, false, nil
	}
	return copyVectors(c.entry.vectors), true, nil
}

func (c *MemoryCache) Save(fingerprint, model string, dimension int, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has %d values, expected %d",
				domain.ErrDimensionMismatch, i, len(v), dimension)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.entry = &entry{
		fingerprint: fingerprint,
		model:       model,
		dimension:   dimension,
		vectors:     copyVectors(vectors),
	}
	return nil
}

// Fingerprint returns the stored fingerprint, or "" when empty.
func (c *MemoryCache) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return ""
	}
	return c.entry.fingerprint
}

// Stats returns how many loads and saves the cache has served.
func (c *MemoryCache) Stats() (loads, saves int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads, c.saves
}

func copyVectors(in [][]float32) [][]float32 {
	out := make([][]float32, len(in))
	for i, v := range in {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
