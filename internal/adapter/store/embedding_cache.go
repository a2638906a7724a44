package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"reciperag/internal/domain"
)

// DefaultLockTimeout bounds how long an open waits for another process
// holding the cache file.
const DefaultLockTimeout = 5 * time.Second

// BoltEmbeddingCache persists document embeddings in a bbolt file. The file
// is opened only for the duration of a Load or Save.
type BoltEmbeddingCache struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewBoltEmbeddingCache(path string, logger *slog.Logger) *BoltEmbeddingCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoltEmbeddingCache{
		path:    path,
		timeout: DefaultLockTimeout,
		logger:  logger,
	}
}

func (c *BoltEmbeddingCache) Path() string {
	return c.path
}

func (c *BoltEmbeddingCache) open(readOnly bool) (*bbolt.DB, error) {
	db, err := bbolt.Open(c.path, 0600, &bbolt.Options{Timeout: c.timeout, ReadOnly: readOnly})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("embedding cache %s is locked by another process: %w", c.path, err)
		}
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrCacheCorrupt, c.path, err)
	}
	return db, nil
}

// Load returns the cached vectors if the file exists and its fingerprint
// matches. Stale caches are reported as a miss.
func (c *BoltEmbeddingCache) Load(fingerprint string) ([][]float32, bool, error) {
	if _, err := os.Stat(c.path); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, err)
	}

	db, err := c.open(true)
	if err != nil {
		return nil, false, err
	}
	defer db.Close()

	var (
		vectors [][]float32
		hit     bool
	)
	err = db.View(func(tx *bbolt.Tx) error {
		info, err := readInfo(tx)
		if err != nil {
			return err
		}

		result := check(info, fingerprint)
		if result.NeedsRebuild {
			c.logger.Info("embedding cache is stale", "path", c.path, "reason", result.Reason)
			return nil
		}

		vectors, err = readVectors(tx, info.Count, info.Dimension)
		if err != nil {
			return err
		}
		hit = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", domain.ErrCacheCorrupt, c.path, err)
	}

	return vectors, hit, nil
}

// Save replaces the cache contents in a single transaction.
func (c *BoltEmbeddingCache) Save(fingerprint, model string, dimension int, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has %d values, expected %d",
				domain.ErrDimensionMismatch, i, len(v), dimension)
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := c.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketVectors} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}

		b, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketVectors, err)
		}
		for i, v := range vectors {
			if err := b.Put(indexKey(i), encodeVector(v)); err != nil {
				return err
			}
		}

		return writeInfo(tx, &CacheInfo{
			SchemaVersion: CurrentSchemaVersion,
			Fingerprint:   fingerprint,
			Model:         model,
			Dimension:     dimension,
			Count:         len(vectors),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}

	c.logger.Debug("embedding cache written", "path", c.path, "vectors", len(vectors), "dimension", dimension)
	return nil
}

// Inspect returns the stored metadata without reading vectors.
func (c *BoltEmbeddingCache) Inspect() (*CacheInfo, error) {
	db, err := c.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var info *CacheInfo
	err = db.View(func(tx *bbolt.Tx) error {
		var err error
		info, err = readInfo(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, err)
	}
	return info, nil
}

func readVectors(tx *bbolt.Tx, count, dimension int) ([][]float32, error) {
	b := tx.Bucket(bucketVectors)
	if b == nil {
		return nil, fmt.Errorf("missing %q bucket", bucketVectors)
	}
	if n := b.Stats().KeyN; n != count {
		return nil, fmt.Errorf("expected %d vectors, found %d", count, n)
	}

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		data := b.Get(indexKey(i))
		if len(data) != 4*dimension {
			return nil, fmt.Errorf("vector %d: expected %d bytes, found %d", i, 4*dimension, len(data))
		}
		vectors[i] = decodeVector(data)
	}
	return vectors, nil
}

func indexKey(i int) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(i))
	return key
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// decodeVector copies out of the mmap'd page; bbolt values are only valid
// inside the transaction.
func decodeVector(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v
}
