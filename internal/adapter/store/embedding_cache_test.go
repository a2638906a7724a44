package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"reciperag/internal/domain"
)

func testVectors() [][]float32 {
	return [][]float32{
		{0.1, 0.2, 0.3},
		{-1, 0, 1},
	}
}

func TestBoltEmbeddingCache_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "embeddings_cache.db")
	c := NewBoltEmbeddingCache(path, nil)

	fp := Fingerprint("feature-hash-v1", 3, []string{"a", "b"})
	require.NoError(t, c.Save(fp, "feature-hash-v1", 3, testVectors()))

	got, ok, err := c.Load(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testVectors(), got)

	info, err := c.Inspect()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.SchemaVersion)
	assert.Equal(t, fp, info.Fingerprint)
	assert.Equal(t, "feature-hash-v1", info.Model)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, 2, info.Count)
}

func TestBoltEmbeddingCache_MissingFile(t *testing.T) {
	c := NewBoltEmbeddingCache(filepath.Join(t.TempDir(), "none.db"), nil)

	got, ok, err := c.Load("anything")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestBoltEmbeddingCache_StaleFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c := NewBoltEmbeddingCache(path, nil)

	old := Fingerprint("m", 3, []string{"a", "b"})
	require.NoError(t, c.Save(old, "m", 3, testVectors()))

	_, ok, err := c.Load(Fingerprint("m", 3, []string{"a", "edited"}))
	require.NoError(t, err)
	assert.False(t, ok)

	// Overwrite replaces the previous contents.
	fresh := Fingerprint("m", 3, []string{"a"})
	require.NoError(t, c.Save(fresh, "m", 3, [][]float32{{1, 1, 1}}))
	got, ok, err := c.Load(fresh)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [][]float32{{1, 1, 1}}, got)
}

func TestBoltEmbeddingCache_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a bolt database"), 0600))

	_, _, err := NewBoltEmbeddingCache(path, nil).Load("fp")
	assert.True(t, errors.Is(err, domain.ErrCacheCorrupt), "got %v", err)
}

func TestBoltEmbeddingCache_TruncatedVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c := NewBoltEmbeddingCache(path, nil)
	fp := Fingerprint("m", 3, []string{"a", "b"})
	require.NoError(t, c.Save(fp, "m", 3, testVectors()))

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).Put(indexKey(1), []byte{1, 2, 3})
	}))
	require.NoError(t, db.Close())

	_, _, err = c.Load(fp)
	assert.True(t, errors.Is(err, domain.ErrCacheCorrupt), "got %v", err)
}

func TestBoltEmbeddingCache_ForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte("docs"))
		return err
	}))
	require.NoError(t, db.Close())

	_, _, err = NewBoltEmbeddingCache(path, nil).Load("fp")
	assert.True(t, errors.Is(err, domain.ErrCacheCorrupt), "got %v", err)
}

func TestBoltEmbeddingCache_DimensionMismatch(t *testing.T) {
	c := NewBoltEmbeddingCache(filepath.Join(t.TempDir(), "cache.db"), nil)

	err := c.Save("fp", "m", 4, testVectors())
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch), "got %v", err)
}

func TestBoltEmbeddingCache_LockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c := NewBoltEmbeddingCache(path, nil)
	require.NoError(t, c.Save("fp", "m", 3, testVectors()))

	holder, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer holder.Close()

	c.timeout = 50 * time.Millisecond
	_, _, err = c.Load("fp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, bbolt.ErrTimeout), "got %v", err)
	assert.False(t, errors.Is(err, domain.ErrCacheCorrupt))
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("m", 8, []string{"a b", "c"})

	assert.Equal(t, base, Fingerprint("m", 8, []string{"a b", "c"}))
	assert.Len(t, base, 64)

	variants := []string{
		Fingerprint("other", 8, []string{"a b", "c"}),
		Fingerprint("m", 16, []string{"a b", "c"}),
		Fingerprint("m", 8, []string{"c", "a b"}),
		Fingerprint("m", 8, []string{"a", "b c"}),
		Fingerprint("m", 8, []string{"a b"}),
	}
	for i, v := range variants {
		assert.NotEqual(t, base, v, "variant %d", i)
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	v := []float32{0, -0.5, 3.25, 1e-7}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
	assert.Equal(t, []byte{0, 0, 0, 1}, indexKey(1))
}
