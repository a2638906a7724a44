package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current cache schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")

	keySchemaVersion = []byte("schema_version")
	keyFingerprint   = []byte("fingerprint")
	keyModel         = []byte("model")
	keyDimension     = []byte("dimension")
	keyCount         = []byte("count")
)

// Fingerprint identifies a set of document embeddings. It covers the schema
// version, the model, the dimension and every document text in order, so any
// corpus edit or model change produces a different value.
func Fingerprint(model string, dimension int, documents []string) string {
	h := sha256.New()
	var n [8]byte

	write := func(s string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	write(strconv.Itoa(CurrentSchemaVersion))
	write(model)
	write(strconv.Itoa(dimension))
	binary.BigEndian.PutUint64(n[:], uint64(len(documents)))
	h.Write(n[:])
	for _, doc := range documents {
		write(doc)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// CacheInfo is the metadata stored alongside cached vectors.
type CacheInfo struct {
	SchemaVersion int
	Fingerprint   string
	Model         string
	Dimension     int
	Count         int
}

// CheckResult describes whether a cache can serve a fingerprint.
type CheckResult struct {
	NeedsRebuild bool
	Reason       string
	Info         *CacheInfo
}

func readInfo(tx *bbolt.Tx) (*CacheInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("missing %q bucket", bucketMeta)
	}

	info := &CacheInfo{
		Fingerprint: string(b.Get(keyFingerprint)),
		Model:       string(b.Get(keyModel)),
	}

	ints := []struct {
		key []byte
		dst *int
	}{
		{keySchemaVersion, &info.SchemaVersion},
		{keyDimension, &info.Dimension},
		{keyCount, &info.Count},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(string(b.Get(f.key)))
		if err != nil {
			return nil, fmt.Errorf("meta %s: %w", f.key, err)
		}
		*f.dst = v
	}

	return info, nil
}

func writeInfo(tx *bbolt.Tx, info *CacheInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
	}

	entries := map[string]string{
		string(keySchemaVersion): strconv.Itoa(info.SchemaVersion),
		string(keyFingerprint):   info.Fingerprint,
		string(keyModel):         info.Model,
		string(keyDimension):     strconv.Itoa(info.Dimension),
		string(keyCount):         strconv.Itoa(info.Count),
	}
	for k, v := range entries {
		if err := b.Put([]byte(k), []byte(v)); err != nil {
			return err
		}
	}
	return nil
}

// check compares stored metadata with the expected fingerprint.
func check(info *CacheInfo, fingerprint string) *CheckResult {
	result := &CheckResult{Info: info}

	switch {
	case info.SchemaVersion != CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("schema version changed (v%d -> v%d)", info.SchemaVersion, CurrentSchemaVersion)
	case info.Fingerprint != fingerprint:
		result.NeedsRebuild = true
		result.Reason = "corpus or embedding model changed"
	}

	return result
}
