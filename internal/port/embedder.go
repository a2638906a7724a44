package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// EmbeddingCache persists document embeddings keyed by a corpus fingerprint.
type EmbeddingCache interface {
	// Load returns the cached vectors when the stored fingerprint matches.
	// A missing cache or a fingerprint mismatch reports ok=false with a nil
	// error; an unreadable cache returns an error.
	Load(fingerprint string) (vectors [][]float32, ok bool, err error)

	// Save replaces the cached vectors and fingerprint.
	Save(fingerprint, model string, dimension int, vectors [][]float32) error
}

// ProgressEmbedder is an Embedder that reports progress after each batch.
type ProgressEmbedder interface {
	Embedder
	EmbedWithProgress(texts []string, progress func(done, total int)) ([][]float32, error)
}
