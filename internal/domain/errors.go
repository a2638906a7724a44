package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrCacheCorrupt      = errors.New("embedding cache corrupt")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// CorpusLoadError reports a corpus file that is missing, unreadable or not
// valid JSON.
type CorpusLoadError struct {
	Path string
	Err  error
}

func (e *CorpusLoadError) Error() string {
	return fmt.Sprintf("load corpus %s: %v", e.Path, e.Err)
}

func (e *CorpusLoadError) Unwrap() error {
	return e.Err
}
