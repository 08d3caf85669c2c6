package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPageNotFound signals a URL absent from the page store.
	ErrPageNotFound = errors.New("page not found")
	// ErrListNotFound signals a missing inclusion or exclusion list file.
	ErrListNotFound = errors.New("list not found")
	// ErrInvalidRequest signals a malformed pipeline request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMalformedText signals input text that cannot be tokenized.
	ErrMalformedText = errors.New("malformed text")
	// ErrEmptyVocabulary signals that no term survived document-frequency filtering.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ListNotFoundError wraps ErrListNotFound with the path that was missing.
type ListNotFoundError struct {
	Path string
	Err  error
}

func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrListNotFound.Error(), e.Path)
}

func (e *ListNotFoundError) Unwrap() []error { return []error{ErrListNotFound, e.Err} }

// NewListNotFound creates a list-not-found error for path.
func NewListNotFound(path string, cause error) error {
	return &ListNotFoundError{Path: path, Err: cause}
}
