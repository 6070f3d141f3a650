package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound signals an unknown tenant identifier.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoShardsAvailable signals that routing produced an empty shard set.
	ErrNoShardsAvailable = errors.New("no shards available")
	// ErrAllModalitiesFailed signals that every requested modality failed.
	ErrAllModalitiesFailed = errors.New("all modalities failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrModalityTimeout signals a per-modality query timeout.
	ErrModalityTimeout = errors.New("modality timed out")
	// ErrModalityBackend signals a per-modality backend failure.
	ErrModalityBackend = errors.New("modality backend error")
	// ErrCacheMiss signals the absence of a fresh cached response.
	ErrCacheMiss = errors.New("cache miss")
)

// EmbeddingResult holds an embedding vector and provider token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// InvalidRequestError wraps ErrInvalidRequest with a field-level reason.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest.Error(), e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// NewInvalidRequest creates an invalid-request error with a reason.
func NewInvalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}
