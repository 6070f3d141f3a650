package omnisearch

import "github.com/kailas-cloud/omnisearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrTenantNotFound         = domain.ErrTenantNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrNoShardsAvailable      = domain.ErrNoShardsAvailable
	ErrAllModalitiesFailed    = domain.ErrAllModalitiesFailed
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
