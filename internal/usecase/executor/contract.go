package executor

import (
	"context"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
)

// Repository defines the per-shard search contract.
type Repository interface {
	SearchText(ctx context.Context, q *db.TextQuery, a result.Attribution) ([]result.ModalityResult, error)
	SearchFilter(ctx context.Context, q *db.FilterQuery, a result.Attribution) ([]result.ModalityResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery, a result.Attribution) ([]result.ModalityResult, error)
	Facets(ctx context.Context, q *db.FacetQuery) ([]result.FacetCount, error)
}
