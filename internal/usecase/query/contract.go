package query

import (
	"context"

	"github.com/kailas-cloud/omnisearch/internal/domain"
)

// Embedder vectorizes text or image references into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
