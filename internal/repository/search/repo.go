// Package search executes backend-native queries against single shards and
// converts ranked hits into modality results.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
)

// store is the consumer interface for search operations.
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchFilter(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Facets(ctx context.Context, q *db.FacetQuery) (*db.FacetResult, error)
}

// Repo executes per-shard native queries.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchText runs a lexical query against one shard.
func (r *Repo) SearchText(ctx context.Context, q *db.TextQuery, a result.Attribution) ([]result.ModalityResult, error) {
	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search text %s: %w", q.Index, err)
	}
	return toModalityResults(sr, q.Index, a), nil
}

// SearchFilter runs an attribute query against one shard.
func (r *Repo) SearchFilter(ctx context.Context, q *db.FilterQuery, a result.Attribution) ([]result.ModalityResult, error) {
	sr, err := r.store.SearchFilter(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search filter %s: %w", q.Index, err)
	}
	return toModalityResults(sr, q.Index, a), nil
}

// SearchKNN runs a vector similarity query against one shard.
func (r *Repo) SearchKNN(ctx context.Context, q *db.KNNQuery, a result.Attribution) ([]result.ModalityResult, error) {
	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", q.Index, err)
	}
	return toModalityResults(sr, q.Index, a), nil
}

// Facets runs a facet aggregation against one shard.
func (r *Repo) Facets(ctx context.Context, q *db.FacetQuery) ([]result.FacetCount, error) {
	fr, err := r.store.Facets(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("facets %s %s: %w", q.Index, q.Field, err)
	}

	counts := make([]result.FacetCount, 0, len(fr.Groups))
	for _, g := range fr.Groups {
		counts = append(counts, result.FacetCount{Field: fr.Field, Value: g.Value, Count: g.Count})
	}
	return counts, nil
}

// toModalityResults converts backend hits into attributed modality results.
// Documents are keyed "<index>:<item_id>"; the index prefix is stripped.
func toModalityResults(sr *db.SearchResult, index string, a result.Attribution) []result.ModalityResult {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := index + ":"
	results := make([]result.ModalityResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		itemID := strings.TrimPrefix(entry.Key, prefix)
		results = append(results, result.New(itemID, entry.Score, a, index, entry.Fields))
	}
	return results
}
