// Package db defines the backend-native query model and the store facade the
// search core executes against. The engine itself (indexing, scoring) is
// external; this package only describes queries and parses ranked hits.
package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
)

// Store is the main backend facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	JSONStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with TTL, used by the
// result cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// JSONStore provides JSON document operations, used by the tenant
// metadata store.
type JSONStore interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONSet(ctx context.Context, key, path string, data []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Searcher executes native queries against a single index/shard and returns
// ranked hits.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchFilter(ctx context.Context, q *FilterQuery) (*SearchResult, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	Facets(ctx context.Context, q *FacetQuery) (*FacetResult, error)
}

// Isolation is the mandatory tenant-isolation clause attached to every query.
// Either TenantID is set (tenant-private search) or Marketplace is set
// (cross-tenant corpus, optionally excluding the requester's own documents).
type Isolation struct {
	TenantID        string
	Marketplace     bool
	ExcludeTenantID string
}

// Empty reports whether the clause isolates nothing. Such queries are
// rejected by every Searcher implementation.
func (i Isolation) Empty() bool {
	return i.TenantID == "" && !i.Marketplace
}

// TextQuery is a fuzzy multi-field lexical query.
type TextQuery struct {
	Index     string
	Query     string
	Boosts    map[string]float64
	Fuzzy     bool
	Filters   filter.Expression
	Isolation Isolation
	TopK      int
}

// FilterQuery matches documents by attribute constraints only.
type FilterQuery struct {
	Index     string
	Filters   filter.Expression
	Isolation Isolation
	TopK      int
}

// KNNQuery is a k-nearest-neighbor vector similarity query.
type KNNQuery struct {
	Index     string
	Vector    []float32
	K         int
	Filters   filter.Expression
	Isolation Isolation
}

// FacetQuery counts documents per value of one field over a filtered set.
type FacetQuery struct {
	Index     string
	Field     string
	Filters   filter.Expression
	Isolation Isolation
	Limit     int
}

// SearchResult holds ranked hits from one query against one index.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single ranked hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// FacetResult holds facet buckets for one field.
type FacetResult struct {
	Field  string
	Groups []FacetGroup
}

// FacetGroup is one facet bucket.
type FacetGroup struct {
	Value string
	Count int64
}
