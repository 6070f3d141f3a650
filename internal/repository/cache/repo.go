// Package cache stores fused search pages keyed by normalized request
// identity. The cache is best-effort: callers treat every failure as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
)

// store is the consumer interface for cache operations.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo is the result cache repository.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a result cache repository with a default TTL.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Get looks up the cached page for a request. Returns domain.ErrCacheMiss
// when no fresh entry exists; any other error means the cache store itself
// misbehaved.
func (r *Repo) Get(ctx context.Context, req *request.Request) (result.Page, error) {
	data, err := r.store.Get(ctx, r.storageKey(req))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return result.Page{}, domain.ErrCacheMiss
		}
		return result.Page{}, fmt.Errorf("cache get: %w", err)
	}

	var dto entryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		// Corrupt entry, treat as miss.
		return result.Page{}, domain.ErrCacheMiss
	}
	return fromEntryDTO(dto), nil
}

// Put stores a fused page under the request's content key. Last writer wins;
// cached pages are idempotent derivations of the same query.
func (r *Repo) Put(ctx context.Context, req *request.Request, page result.Page) error {
	data, err := json.Marshal(toEntryDTO(page, r.ttl))
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.storageKey(req), data, r.ttl); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (r *Repo) storageKey(req *request.Request) string {
	return r.keyPrefix + "result:" + Key(req)
}
