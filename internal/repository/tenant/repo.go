// Package tenant reads tenant configuration documents from the external
// metadata store.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// store is the consumer interface for tenant metadata operations.
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is a read-through repository over provisioned tenant configs.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a tenant metadata repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Get loads one tenant config by id.
func (r *Repo) Get(ctx context.Context, tenantID string) (tenant.Config, error) {
	data, err := r.store.JSONGet(ctx, r.key(tenantID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return tenant.Config{}, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
		}
		return tenant.Config{}, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}
	return configFromJSON(data)
}

// All loads every provisioned tenant config. Documents that fail to parse
// are skipped so one bad config cannot poison a refresh.
func (r *Repo) All(ctx context.Context) ([]tenant.Config, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"tenant:*")
	if err != nil {
		return nil, fmt.Errorf("scan tenants: %w", err)
	}

	configs := make([]tenant.Config, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.JSONGet(ctx, key)
		if err != nil {
			continue
		}
		cfg, err := configFromJSON(data)
		if err != nil {
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (r *Repo) key(tenantID string) string {
	return r.keyPrefix + "tenant:" + tenantID
}
