// Package routing resolves a tenant's logical search to the physical shard
// set that must be queried. Routing is deterministic: the same tenant config
// and request flags always produce the same shard list.
package routing

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// Service maps tenant configurations to physical shards.
type Service struct {
	marketplace []tenant.Shard
}

// New creates a shard router. marketplaceIndices is the deployment-wide
// marketplace shard set, appended when a request opts into marketplace scope.
func New(marketplaceIndices []string) *Service {
	shards := make([]tenant.Shard, 0, len(marketplaceIndices))
	for i, index := range marketplaceIndices {
		shards = append(shards, tenant.NewShard(i, index, tenant.RoleMarketplace))
	}
	return &Service{marketplace: shards}
}

// Route returns the shard set for one search. Dedicated tenants get their
// owned shards, shared tenants hash onto one shared shard, hybrid tenants
// pick per their dedicated flag. Marketplace shards are appended on demand.
func (s *Service) Route(cfg tenant.Config, includeMarketplace bool) ([]tenant.Shard, error) {
	var shards []tenant.Shard

	switch cfg.Mode() {
	case tenant.Dedicated:
		shards = cfg.DedicatedShards()
	case tenant.Shared:
		shards = []tenant.Shard{s.sharedShard(cfg)}
	case tenant.Hybrid:
		if cfg.DedicatedFlag() {
			shards = cfg.DedicatedShards()
		} else {
			shards = []tenant.Shard{s.sharedShard(cfg)}
		}
	default:
		return nil, fmt.Errorf("route tenant %s: unknown tenancy mode %q", cfg.TenantID(), cfg.Mode())
	}

	if includeMarketplace {
		shards = append(shards, s.marketplace...)
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("route tenant %s: %w", cfg.TenantID(), domain.ErrNoShardsAvailable)
	}
	return shards, nil
}

// sharedShard places a tenant on one shard of the shared pool. The hash is
// stable across processes so co-located tenants stay co-located.
func (s *Service) sharedShard(cfg tenant.Config) tenant.Shard {
	id := int(xxhash.Sum64String(cfg.TenantID()) % uint64(cfg.ShardCount()))
	return tenant.NewShard(id, cfg.ShardIndex(id), tenant.RoleTenant)
}
