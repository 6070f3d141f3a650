// Package query translates a validated search request into backend-native
// queries, one per (modality, shard) pair. Every produced query carries a
// tenant-isolation clause; there is no code path that emits one without it.
package query

import (
	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// ShardQuery is one executable unit of a fan-out: a native query bound to a
// single shard and attributed to the modality that produced it. Exactly one
// of Text, Filter, or KNN is set.
type ShardQuery struct {
	Modality modality.Modality
	Signal   result.Signal
	Shard    tenant.Shard

	Text   *db.TextQuery
	Filter *db.FilterQuery
	KNN    *db.KNNQuery

	// Facets are side-channel aggregations executed with this query.
	Facets []*db.FacetQuery

	MatchedFields []string
}

// Attribution returns the result attribution for hits of this query.
func (q ShardQuery) Attribution() result.Attribution {
	source := result.SourceTenant
	if q.Shard.Role() == tenant.RoleMarketplace {
		source = result.SourceMarketplace
	}
	return result.Attribution{
		Modality:      q.Modality,
		Signal:        q.Signal,
		Source:        source,
		MatchedFields: q.MatchedFields,
	}
}

// BuildFailure records a modality that could not be planned. The search
// continues with the remaining modalities.
type BuildFailure struct {
	Modality modality.Modality
	Err      error
}

// isolationFor derives the mandatory isolation clause for one shard.
// Marketplace shards are searched cross-tenant but never return the
// requester's own documents.
func isolationFor(sh tenant.Shard, tenantID string) db.Isolation {
	if sh.Role() == tenant.RoleMarketplace {
		return db.Isolation{Marketplace: true, ExcludeTenantID: tenantID}
	}
	return db.Isolation{TenantID: tenantID}
}
