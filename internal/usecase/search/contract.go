package search

import (
	"context"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
	"github.com/kailas-cloud/omnisearch/internal/usecase/executor"
	"github.com/kailas-cloud/omnisearch/internal/usecase/query"
)

// TenantResolver resolves tenant configurations.
type TenantResolver interface {
	Resolve(ctx context.Context, tenantID string) (tenant.Config, error)
}

// Router maps a tenant configuration to the shard set to query.
type Router interface {
	Route(cfg tenant.Config, includeMarketplace bool) ([]tenant.Shard, error)
}

// Planner translates a request into per-shard native queries.
type Planner interface {
	Build(ctx context.Context, req *request.Request, cfg tenant.Config, shards []tenant.Shard) (
		[]query.ShardQuery, []query.BuildFailure, error)
}

// Executor fans queries out and collects partial results.
type Executor interface {
	Execute(ctx context.Context, queries []query.ShardQuery) (*executor.Outcome, error)
}

// Fuser merges modality hits into a ranked page.
type Fuser interface {
	Fuse(hits []result.ModalityResult, offset, limit int) ([]result.FusedResult, int)
}

// ResultCache stores fused pages keyed by request identity.
type ResultCache interface {
	Get(ctx context.Context, req *request.Request) (result.Page, error)
	Put(ctx context.Context, req *request.Request, page result.Page) error
}
