// Package search orchestrates one multi-modal search: tenant resolution,
// cache lookup, shard routing, query planning, concurrent fan-out, and score
// fusion.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/metrics"
	"github.com/kailas-cloud/omnisearch/internal/usecase/executor"
	"github.com/kailas-cloud/omnisearch/internal/usecase/query"
)

// Response is the outcome of one search.
type Response struct {
	Results  []result.FusedResult
	Facets   []result.FacetCount
	Total    int
	Warnings []string
	Cached   bool
}

// Service is the search orchestrator.
type Service struct {
	tenants TenantResolver
	router  Router
	planner Planner
	exec    Executor
	fuser   Fuser
	cache   ResultCache
	logger  *zap.Logger
}

// New creates the search orchestrator. cache may be nil to disable caching.
func New(
	tenants TenantResolver, router Router, planner Planner,
	exec Executor, fuser Fuser, cache ResultCache, logger *zap.Logger,
) *Service {
	return &Service{
		tenants: tenants,
		router:  router,
		planner: planner,
		exec:    exec,
		fuser:   fuser,
		cache:   cache,
		logger:  logger,
	}
}

// Search runs one multi-modal search. The tenant is resolved before anything
// else; an unknown tenant never reaches the cache or a backend.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	cfg, err := s.tenants.Resolve(ctx, req.TenantID())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	if req.Limit() > cfg.MaxResults() {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, domain.NewInvalidRequest("limit %d exceeds tenant maximum %d", req.Limit(), cfg.MaxResults())
	}

	if resp, ok := s.lookupCache(ctx, req); ok {
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
		return resp, nil
	}

	shards, err := s.router.Route(cfg, req.IncludeMarketplace())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("route: %w", err)
	}

	queries, planFailures, err := s.planner.Build(ctx, req, cfg, shards)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("plan queries: %w", err)
	}
	if len(queries) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: no modality could be planned", domain.ErrAllModalitiesFailed)
	}

	fanoutStart := time.Now()
	out, err := s.exec.Execute(ctx, queries)
	metrics.FanoutDuration.Observe(time.Since(fanoutStart).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("execute: %w", err)
	}
	s.countModalityQueries(queries, out)

	fusionStart := time.Now()
	fused, total := s.fuser.Fuse(out.Results, req.Offset(), req.Limit())
	metrics.FusionDuration.Observe(time.Since(fusionStart).Seconds())

	resp := &Response{
		Results:  fused,
		Facets:   mergeFacets(out.Facets),
		Total:    total,
		Warnings: warnings(planFailures, out.Failures),
	}

	if len(resp.Warnings) == 0 {
		s.storeCache(ctx, req, resp)
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues("partial").Inc()
	}
	return resp, nil
}

// lookupCache returns a cached response when one exists. Cache outages are
// logged and treated as misses.
func (s *Service) lookupCache(ctx context.Context, req *request.Request) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	page, err := s.cache.Get(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		} else {
			metrics.ResultCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn("result cache unavailable", zap.Error(err))
		}
		return nil, false
	}

	metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	return &Response{
		Results: page.Results,
		Facets:  page.Facets,
		Total:   page.Total,
		Cached:  true,
	}, true
}

// storeCache persists a fully successful response. Only complete responses
// are cached; a degraded page must not outlive the outage that shaped it.
func (s *Service) storeCache(ctx context.Context, req *request.Request, resp *Response) {
	if s.cache == nil {
		return
	}
	page := result.Page{
		Results:   resp.Results,
		Facets:    resp.Facets,
		Total:     resp.Total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.cache.Put(ctx, req, page); err != nil {
		s.logger.Warn("result cache write failed", zap.Error(err))
	}
}

func (s *Service) countModalityQueries(queries []query.ShardQuery, out *executor.Outcome) {
	failed := make(map[string]int)
	for _, f := range out.Failures {
		failed[string(f.Modality)]++
	}
	planned := make(map[string]int)
	for _, q := range queries {
		planned[string(q.Modality)]++
	}
	for m, n := range planned {
		ok := n - failed[m]
		if ok > 0 {
			metrics.ModalityQueriesTotal.WithLabelValues(m, "ok").Add(float64(ok))
		}
		if failed[m] > 0 {
			metrics.ModalityQueriesTotal.WithLabelValues(m, "failed").Add(float64(failed[m]))
		}
	}
}

// warnings renders plan and execution failures for the response.
func warnings(plan []query.BuildFailure, exec []executor.Failure) []string {
	if len(plan) == 0 && len(exec) == 0 {
		return nil
	}
	out := make([]string, 0, len(plan)+len(exec))
	for _, f := range plan {
		out = append(out, fmt.Sprintf("%s: %v", f.Modality, f.Err))
	}
	for _, f := range exec {
		out = append(out, f.Warning())
	}
	return out
}

// mergeFacets sums per-shard buckets into one count per (field, value),
// ordered by field, then descending count, then value.
func mergeFacets(facets []result.FacetCount) []result.FacetCount {
	if len(facets) == 0 {
		return nil
	}

	type bucket struct{ field, value string }
	sums := make(map[bucket]int64)
	for _, f := range facets {
		sums[bucket{field: f.Field, value: f.Value}] += f.Count
	}

	merged := make([]result.FacetCount, 0, len(sums))
	for b, n := range sums {
		merged = append(merged, result.FacetCount{Field: b.field, Value: b.value, Count: n})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Field != merged[j].Field {
			return merged[i].Field < merged[j].Field
		}
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].Value < merged[j].Value
	})
	return merged
}
