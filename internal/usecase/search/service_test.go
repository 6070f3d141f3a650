package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
	"github.com/kailas-cloud/omnisearch/internal/usecase/executor"
	"github.com/kailas-cloud/omnisearch/internal/usecase/query"
)

// --- Mocks ---

type mockTenants struct {
	cfg   tenant.Config
	err   error
	calls int
}

func (m *mockTenants) Resolve(_ context.Context, _ string) (tenant.Config, error) {
	m.calls++
	return m.cfg, m.err
}

type mockRouter struct {
	shards []tenant.Shard
	err    error
	calls  int
}

func (m *mockRouter) Route(_ tenant.Config, _ bool) ([]tenant.Shard, error) {
	m.calls++
	return m.shards, m.err
}

type mockPlanner struct {
	queries  []query.ShardQuery
	failures []query.BuildFailure
	err      error
}

func (m *mockPlanner) Build(
	_ context.Context, _ *request.Request, _ tenant.Config, _ []tenant.Shard,
) ([]query.ShardQuery, []query.BuildFailure, error) {
	return m.queries, m.failures, m.err
}

type mockExecutor struct {
	outcome *executor.Outcome
	err     error
	calls   int
}

func (m *mockExecutor) Execute(_ context.Context, _ []query.ShardQuery) (*executor.Outcome, error) {
	m.calls++
	return m.outcome, m.err
}

type mockFuser struct{}

func (m *mockFuser) Fuse(hits []result.ModalityResult, offset, limit int) ([]result.FusedResult, int) {
	fused := make([]result.FusedResult, 0, len(hits))
	for i := range hits {
		h := &hits[i]
		fused = append(fused, result.NewFused(
			h.ItemID(), h.RawScore(), i+1, []modality.Modality{h.Modality()}, nil, h.Source(), nil,
		))
	}
	return fused, len(fused)
}

type mockCache struct {
	page     result.Page
	getErr   error
	puts     int
	getCalls int
}

func (m *mockCache) Get(_ context.Context, _ *request.Request) (result.Page, error) {
	m.getCalls++
	if m.getErr != nil {
		return result.Page{}, m.getErr
	}
	return m.page, nil
}

func (m *mockCache) Put(_ context.Context, _ *request.Request, _ result.Page) error {
	m.puts++
	return nil
}

// --- Helpers ---

func testTenant(t *testing.T) tenant.Config {
	t.Helper()
	cfg, err := tenant.NewConfig(tenant.Params{
		TenantID: "acme", Mode: tenant.Shared, IndexPrefix: "products",
		ShardCount: 4, MaxResults: 50,
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func textRequest(t *testing.T) *request.Request {
	t.Helper()
	req, err := request.New(request.Params{
		TenantID:   "acme",
		Modalities: []modality.Modality{modality.Text},
		QueryText:  "pump",
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func oneShard() []tenant.Shard {
	return []tenant.Shard{tenant.NewShard(0, "products-shared-000", tenant.RoleTenant)}
}

func oneQuery() []query.ShardQuery {
	return []query.ShardQuery{{
		Modality: modality.Text,
		Signal:   result.Lexical,
		Shard:    tenant.NewShard(0, "products-shared-000", tenant.RoleTenant),
		Text:     &db.TextQuery{Index: "products-shared-000", Isolation: db.Isolation{TenantID: "acme"}},
	}}
}

func hitOutcome() *executor.Outcome {
	return &executor.Outcome{
		Results: []result.ModalityResult{
			result.New("ITEM1", 1.0, result.Attribution{Modality: modality.Text, Signal: result.Lexical}, "products-shared-000", nil),
		},
	}
}

func newService(tenants *mockTenants, router *mockRouter, planner *mockPlanner,
	exec *mockExecutor, cache *mockCache) *Service {
	var rc ResultCache
	if cache != nil {
		rc = cache
	}
	return New(tenants, router, planner, exec, &mockFuser{}, rc, zap.NewNop())
}

// --- Tests ---

func TestSearch_UnknownTenantShortCircuits(t *testing.T) {
	tenants := &mockTenants{err: domain.ErrTenantNotFound}
	router := &mockRouter{}
	cache := &mockCache{getErr: domain.ErrCacheMiss}
	svc := newService(tenants, router, &mockPlanner{}, &mockExecutor{}, cache)

	_, err := svc.Search(context.Background(), textRequest(t))
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
	if router.calls != 0 || cache.getCalls != 0 {
		t.Error("unknown tenant must not reach the cache or router")
	}
}

func TestSearch_LimitExceedsTenantCeiling(t *testing.T) {
	req, err := request.New(request.Params{
		TenantID:   "acme",
		Modalities: []modality.Modality{modality.Text},
		QueryText:  "pump",
		Limit:      500,
	})
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}

	svc := newService(&mockTenants{cfg: testTenant(t)}, &mockRouter{}, &mockPlanner{}, &mockExecutor{}, nil)
	_, err = svc.Search(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSearch_CacheHitSkipsBackend(t *testing.T) {
	cache := &mockCache{page: result.Page{
		Results: []result.FusedResult{result.NewFused("ITEM1", 0.9, 1, nil, nil, result.SourceTenant, nil)},
		Total:   1,
	}}
	router := &mockRouter{shards: oneShard()}
	exec := &mockExecutor{outcome: hitOutcome()}
	svc := newService(&mockTenants{cfg: testTenant(t)}, router, &mockPlanner{queries: oneQuery()}, exec, cache)

	resp, err := svc.Search(context.Background(), textRequest(t))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Cached {
		t.Error("expected cached response")
	}
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Errorf("cached page not returned: %+v", resp)
	}
	if router.calls != 0 || exec.calls != 0 {
		t.Error("cache hit must not route or execute")
	}
}

func TestSearch_MissRunsPipelineAndCaches(t *testing.T) {
	cache := &mockCache{getErr: domain.ErrCacheMiss}
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{queries: oneQuery()},
		&mockExecutor{outcome: hitOutcome()},
		cache,
	)

	resp, err := svc.Search(context.Background(), textRequest(t))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Cached {
		t.Error("expected fresh response")
	}
	if len(resp.Results) != 1 || resp.Results[0].ItemID() != "ITEM1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
	if cache.puts != 1 {
		t.Errorf("expected successful response to be cached, puts=%d", cache.puts)
	}
}

func TestSearch_PartialFailureNotCached(t *testing.T) {
	cache := &mockCache{getErr: domain.ErrCacheMiss}
	out := hitOutcome()
	out.Failures = []executor.Failure{{
		Modality: modality.Image, Shard: "products-shared-000",
		Err: domain.ErrModalityTimeout,
	}}
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{queries: oneQuery()},
		&mockExecutor{outcome: out},
		cache,
	)

	resp, err := svc.Search(context.Background(), textRequest(t))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", resp.Warnings)
	}
	if cache.puts != 0 {
		t.Error("degraded response must not be cached")
	}
}

func TestSearch_CacheOutageIsRecovered(t *testing.T) {
	cache := &mockCache{getErr: errors.New("conn refused")}
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{queries: oneQuery()},
		&mockExecutor{outcome: hitOutcome()},
		cache,
	)

	resp, err := svc.Search(context.Background(), textRequest(t))
	if err != nil {
		t.Fatalf("cache outage must not fail the search: %v", err)
	}
	if resp.Cached || len(resp.Results) != 1 {
		t.Errorf("expected fresh full response, got %+v", resp)
	}
}

func TestSearch_AllModalitiesFailedFromExecutor(t *testing.T) {
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{queries: oneQuery()},
		&mockExecutor{err: domain.ErrAllModalitiesFailed},
		nil,
	)

	_, err := svc.Search(context.Background(), textRequest(t))
	if !errors.Is(err, domain.ErrAllModalitiesFailed) {
		t.Fatalf("expected ErrAllModalitiesFailed, got %v", err)
	}
}

func TestSearch_NothingPlannable(t *testing.T) {
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{failures: []query.BuildFailure{{
			Modality: modality.Image, Err: domain.ErrEmbeddingProviderError,
		}}},
		&mockExecutor{},
		nil,
	)

	_, err := svc.Search(context.Background(), textRequest(t))
	if !errors.Is(err, domain.ErrAllModalitiesFailed) {
		t.Fatalf("expected ErrAllModalitiesFailed, got %v", err)
	}
}

func TestSearch_PlannerErrorPropagates(t *testing.T) {
	svc := newService(
		&mockTenants{cfg: testTenant(t)},
		&mockRouter{shards: oneShard()},
		&mockPlanner{err: domain.ErrVectorDimMismatch},
		&mockExecutor{},
		nil,
	)

	_, err := svc.Search(context.Background(), textRequest(t))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestMergeFacets(t *testing.T) {
	merged := mergeFacets([]result.FacetCount{
		{Field: "category", Value: "pumps", Count: 3},
		{Field: "category", Value: "valves", Count: 9},
		{Field: "category", Value: "pumps", Count: 4},
		{Field: "brand", Value: "acme", Count: 1},
	})

	want := []result.FacetCount{
		{Field: "brand", Value: "acme", Count: 1},
		{Field: "category", Value: "valves", Count: 9},
		{Field: "category", Value: "pumps", Count: 7},
	}
	if len(merged) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(merged))
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("bucket %d: got %+v, want %+v", i, merged[i], want[i])
		}
	}
}

func TestMergeFacets_Empty(t *testing.T) {
	if out := mergeFacets(nil); out != nil {
		t.Errorf("expected nil, got %v", out)
	}
}
