package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
	"github.com/kailas-cloud/omnisearch/internal/usecase/query"
)

// --- Mocks ---

type mockRepo struct {
	failIndex map[string]error
	hangIndex map[string]bool
	facetErr  error
}

func (m *mockRepo) respond(ctx context.Context, index string, a result.Attribution) ([]result.ModalityResult, error) {
	if m.hangIndex[index] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := m.failIndex[index]; err != nil {
		return nil, err
	}
	return []result.ModalityResult{
		result.New("item-"+index, 1.0, a, index, nil),
	}, nil
}

func (m *mockRepo) SearchText(ctx context.Context, q *db.TextQuery, a result.Attribution) ([]result.ModalityResult, error) {
	return m.respond(ctx, q.Index, a)
}

func (m *mockRepo) SearchFilter(ctx context.Context, q *db.FilterQuery, a result.Attribution) ([]result.ModalityResult, error) {
	return m.respond(ctx, q.Index, a)
}

func (m *mockRepo) SearchKNN(ctx context.Context, q *db.KNNQuery, a result.Attribution) ([]result.ModalityResult, error) {
	return m.respond(ctx, q.Index, a)
}

func (m *mockRepo) Facets(_ context.Context, q *db.FacetQuery) ([]result.FacetCount, error) {
	if m.facetErr != nil {
		return nil, m.facetErr
	}
	return []result.FacetCount{{Field: q.Field, Value: "pumps", Count: 3}}, nil
}

// --- Helpers ---

func textQuery(m modality.Modality, index string) query.ShardQuery {
	return query.ShardQuery{
		Modality: m,
		Signal:   result.Lexical,
		Shard:    tenant.NewShard(0, index, tenant.RoleTenant),
		Text: &db.TextQuery{
			Index:     index,
			Query:     "pump",
			Isolation: db.Isolation{TenantID: "acme"},
			TopK:      10,
		},
	}
}

// --- Tests ---

func TestExecute_CollectsAllResults(t *testing.T) {
	svc := New(&mockRepo{}, 4, time.Second, zap.NewNop())
	queries := []query.ShardQuery{
		textQuery(modality.Text, "shard-a"),
		textQuery(modality.Text, "shard-b"),
	}

	out, err := svc.Execute(context.Background(), queries)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Results) != 2 {
		t.Errorf("expected 2 results, got %d", len(out.Results))
	}
	if len(out.Failures) != 0 {
		t.Errorf("unexpected failures: %v", out.Failures)
	}
}

func TestExecute_ZeroTimeoutDefaulted(t *testing.T) {
	svc := New(&mockRepo{}, 0, 0, zap.NewNop())
	queries := []query.ShardQuery{textQuery(modality.Text, "shard-a")}

	out, err := svc.Execute(context.Background(), queries)
	if err != nil {
		t.Fatalf("Execute with zero-value tuning: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(out.Results))
	}
	if len(out.Failures) != 0 {
		t.Errorf("unexpected failures: %v", out.Failures)
	}
}

func TestExecute_PartialFailureTolerated(t *testing.T) {
	repo := &mockRepo{failIndex: map[string]error{"shard-b": errors.New("conn reset")}}
	svc := New(repo, 4, time.Second, zap.NewNop())
	queries := []query.ShardQuery{
		textQuery(modality.Text, "shard-a"),
		textQuery(modality.Text, "shard-b"),
	}

	out, err := svc.Execute(context.Background(), queries)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("expected 1 surviving result, got %d", len(out.Results))
	}
	if len(out.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(out.Failures))
	}
	if !errors.Is(out.Failures[0].Err, domain.ErrModalityBackend) {
		t.Errorf("expected backend failure kind, got %v", out.Failures[0].Err)
	}
}

func TestExecute_AllModalitiesFailed(t *testing.T) {
	repo := &mockRepo{failIndex: map[string]error{
		"shard-a": errors.New("down"),
		"shard-b": errors.New("down"),
	}}
	svc := New(repo, 4, time.Second, zap.NewNop())
	queries := []query.ShardQuery{
		textQuery(modality.Text, "shard-a"),
		textQuery(modality.Attribute, "shard-b"),
	}

	_, err := svc.Execute(context.Background(), queries)
	if !errors.Is(err, domain.ErrAllModalitiesFailed) {
		t.Fatalf("expected ErrAllModalitiesFailed, got %v", err)
	}
}

func TestExecute_OneModalitySurvives(t *testing.T) {
	repo := &mockRepo{failIndex: map[string]error{"shard-b": errors.New("down")}}
	svc := New(repo, 4, time.Second, zap.NewNop())
	queries := []query.ShardQuery{
		textQuery(modality.Text, "shard-a"),
		textQuery(modality.Image, "shard-b"),
	}

	out, err := svc.Execute(context.Background(), queries)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Results) != 1 || len(out.Failures) != 1 {
		t.Fatalf("expected 1 result and 1 failure, got %d/%d", len(out.Results), len(out.Failures))
	}
}

func TestExecute_TimeoutClassified(t *testing.T) {
	repo := &mockRepo{hangIndex: map[string]bool{"shard-slow": true}}
	svc := New(repo, 4, 10*time.Millisecond, zap.NewNop())
	queries := []query.ShardQuery{
		textQuery(modality.Text, "shard-a"),
		textQuery(modality.Image, "shard-slow"),
	}

	out, err := svc.Execute(context.Background(), queries)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(out.Failures))
	}
	if !errors.Is(out.Failures[0].Err, domain.ErrModalityTimeout) {
		t.Errorf("expected timeout kind, got %v", out.Failures[0].Err)
	}
	if w := out.Failures[0].Warning(); w != "image: timeout on shard-slow" {
		t.Errorf("unexpected warning %q", w)
	}
}

func TestExecute_FacetErrorDoesNotFailQuery(t *testing.T) {
	repo := &mockRepo{facetErr: errors.New("aggregate broken")}
	svc := New(repo, 4, time.Second, zap.NewNop())

	q := textQuery(modality.Attribute, "shard-a")
	q.Facets = []*db.FacetQuery{{
		Index: "shard-a", Field: "category",
		Isolation: db.Isolation{TenantID: "acme"}, Limit: 10,
	}}

	out, err := svc.Execute(context.Background(), []query.ShardQuery{q})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("expected hit list to survive facet error, got %d results", len(out.Results))
	}
	if len(out.Facets) != 0 {
		t.Errorf("expected no facets, got %v", out.Facets)
	}
}

func TestExecute_EmptyQueryList(t *testing.T) {
	svc := New(&mockRepo{}, 4, time.Second, zap.NewNop())
	out, err := svc.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Results) != 0 || len(out.Failures) != 0 {
		t.Errorf("expected empty outcome, got %+v", out)
	}
}

func TestExecute_ParentCancelAborts(t *testing.T) {
	repo := &mockRepo{hangIndex: map[string]bool{"shard-a": true}}
	svc := New(repo, 4, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Execute(ctx, []query.ShardQuery{textQuery(modality.Text, "shard-a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
