package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// --- Mocks ---

type mockRepo struct {
	configs  map[string]tenant.Config
	getCalls int
	allCalls int
	getErr   error
	allErr   error
}

func (m *mockRepo) Get(_ context.Context, tenantID string) (tenant.Config, error) {
	m.getCalls++
	if m.getErr != nil {
		return tenant.Config{}, m.getErr
	}
	cfg, ok := m.configs[tenantID]
	if !ok {
		return tenant.Config{}, domain.ErrTenantNotFound
	}
	return cfg, nil
}

func (m *mockRepo) All(_ context.Context) ([]tenant.Config, error) {
	m.allCalls++
	if m.allErr != nil {
		return nil, m.allErr
	}
	out := make([]tenant.Config, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	return out, nil
}

func testConfig(t *testing.T, id string, revision int) tenant.Config {
	t.Helper()
	cfg, err := tenant.NewConfig(tenant.Params{
		TenantID:    id,
		Mode:        tenant.Shared,
		IndexPrefix: "idx",
		ShardCount:  4,
		Revision:    revision,
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

// --- Tests ---

func TestResolve_MissLoadsFromStore(t *testing.T) {
	repo := &mockRepo{configs: map[string]tenant.Config{
		"acme": testConfig(t, "acme", 1),
	}}
	svc := New(repo, 16, time.Minute, time.Minute, zap.NewNop())

	cfg, err := svc.Resolve(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.TenantID() != "acme" {
		t.Errorf("expected tenant acme, got %q", cfg.TenantID())
	}
	if repo.getCalls != 1 {
		t.Errorf("expected 1 store read, got %d", repo.getCalls)
	}
}

func TestResolve_HitSkipsStore(t *testing.T) {
	repo := &mockRepo{configs: map[string]tenant.Config{
		"acme": testConfig(t, "acme", 1),
	}}
	svc := New(repo, 16, time.Minute, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := svc.Resolve(context.Background(), "acme"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("expected 1 store read, got %d", repo.getCalls)
	}
}

func TestResolve_UnknownTenant(t *testing.T) {
	repo := &mockRepo{configs: map[string]tenant.Config{}}
	svc := New(repo, 16, time.Minute, time.Minute, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestRefresh_ReplacesSnapshot(t *testing.T) {
	repo := &mockRepo{configs: map[string]tenant.Config{
		"acme": testConfig(t, "acme", 1),
	}}
	svc := New(repo, 16, time.Minute, time.Minute, zap.NewNop())

	if _, err := svc.Resolve(context.Background(), "acme"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	repo.configs["acme"] = testConfig(t, "acme", 2)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	cfg, err := svc.Resolve(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Revision() != 2 {
		t.Errorf("expected revision 2 after refresh, got %d", cfg.Revision())
	}
	if repo.getCalls != 1 {
		t.Errorf("refresh should not evict fresh entries, got %d store reads", repo.getCalls)
	}
}

func TestRefresh_StoreError(t *testing.T) {
	repo := &mockRepo{allErr: errors.New("conn refused")}
	svc := New(repo, 16, time.Minute, time.Minute, zap.NewNop())

	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := &mockRepo{configs: map[string]tenant.Config{}}
	svc := New(repo, 16, time.Minute, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if repo.allCalls == 0 {
		t.Error("expected at least one periodic refresh")
	}
}
