// Package registry serves tenant configurations from an in-memory snapshot
// backed by the tenant store. Lookups on the hot path never block on the
// backend unless the tenant has not been seen before.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// Service resolves tenant configurations with a bounded expiring snapshot.
type Service struct {
	repo         Repository
	snapshot     *expirable.LRU[string, tenant.Config]
	refreshEvery time.Duration
	logger       *zap.Logger
}

// New creates a tenant registry. Entries older than staleness are dropped
// from the snapshot and re-read from the store on next resolve.
func New(repo Repository, size int, staleness, refreshEvery time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		snapshot:     expirable.NewLRU[string, tenant.Config](size, nil, staleness),
		refreshEvery: refreshEvery,
		logger:       logger,
	}
}

// Resolve returns the configuration for a tenant. Configs are immutable
// values, so a snapshot hit is safe to hand out while a refresh is running.
func (s *Service) Resolve(ctx context.Context, tenantID string) (tenant.Config, error) {
	if cfg, ok := s.snapshot.Get(tenantID); ok {
		return cfg, nil
	}

	cfg, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return tenant.Config{}, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}

	s.snapshot.Add(tenantID, cfg)
	return cfg, nil
}

// Refresh reloads every tenant configuration from the store. In-flight
// resolves keep serving the previous revision until their entry is replaced.
func (s *Service) Refresh(ctx context.Context) error {
	configs, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("refresh tenants: %w", err)
	}

	for _, cfg := range configs {
		s.snapshot.Add(cfg.TenantID(), cfg)
	}

	s.logger.Debug("tenant registry refreshed", zap.Int("tenants", len(configs)))
	return nil
}

// Run refreshes the registry periodically until the context is canceled.
// A failed refresh is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("tenant registry refresh failed", zap.Error(err))
			}
		}
	}
}
