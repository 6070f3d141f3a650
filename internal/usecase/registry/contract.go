package registry

import (
	"context"

	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// Repository defines the storage contract for tenant configurations.
type Repository interface {
	Get(ctx context.Context, tenantID string) (tenant.Config, error)
	All(ctx context.Context) ([]tenant.Config, error)
}
