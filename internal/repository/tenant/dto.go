package tenant

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// configDTO is the stored JSON shape of a tenant config document. Written by
// the external provisioning process, read-only here.
type configDTO struct {
	TenantID        string              `json:"tenant_id"`
	TenancyMode     string              `json:"tenancy_mode"`
	IndexPrefix     string              `json:"index_prefix"`
	ShardCount      int                 `json:"shard_count"`
	ShardMapping    map[string]string   `json:"shard_mapping,omitempty"`
	Dedicated       bool                `json:"dedicated,omitempty"`
	ReadPreference  string              `json:"read_preference,omitempty"`
	WritePreference string              `json:"write_preference,omitempty"`
	MaxResults      int                 `json:"max_results,omitempty"`
	DefaultFilters  map[string][]string `json:"default_filters,omitempty"`
	BoostFields     map[string]float64  `json:"boost_fields,omitempty"`
	VectorEnabled   bool                `json:"vector_enabled,omitempty"`
	Revision        int                 `json:"revision"`
}

func configFromJSON(data []byte) (tenant.Config, error) {
	var dto configDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return tenant.Config{}, fmt.Errorf("unmarshal tenant config: %w", err)
	}

	var mapping map[int]string
	if len(dto.ShardMapping) > 0 {
		mapping = make(map[int]string, len(dto.ShardMapping))
		for k, v := range dto.ShardMapping {
			id, err := strconv.Atoi(k)
			if err != nil {
				return tenant.Config{}, fmt.Errorf("invalid shard id %q: %w", k, err)
			}
			mapping[id] = v
		}
	}

	cfg, err := tenant.NewConfig(tenant.Params{
		TenantID:        dto.TenantID,
		Mode:            tenant.Mode(dto.TenancyMode),
		IndexPrefix:     dto.IndexPrefix,
		ShardCount:      dto.ShardCount,
		ShardMapping:    mapping,
		DedicatedFlag:   dto.Dedicated,
		ReadPreference:  dto.ReadPreference,
		WritePreference: dto.WritePreference,
		MaxResults:      dto.MaxResults,
		DefaultFilters:  dto.DefaultFilters,
		BoostFields:     dto.BoostFields,
		VectorEnabled:   dto.VectorEnabled,
		Revision:        dto.Revision,
	})
	if err != nil {
		return tenant.Config{}, fmt.Errorf("invalid tenant config %q: %w", dto.TenantID, err)
	}
	return cfg, nil
}
