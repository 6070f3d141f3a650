package tenant

import (
	"fmt"
	"sort"
)

// Mode selects how a tenant's documents are distributed across shards.
type Mode string

const (
	// Dedicated tenants own their physical indices.
	Dedicated Mode = "dedicated"
	// Shared tenants are hashed onto a pool of shared shards.
	Shared Mode = "shared"
	// Hybrid tenants are dedicated when flagged, shared otherwise.
	Hybrid Mode = "hybrid"
)

// ParseMode validates a tenancy mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Dedicated, Shared, Hybrid:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown tenancy mode %q", s)
	}
}

// Role marks whether a shard holds tenant-private or marketplace documents.
type Role string

const (
	// RoleTenant shards hold a tenant's private documents.
	RoleTenant Role = "tenant"
	// RoleMarketplace shards hold the cross-tenant marketplace corpus.
	RoleMarketplace Role = "marketplace"
)

// Shard describes one physical index to query. Immutable for a config revision.
type Shard struct {
	id    int
	index string
	role  Role
}

// NewShard creates a shard descriptor.
func NewShard(id int, index string, role Role) Shard {
	return Shard{id: id, index: index, role: role}
}

// ID returns the logical shard identifier.
func (s Shard) ID() int { return s.id }

// Index returns the physical index name.
func (s Shard) Index() string { return s.index }

// Role returns the shard role.
func (s Shard) Role() Role { return s.role }

// Params holds the inputs for a tenant Config.
type Params struct {
	TenantID        string
	Mode            Mode
	IndexPrefix     string
	ShardCount      int
	ShardMapping    map[int]string
	DedicatedFlag   bool
	ReadPreference  string
	WritePreference string
	MaxResults      int
	DefaultFilters  map[string][]string
	BoostFields     map[string]float64
	VectorEnabled   bool
	Revision        int
}

// Config is a tenant's search configuration. It is created by an external
// provisioning process and read-only inside the search core.
type Config struct {
	tenantID        string
	mode            Mode
	indexPrefix     string
	shardCount      int
	shardMapping    map[int]string
	dedicatedFlag   bool
	readPreference  string
	writePreference string
	maxResults      int
	defaultFilters  map[string][]string
	boostFields     map[string]float64
	vectorEnabled   bool
	revision        int
}

// NewConfig validates and creates a tenant Config.
func NewConfig(p Params) (Config, error) {
	if p.TenantID == "" {
		return Config{}, fmt.Errorf("tenant id is required")
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return Config{}, err
	}
	if p.Mode != Dedicated && p.ShardCount <= 0 {
		return Config{}, fmt.Errorf("shard count must be positive for %s tenancy", p.Mode)
	}
	if p.IndexPrefix == "" && len(p.ShardMapping) == 0 {
		return Config{}, fmt.Errorf("index prefix or shard mapping is required")
	}
	if p.MaxResults <= 0 {
		p.MaxResults = 100
	}
	return Config{
		tenantID:        p.TenantID,
		mode:            p.Mode,
		indexPrefix:     p.IndexPrefix,
		shardCount:      p.ShardCount,
		shardMapping:    copyMapping(p.ShardMapping),
		dedicatedFlag:   p.DedicatedFlag,
		readPreference:  p.ReadPreference,
		writePreference: p.WritePreference,
		maxResults:      p.MaxResults,
		defaultFilters:  copyFilters(p.DefaultFilters),
		boostFields:     copyBoosts(p.BoostFields),
		vectorEnabled:   p.VectorEnabled,
		revision:        p.Revision,
	}, nil
}

// TenantID returns the tenant identifier.
func (c Config) TenantID() string { return c.tenantID }

// Mode returns the tenancy mode.
func (c Config) Mode() Mode { return c.mode }

// IndexPrefix returns the physical index name prefix.
func (c Config) IndexPrefix() string { return c.indexPrefix }

// ShardCount returns the number of shared shards.
func (c Config) ShardCount() int { return c.shardCount }

// DedicatedFlag reports whether a hybrid tenant routes as dedicated.
func (c Config) DedicatedFlag() bool { return c.dedicatedFlag }

// ReadPreference returns the backend read preference hint.
func (c Config) ReadPreference() string { return c.readPreference }

// WritePreference returns the backend write preference hint.
func (c Config) WritePreference() string { return c.writePreference }

// MaxResults returns the per-request result ceiling.
func (c Config) MaxResults() int { return c.maxResults }

// VectorEnabled reports whether the tenant's shards carry vector data.
func (c Config) VectorEnabled() bool { return c.vectorEnabled }

// Revision returns the provisioning revision of this config.
func (c Config) Revision() int { return c.revision }

// ShardIndex resolves a logical shard id to its physical index name.
// Falls back to "<prefix>-shared-<id>" when no explicit mapping exists.
func (c Config) ShardIndex(id int) string {
	if name, ok := c.shardMapping[id]; ok {
		return name
	}
	return fmt.Sprintf("%s-shared-%03d", c.indexPrefix, id)
}

// DedicatedShards returns the tenant-owned shard set in shard-id order.
// Without an explicit mapping a dedicated tenant owns a single index
// named "<prefix>-<tenant_id>".
func (c Config) DedicatedShards() []Shard {
	if len(c.shardMapping) == 0 {
		return []Shard{NewShard(0, fmt.Sprintf("%s-%s", c.indexPrefix, c.tenantID), RoleTenant)}
	}
	ids := make([]int, 0, len(c.shardMapping))
	for id := range c.shardMapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	shards := make([]Shard, 0, len(ids))
	for _, id := range ids {
		shards = append(shards, NewShard(id, c.shardMapping[id], RoleTenant))
	}
	return shards
}

// DefaultFilters returns the tenant's implicit attribute filters.
func (c Config) DefaultFilters() map[string][]string { return copyFilters(c.defaultFilters) }

// BoostFields returns the tenant's text search field boosts.
func (c Config) BoostFields() map[string]float64 { return copyBoosts(c.boostFields) }

func copyMapping(m map[int]string) map[int]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFilters(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		vals := make([]string, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

func copyBoosts(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
