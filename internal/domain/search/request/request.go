package request

import (
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/spec"
)

// Params holds the inputs for a search Request.
type Params struct {
	TenantID           string
	Modalities         []modality.Modality
	QueryText          string
	Filters            filter.Expression
	Specifications     []spec.Constraint
	Vector             []float32
	ImageRef           string
	K                  int
	Offset             int
	Limit              int
	IncludeMarketplace bool
}

// Request is a validated multi-modal search request.
type Request struct {
	tenantID           string
	modalities         []modality.Modality
	queryText          string
	filters            filter.Expression
	specs              []spec.Constraint
	vector             []float32
	imageRef           string
	k                  int
	offset             int
	limit              int
	includeMarketplace bool
}

// New validates and creates a Request. Modalities are sorted and deduplicated
// so that two requests naming the same set in different order are identical.
func New(p Params) (*Request, error) {
	if p.TenantID == "" {
		return nil, domain.NewInvalidRequest("tenant id is required")
	}
	mods := modality.Normalize(p.Modalities)
	if len(mods) == 0 {
		return nil, domain.NewInvalidRequest("at least one modality is required")
	}
	for _, m := range mods {
		if _, err := modality.Parse(string(m)); err != nil {
			return nil, domain.NewInvalidRequest("%v", err)
		}
	}
	if has(mods, modality.Text) && p.QueryText == "" {
		return nil, domain.NewInvalidRequest("text modality requires query_text")
	}
	if has(mods, modality.Attribute) && p.Filters.IsEmpty() {
		return nil, domain.NewInvalidRequest("attribute modality requires filters")
	}
	if has(mods, modality.Specification) && len(p.Specifications) == 0 {
		return nil, domain.NewInvalidRequest("specification modality requires specifications")
	}
	if has(mods, modality.Image) && len(p.Vector) == 0 && p.ImageRef == "" {
		return nil, domain.NewInvalidRequest("image modality requires a vector or image_ref")
	}
	if p.Limit <= 0 {
		return nil, domain.NewInvalidRequest("limit must be positive")
	}
	if p.Offset < 0 {
		return nil, domain.NewInvalidRequest("offset must not be negative")
	}
	if p.K < 0 {
		return nil, domain.NewInvalidRequest("k must not be negative")
	}
	return &Request{
		tenantID:           p.TenantID,
		modalities:         mods,
		queryText:          p.QueryText,
		filters:            p.Filters,
		specs:              p.Specifications,
		vector:             p.Vector,
		imageRef:           p.ImageRef,
		k:                  p.K,
		offset:             p.Offset,
		limit:              p.Limit,
		includeMarketplace: p.IncludeMarketplace,
	}, nil
}

// TenantID returns the requesting tenant.
func (r *Request) TenantID() string { return r.tenantID }

// Modalities returns the sorted, deduplicated modality set.
func (r *Request) Modalities() []modality.Modality { return r.modalities }

// Has reports whether the request includes the given modality.
func (r *Request) Has(m modality.Modality) bool { return has(r.modalities, m) }

// QueryText returns the free-text query, possibly empty.
func (r *Request) QueryText() string { return r.queryText }

// Filters returns the attribute constraints.
func (r *Request) Filters() filter.Expression { return r.filters }

// Specifications returns the normalized specification constraints.
func (r *Request) Specifications() []spec.Constraint { return r.specs }

// Vector returns the precomputed image vector, possibly nil.
func (r *Request) Vector() []float32 { return r.vector }

// ImageRef returns the external image reference, possibly empty.
func (r *Request) ImageRef() string { return r.imageRef }

// K returns the requested neighbor count for image search (0 = default).
func (r *Request) K() int { return r.k }

// Offset returns the pagination offset.
func (r *Request) Offset() int { return r.offset }

// Limit returns the pagination limit.
func (r *Request) Limit() int { return r.limit }

// IncludeMarketplace reports whether marketplace shards are queried.
func (r *Request) IncludeMarketplace() bool { return r.includeMarketplace }

func has(ms []modality.Modality, m modality.Modality) bool {
	for _, v := range ms {
		if v == m {
			return true
		}
	}
	return false
}
