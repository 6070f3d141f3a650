package omnisearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/spec"
)

// Modality is one search mode.
type Modality string

// Supported modalities.
const (
	Text          Modality = Modality(modality.Text)
	Attribute     Modality = Modality(modality.Attribute)
	Specification Modality = Modality(modality.Specification)
	Image         Modality = Modality(modality.Image)
)

// SearchRequest describes one multi-modal search.
type SearchRequest struct {
	Modalities         []Modality
	Query              string
	Filters            []Filter
	Specifications     []Spec
	Vector             []float32
	ImageRef           string
	K                  int
	Offset             int
	Limit              int
	IncludeMarketplace bool
}

// Filter is one attribute constraint: either a term list or a numeric range.
type Filter struct {
	Field string
	Terms []string
	Range *RangeFilter
}

// RangeFilter bounds a numeric field. gt/gte and lt/lte are mutually exclusive.
type RangeFilter struct {
	Gt  *float64
	Gte *float64
	Lt  *float64
	Lte *float64
}

// Spec is one raw technical specification constraint, e.g. {"power", "1.5", "kW"}.
type Spec struct {
	Name  string
	Value string
	Unit  string
}

// SearchResult is one fused, ranked hit. Source is "tenant" for the tenant's
// own documents and "marketplace" for cross-tenant listings.
type SearchResult struct {
	ID             string
	Score          float64
	Rank           int
	Modalities     []string
	ModalityScores map[string]float64
	Source         string
	Fields         map[string]string
}

// Facet is one attribute aggregation bucket.
type Facet struct {
	Field string
	Value string
	Count int64
}

// SearchResponse is the outcome of one search.
type SearchResponse struct {
	Results  []SearchResult
	Facets   []Facet
	Total    int
	Warnings []string
	Cached   bool
}

// Search runs one multi-modal search on behalf of a tenant.
func (c *Client) Search(ctx context.Context, tenantID string, sr SearchRequest) (*SearchResponse, error) {
	req, err := toInternalRequest(tenantID, sr)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := &SearchResponse{
		Results:  make([]SearchResult, 0, len(resp.Results)),
		Total:    resp.Total,
		Warnings: resp.Warnings,
		Cached:   resp.Cached,
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		mods := make([]string, 0, len(r.Contributing()))
		for _, m := range r.Contributing() {
			mods = append(mods, string(m))
		}
		scores := make(map[string]float64, len(r.NormalizedScores()))
		for m, s := range r.NormalizedScores() {
			scores[string(m)] = s
		}
		out.Results = append(out.Results, SearchResult{
			ID:             r.ItemID(),
			Score:          r.CombinedScore(),
			Rank:           r.Rank(),
			Modalities:     mods,
			ModalityScores: scores,
			Source:         string(r.Source()),
			Fields:         r.Fields(),
		})
	}
	for _, f := range resp.Facets {
		out.Facets = append(out.Facets, Facet{Field: f.Field, Value: f.Value, Count: f.Count})
	}
	return out, nil
}

func toInternalRequest(tenantID string, sr SearchRequest) (*request.Request, error) {
	mods := make([]modality.Modality, 0, len(sr.Modalities))
	for _, m := range sr.Modalities {
		mods = append(mods, modality.Modality(m))
	}

	filters, err := toInternalFilters(sr.Filters)
	if err != nil {
		return nil, err
	}

	specs := make([]spec.Constraint, 0, len(sr.Specifications))
	for _, s := range sr.Specifications {
		c, err := spec.Parse(s.Name, s.Value, s.Unit)
		if err != nil {
			return nil, err
		}
		specs = append(specs, c)
	}

	limit := sr.Limit
	if limit == 0 {
		limit = 10
	}

	return request.New(request.Params{
		TenantID:           tenantID,
		Modalities:         mods,
		QueryText:          sr.Query,
		Filters:            filters,
		Specifications:     specs,
		Vector:             sr.Vector,
		ImageRef:           sr.ImageRef,
		K:                  sr.K,
		Offset:             sr.Offset,
		Limit:              limit,
		IncludeMarketplace: sr.IncludeMarketplace,
	})
}

func toInternalFilters(fs []Filter) (filter.Expression, error) {
	if len(fs) == 0 {
		return filter.Expression{}, nil
	}
	conditions := make([]filter.Condition, 0, len(fs))
	for _, f := range fs {
		switch {
		case len(f.Terms) > 0 && f.Range != nil:
			return filter.Expression{},
				fmt.Errorf("filter for %q must have terms or range, not both", f.Field)
		case len(f.Terms) > 0:
			cond, err := filter.NewTerms(f.Field, f.Terms)
			if err != nil {
				return filter.Expression{}, fmt.Errorf("terms filter: %w", err)
			}
			conditions = append(conditions, cond)
		case f.Range != nil:
			r, err := filter.NewRangeBounds(f.Range.Gt, f.Range.Gte, f.Range.Lt, f.Range.Lte)
			if err != nil {
				return filter.Expression{}, fmt.Errorf("range filter: %w", err)
			}
			cond, err := filter.NewRange(f.Field, r)
			if err != nil {
				return filter.Expression{}, fmt.Errorf("range filter: %w", err)
			}
			conditions = append(conditions, cond)
		default:
			return filter.Expression{},
				fmt.Errorf("filter for %q must have either terms or range", f.Field)
		}
	}
	expr, err := filter.NewExpression(conditions)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter expression: %w", err)
	}
	return expr, nil
}
