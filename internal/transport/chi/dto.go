package chi

import (
	"fmt"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/spec"
	searchuc "github.com/kailas-cloud/omnisearch/internal/usecase/search"
)

const defaultLimit = 10

// searchRequestBody is the JSON body shared by all search endpoints. The
// per-modality endpoints ignore the modalities field.
type searchRequestBody struct {
	Query              string          `json:"query,omitempty"`
	Modalities         []string        `json:"modalities,omitempty"`
	Filters            []filterDTO     `json:"filters,omitempty"`
	Specifications     []specDTO       `json:"specifications,omitempty"`
	Vector             []float32       `json:"vector,omitempty"`
	ImageRef           string          `json:"image_ref,omitempty"`
	K                  int             `json:"k,omitempty"`
	Offset             int             `json:"offset,omitempty"`
	Limit              int             `json:"limit,omitempty"`
	IncludeMarketplace bool            `json:"include_marketplace,omitempty"`
}

type filterDTO struct {
	Field string    `json:"field"`
	Terms []string  `json:"terms,omitempty"`
	Range *rangeDTO `json:"range,omitempty"`
}

type rangeDTO struct {
	Gt  *float64 `json:"gt,omitempty"`
	Gte *float64 `json:"gte,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

type specDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

type searchResponseBody struct {
	Items    []resultItemDTO `json:"items"`
	Facets   []facetItemDTO  `json:"facets,omitempty"`
	Total    int             `json:"total"`
	Offset   int             `json:"offset"`
	Limit    int             `json:"limit"`
	Warnings []string        `json:"warnings,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
}

type resultItemDTO struct {
	ID             string             `json:"id"`
	Score          float64            `json:"score"`
	Rank           int                `json:"rank"`
	Modalities     []string           `json:"modalities"`
	ModalityScores map[string]float64 `json:"modality_scores"`
	Source         string             `json:"source"`
	Fields         map[string]string  `json:"fields,omitempty"`
}

type facetItemDTO struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestFromBody builds a validated domain request. When mods is nil the
// modality set comes from the body (combined endpoint).
func requestFromBody(tenantID string, body searchRequestBody, mods []modality.Modality) (*request.Request, error) {
	if mods == nil {
		mods = make([]modality.Modality, 0, len(body.Modalities))
		for _, m := range body.Modalities {
			mods = append(mods, modality.Modality(m))
		}
	}

	filters, err := filtersFromDTO(body.Filters)
	if err != nil {
		return nil, err
	}

	specs := make([]spec.Constraint, 0, len(body.Specifications))
	for _, sd := range body.Specifications {
		c, err := spec.Parse(sd.Name, sd.Value, sd.Unit)
		if err != nil {
			return nil, err
		}
		specs = append(specs, c)
	}

	limit := body.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	return request.New(request.Params{
		TenantID:           tenantID,
		Modalities:         mods,
		QueryText:          body.Query,
		Filters:            filters,
		Specifications:     specs,
		Vector:             body.Vector,
		ImageRef:           body.ImageRef,
		K:                  body.K,
		Offset:             body.Offset,
		Limit:              limit,
		IncludeMarketplace: body.IncludeMarketplace,
	})
}

func filtersFromDTO(fs []filterDTO) (filter.Expression, error) {
	if len(fs) == 0 {
		return filter.Expression{}, nil
	}
	conditions := make([]filter.Condition, 0, len(fs))
	for _, f := range fs {
		if len(f.Terms) > 0 && f.Range != nil {
			return filter.Expression{},
				fmt.Errorf("filter for %q must have terms or range, not both", f.Field)
		}
		switch {
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

func responseToBody(resp *searchuc.Response, offset, limit int) searchResponseBody {
	items := make([]resultItemDTO, 0, len(resp.Results))
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
		items = append(items, resultItemDTO{
			ID:             r.ItemID(),
			Score:          r.CombinedScore(),
			Rank:           r.Rank(),
			Modalities:     mods,
			ModalityScores: scores,
			Source:         string(r.Source()),
			Fields:         r.Fields(),
		})
	}

	var facets []facetItemDTO
	for _, f := range resp.Facets {
		facets = append(facets, facetItemDTO{Field: f.Field, Value: f.Value, Count: f.Count})
	}

	return searchResponseBody{
		Items:    items,
		Facets:   facets,
		Total:    resp.Total,
		Offset:   offset,
		Limit:    limit,
		Warnings: resp.Warnings,
		Cached:   resp.Cached,
	}
}
