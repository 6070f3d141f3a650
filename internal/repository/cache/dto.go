package cache

import (
	"time"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
)

// entryDTO is the stored JSON shape of a cached fused page.
type entryDTO struct {
	Results   []fusedDTO `json:"results"`
	Facets    []facetDTO `json:"facets,omitempty"`
	Total     int        `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	TTLSec    int        `json:"ttl_sec"`
}

type fusedDTO struct {
	ItemID        string             `json:"item_id"`
	CombinedScore float64            `json:"combined_score"`
	Rank          int                `json:"rank"`
	Modalities    []string           `json:"modalities"`
	Normalized    map[string]float64 `json:"normalized_scores"`
	Source        string             `json:"source,omitempty"`
	Fields        map[string]string  `json:"fields,omitempty"`
}

type facetDTO struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int64  `json:"count"`
}

func toEntryDTO(e result.Page, ttl time.Duration) entryDTO {
	dto := entryDTO{
		Results:   make([]fusedDTO, 0, len(e.Results)),
		Total:     e.Total,
		CreatedAt: e.CreatedAt,
		TTLSec:    int(ttl.Seconds()),
	}
	for i := range e.Results {
		r := &e.Results[i]
		mods := make([]string, 0, len(r.Contributing()))
		for _, m := range r.Contributing() {
			mods = append(mods, string(m))
		}
		norm := make(map[string]float64, len(r.NormalizedScores()))
		for m, s := range r.NormalizedScores() {
			norm[string(m)] = s
		}
		dto.Results = append(dto.Results, fusedDTO{
			ItemID:        r.ItemID(),
			CombinedScore: r.CombinedScore(),
			Rank:          r.Rank(),
			Modalities:    mods,
			Normalized:    norm,
			Source:        string(r.Source()),
			Fields:        r.Fields(),
		})
	}
	for _, f := range e.Facets {
		dto.Facets = append(dto.Facets, facetDTO{Field: f.Field, Value: f.Value, Count: f.Count})
	}
	return dto
}

func fromEntryDTO(dto entryDTO) result.Page {
	e := result.Page{
		Results:   make([]result.FusedResult, 0, len(dto.Results)),
		Total:     dto.Total,
		CreatedAt: dto.CreatedAt,
	}
	for _, r := range dto.Results {
		mods := make([]modality.Modality, 0, len(r.Modalities))
		for _, m := range r.Modalities {
			mods = append(mods, modality.Modality(m))
		}
		norm := make(map[modality.Modality]float64, len(r.Normalized))
		for m, s := range r.Normalized {
			norm[modality.Modality(m)] = s
		}
		e.Results = append(e.Results, result.NewFused(
			r.ItemID, r.CombinedScore, r.Rank, mods, norm, result.Source(r.Source), r.Fields,
		))
	}
	for _, f := range dto.Facets {
		e.Facets = append(e.Facets, result.FacetCount{Field: f.Field, Value: f.Value, Count: f.Count})
	}
	return e
}
