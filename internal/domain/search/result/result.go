package result

import (
	"time"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
)

// Signal distinguishes independent scoring signals inside one modality.
type Signal string

const (
	// Lexical scores come from the backend's term-based scoring model.
	Lexical Signal = "lexical"
	// Semantic scores come from embedding similarity.
	Semantic Signal = "semantic"
)

// Source distinguishes a tenant's own documents from marketplace listings.
type Source string

const (
	// SourceTenant marks a hit from the tenant's own shards.
	SourceTenant Source = "tenant"
	// SourceMarketplace marks a hit from a cross-tenant marketplace shard.
	SourceMarketplace Source = "marketplace"
)

// Attribution tags backend hits with the modality context that produced them.
type Attribution struct {
	Modality      modality.Modality
	Signal        Signal
	Source        Source
	MatchedFields []string
}

// ModalityResult is a single backend hit attributed to one modality and shard.
type ModalityResult struct {
	itemID      string
	rawScore    float64
	attr        Attribution
	sourceShard string
	fields      map[string]string
}

// New creates a modality result. An empty attribution source defaults to
// SourceTenant.
func New(
	itemID string, rawScore float64, a Attribution,
	sourceShard string, fields map[string]string,
) ModalityResult {
	if a.Source == "" {
		a.Source = SourceTenant
	}
	return ModalityResult{
		itemID:      itemID,
		rawScore:    rawScore,
		attr:        a,
		sourceShard: sourceShard,
		fields:      fields,
	}
}

// ItemID returns the document identifier.
func (r *ModalityResult) ItemID() string { return r.itemID }

// RawScore returns the backend-native score.
func (r *ModalityResult) RawScore() float64 { return r.rawScore }

// Modality returns the modality that produced this hit.
func (r *ModalityResult) Modality() modality.Modality { return r.attr.Modality }

// Signal returns the scoring signal of this hit.
func (r *ModalityResult) Signal() Signal { return r.attr.Signal }

// Source reports whether the hit is a tenant document or a marketplace listing.
func (r *ModalityResult) Source() Source { return r.attr.Source }

// MatchedFields returns the field names that matched the query.
func (r *ModalityResult) MatchedFields() []string { return r.attr.MatchedFields }

// SourceShard returns the physical index this hit came from.
func (r *ModalityResult) SourceShard() string { return r.sourceShard }

// Fields returns the returned document fields.
func (r *ModalityResult) Fields() map[string]string { return r.fields }

// FusedResult is one entry of the final ranked list with its explanation.
type FusedResult struct {
	itemID        string
	combinedScore float64
	rank          int
	contributing  []modality.Modality
	normalized    map[modality.Modality]float64
	source        Source
	fields        map[string]string
}

// NewFused creates a fused result. An empty source defaults to SourceTenant.
func NewFused(
	itemID string, combinedScore float64, rank int,
	contributing []modality.Modality,
	normalized map[modality.Modality]float64,
	source Source,
	fields map[string]string,
) FusedResult {
	if source == "" {
		source = SourceTenant
	}
	return FusedResult{
		itemID:        itemID,
		combinedScore: combinedScore,
		rank:          rank,
		contributing:  contributing,
		normalized:    normalized,
		source:        source,
		fields:        fields,
	}
}

// ItemID returns the document identifier.
func (r *FusedResult) ItemID() string { return r.itemID }

// CombinedScore returns the weighted sum of normalized modality scores.
func (r *FusedResult) CombinedScore() float64 { return r.combinedScore }

// Rank returns the 1-based position in the fused list.
func (r *FusedResult) Rank() int { return r.rank }

// Contributing returns the modalities that matched this item, sorted.
func (r *FusedResult) Contributing() []modality.Modality { return r.contributing }

// NormalizedScores returns the per-modality normalized scores.
func (r *FusedResult) NormalizedScores() map[modality.Modality]float64 { return r.normalized }

// Source reports whether the item is a tenant document or a marketplace
// listing, taken from the strongest contributing hit.
func (r *FusedResult) Source() Source { return r.source }

// Fields returns the document fields carried from the strongest hit.
func (r *FusedResult) Fields() map[string]string { return r.fields }

// FacetCount is one bucket of an attribute facet aggregation.
type FacetCount struct {
	Field string
	Value string
	Count int64
}

// Page is one fully fused, ranked response page. Pages are what the result
// cache stores and returns.
type Page struct {
	Results   []FusedResult
	Facets    []FacetCount
	Total     int
	CreatedAt time.Time
}
