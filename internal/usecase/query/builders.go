package query

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/domain/tenant"
)

// Config tunes query planning.
type Config struct {
	// DefaultK is the neighbor count for image search when the request
	// does not set one.
	DefaultK int
	// DefaultBoosts are the text field weights used when a tenant has
	// no boost configuration of its own.
	DefaultBoosts map[string]float64
	// SemanticText enables the embedding companion signal for text search.
	SemanticText bool
	// VectorDim is the embedding dimensionality every vector must match.
	VectorDim int
	// FacetLimit caps the number of buckets per facet field.
	FacetLimit int
	// MarketplaceVectors reports whether marketplace shards carry vectors.
	MarketplaceVectors bool
}

// Builders plans per-modality shard queries.
type Builders struct {
	embed  Embedder
	cfg    Config
	logger *zap.Logger
}

// NewBuilders creates the query planner. embed may be nil; image search then
// requires a precomputed vector and text search stays purely lexical.
func NewBuilders(embed Embedder, cfg Config, logger *zap.Logger) *Builders {
	return &Builders{embed: embed, cfg: cfg, logger: logger}
}

// Build plans every (modality, shard) query for one request. A modality that
// cannot be planned is reported as a failure without aborting the others;
// only a malformed request aborts the whole build.
func (b *Builders) Build(
	ctx context.Context, req *request.Request, cfg tenant.Config, shards []tenant.Shard,
) ([]ShardQuery, []BuildFailure, error) {
	topK := req.Offset() + req.Limit()
	if topK > cfg.MaxResults() {
		topK = cfg.MaxResults()
	}
	filters := withDefaultFilters(req.Filters(), cfg.DefaultFilters())

	var (
		queries  []ShardQuery
		failures []BuildFailure
	)

	for _, m := range req.Modalities() {
		switch m {
		case modality.Text:
			qs, fail := b.buildText(ctx, req, cfg, shards, filters, topK)
			queries = append(queries, qs...)
			if fail != nil {
				failures = append(failures, *fail)
			}
		case modality.Attribute:
			queries = append(queries, b.buildAttribute(req, shards, filters, topK)...)
		case modality.Specification:
			qs, fail := b.buildSpecification(req, shards, filters, topK)
			queries = append(queries, qs...)
			if fail != nil {
				failures = append(failures, *fail)
			}
		case modality.Image:
			qs, fail, err := b.buildImage(ctx, req, cfg, shards, filters)
			if err != nil {
				return nil, nil, err
			}
			queries = append(queries, qs...)
			if fail != nil {
				failures = append(failures, *fail)
			}
		}
	}

	return queries, failures, nil
}

// buildText plans one fuzzy lexical query per shard, plus a semantic
// companion on vector-capable shards when an embedder is configured. An
// embedding outage degrades text search to lexical-only.
func (b *Builders) buildText(
	ctx context.Context, req *request.Request, cfg tenant.Config,
	shards []tenant.Shard, filters filter.Expression, topK int,
) ([]ShardQuery, *BuildFailure) {
	boosts := cfg.BoostFields()
	if len(boosts) == 0 {
		boosts = b.cfg.DefaultBoosts
	}
	matched := sortedFields(boosts)

	queries := make([]ShardQuery, 0, len(shards))
	for _, sh := range shards {
		queries = append(queries, ShardQuery{
			Modality:      modality.Text,
			Signal:        result.Lexical,
			Shard:         sh,
			MatchedFields: matched,
			Text: &db.TextQuery{
				Index:     sh.Index(),
				Query:     req.QueryText(),
				Boosts:    boosts,
				Fuzzy:     true,
				Filters:   filters,
				Isolation: isolationFor(sh, req.TenantID()),
				TopK:      topK,
			},
		})
	}

	if b.embed == nil || !b.cfg.SemanticText {
		return queries, nil
	}

	emb, err := b.embed.Embed(ctx, req.QueryText())
	if err != nil {
		b.logger.Warn("text embedding failed, lexical only", zap.Error(err))
		return queries, &BuildFailure{
			Modality: modality.Text,
			Err:      fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err),
		}
	}

	for _, sh := range b.vectorShards(cfg, shards) {
		queries = append(queries, ShardQuery{
			Modality:      modality.Text,
			Signal:        result.Semantic,
			Shard:         sh,
			MatchedFields: matched,
			KNN: &db.KNNQuery{
				Index:     sh.Index(),
				Vector:    emb.Embedding,
				K:         topK,
				Filters:   filters,
				Isolation: isolationFor(sh, req.TenantID()),
			},
		})
	}
	return queries, nil
}

// buildAttribute plans one filter-only query per shard with facet counts for
// every term field the caller filtered on.
func (b *Builders) buildAttribute(
	req *request.Request, shards []tenant.Shard, filters filter.Expression, topK int,
) []ShardQuery {
	fields := termFields(req.Filters())

	queries := make([]ShardQuery, 0, len(shards))
	for _, sh := range shards {
		iso := isolationFor(sh, req.TenantID())

		facets := make([]*db.FacetQuery, 0, len(fields))
		for _, f := range fields {
			facets = append(facets, &db.FacetQuery{
				Index:     sh.Index(),
				Field:     f,
				Filters:   filters,
				Isolation: iso,
				Limit:     b.cfg.FacetLimit,
			})
		}

		queries = append(queries, ShardQuery{
			Modality:      modality.Attribute,
			Signal:        result.Lexical,
			Shard:         sh,
			MatchedFields: fields,
			Facets:        facets,
			Filter: &db.FilterQuery{
				Index:     sh.Index(),
				Filters:   filters,
				Isolation: iso,
				TopK:      topK,
			},
		})
	}
	return queries
}

// buildSpecification converts each constraint into a tolerance-window range
// on the canonical spec field, with a unit guard when the constraint carries
// a unit.
func (b *Builders) buildSpecification(
	req *request.Request, shards []tenant.Shard, filters filter.Expression, topK int,
) ([]ShardQuery, *BuildFailure) {
	conds := make([]filter.Condition, 0, 2*len(req.Specifications()))
	matched := make([]string, 0, len(req.Specifications()))

	for _, c := range req.Specifications() {
		field := "spec_" + c.Name()
		lo, hi := c.Window()
		rc, err := filter.NewRange(field, filter.Between(lo, hi))
		if err != nil {
			return nil, &BuildFailure{
				Modality: modality.Specification,
				Err:      fmt.Errorf("specification %s: %w", c.Name(), err),
			}
		}
		conds = append(conds, rc)
		matched = append(matched, field)

		if c.Unit() != "" {
			uc, err := filter.NewTerms(field+"_unit", []string{c.Unit()})
			if err != nil {
				return nil, &BuildFailure{
					Modality: modality.Specification,
					Err:      fmt.Errorf("specification %s unit: %w", c.Name(), err),
				}
			}
			conds = append(conds, uc)
		}
	}
	sort.Strings(matched)
	specFilters := filters.Append(conds...)

	queries := make([]ShardQuery, 0, len(shards))
	for _, sh := range shards {
		queries = append(queries, ShardQuery{
			Modality:      modality.Specification,
			Signal:        result.Lexical,
			Shard:         sh,
			MatchedFields: matched,
			Filter: &db.FilterQuery{
				Index:     sh.Index(),
				Filters:   specFilters,
				Isolation: isolationFor(sh, req.TenantID()),
				TopK:      topK,
			},
		})
	}
	return queries, nil
}

// buildImage plans a KNN query per vector-capable shard. Shards without
// vector data are skipped; a dimensionality mismatch aborts the request.
func (b *Builders) buildImage(
	ctx context.Context, req *request.Request, cfg tenant.Config,
	shards []tenant.Shard, filters filter.Expression,
) ([]ShardQuery, *BuildFailure, error) {
	vector := req.Vector()
	if len(vector) == 0 {
		if b.embed == nil {
			return nil, &BuildFailure{
				Modality: modality.Image,
				Err:      fmt.Errorf("image reference given but no embedder configured: %w", domain.ErrEmbeddingProviderError),
			}, nil
		}
		emb, err := b.embed.Embed(ctx, req.ImageRef())
		if err != nil {
			return nil, &BuildFailure{
				Modality: modality.Image,
				Err:      fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err),
			}, nil
		}
		vector = emb.Embedding
	}

	if b.cfg.VectorDim > 0 && len(vector) != b.cfg.VectorDim {
		return nil, nil, fmt.Errorf(
			"%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), b.cfg.VectorDim,
		)
	}

	k := req.K()
	if k <= 0 {
		k = b.cfg.DefaultK
	}

	capable := b.vectorShards(cfg, shards)
	if len(capable) == 0 {
		return nil, &BuildFailure{
			Modality: modality.Image,
			Err:      fmt.Errorf("no vector-capable shards: %w", domain.ErrNoShardsAvailable),
		}, nil
	}

	queries := make([]ShardQuery, 0, len(capable))
	for _, sh := range capable {
		queries = append(queries, ShardQuery{
			Modality: modality.Image,
			Signal:   result.Semantic,
			Shard:    sh,
			KNN: &db.KNNQuery{
				Index:     sh.Index(),
				Vector:    vector,
				K:         k,
				Filters:   filters,
				Isolation: isolationFor(sh, req.TenantID()),
			},
		})
	}
	return queries, nil, nil
}

// vectorShards keeps the shards that carry vector data.
func (b *Builders) vectorShards(cfg tenant.Config, shards []tenant.Shard) []tenant.Shard {
	out := make([]tenant.Shard, 0, len(shards))
	for _, sh := range shards {
		switch sh.Role() {
		case tenant.RoleMarketplace:
			if b.cfg.MarketplaceVectors {
				out = append(out, sh)
			}
		default:
			if cfg.VectorEnabled() {
				out = append(out, sh)
			}
		}
	}
	return out
}

// withDefaultFilters appends the tenant's implicit attribute filters to the
// request's own. Fields are added in sorted order so plans are reproducible.
func withDefaultFilters(base filter.Expression, defaults map[string][]string) filter.Expression {
	if len(defaults) == 0 {
		return base
	}
	fields := make([]string, 0, len(defaults))
	for f := range defaults {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]filter.Condition, 0, len(fields))
	for _, f := range fields {
		c, err := filter.NewTerms(f, defaults[f])
		if err != nil {
			continue
		}
		conds = append(conds, c)
	}
	return base.Append(conds...)
}

// termFields returns the unique term-condition fields of an expression,
// sorted.
func termFields(expr filter.Expression) []string {
	seen := make(map[string]struct{})
	for _, c := range expr.Conditions() {
		if c.IsTerms() {
			seen[c.Field()] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func sortedFields(m map[string]float64) []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
