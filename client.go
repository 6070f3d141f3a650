// Package omnisearch provides an embedded client for the multi-tenant
// multi-modal search engine backed by Redis with search modules.
//
//	client, _ := omnisearch.New(ctx, omnisearch.WithRedis("localhost:6379", ""))
//	resp, _ := client.Search(ctx, "acme", omnisearch.SearchRequest{
//	    Modalities: []omnisearch.Modality{omnisearch.Text},
//	    Query:      "stainless pump",
//	    Limit:      10,
//	})
package omnisearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/db"
	dbRedis "github.com/kailas-cloud/omnisearch/internal/db/redis"
	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	cacherepo "github.com/kailas-cloud/omnisearch/internal/repository/cache"
	searchrepo "github.com/kailas-cloud/omnisearch/internal/repository/search"
	tenantrepo "github.com/kailas-cloud/omnisearch/internal/repository/tenant"
	executoruc "github.com/kailas-cloud/omnisearch/internal/usecase/executor"
	fusionuc "github.com/kailas-cloud/omnisearch/internal/usecase/fusion"
	queryuc "github.com/kailas-cloud/omnisearch/internal/usecase/query"
	registryuc "github.com/kailas-cloud/omnisearch/internal/usecase/registry"
	routinguc "github.com/kailas-cloud/omnisearch/internal/usecase/routing"
	searchuc "github.com/kailas-cloud/omnisearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// searchUseCase is swapped in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (*searchuc.Response, error)
}

// Client is the omnisearch embedded entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	cancel    context.CancelFunc
}

// defaultClientConfig carries working defaults for every tunable, so
// New(ctx, WithRedis(...)) alone yields a functional client.
func defaultClientConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:    "omnisearch:",
		snapshotSize: 1024,
		staleness:    5 * time.Minute,
		refreshEvery: time.Minute,
		defaultK:     20,
		logger:       zap.NewNop(),
	}
}

// New creates an omnisearch Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("omnisearch: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("omnisearch: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("omnisearch: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	tenantRepo := tenantrepo.New(store, cfg.keyPrefix)
	searchRepo := searchrepo.New(store)

	registry := registryuc.New(
		tenantRepo, cfg.snapshotSize, cfg.staleness, cfg.refreshEvery, cfg.logger,
	)
	runCtx, cancel := context.WithCancel(context.Background())
	go registry.Run(runCtx)

	router := routinguc.New(cfg.marketplaceIndices)

	var embedder queryuc.Embedder
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}

	planner := queryuc.NewBuilders(embedder, queryuc.Config{
		DefaultK:           cfg.defaultK,
		DefaultBoosts:      cfg.boosts,
		SemanticText:       cfg.semanticText,
		VectorDim:          cfg.embeddingDim,
		FacetLimit:         cfg.facetLimit,
		MarketplaceVectors: cfg.marketplaceVectors,
	}, cfg.logger)

	exec := executoruc.New(searchRepo, cfg.concurrency, cfg.queryTimeout, cfg.logger)

	fuser := fusionuc.New(fusionuc.Config{
		Weights: fusionuc.WeightsFromConfig(
			cfg.textWeight, cfg.attributeWeight, cfg.specificationWeight, cfg.imageWeight,
		),
		SemanticWeight: cfg.semanticWeight,
	})

	var cache searchuc.ResultCache
	if cfg.cacheTTL > 0 {
		cache = cacherepo.New(store, cfg.keyPrefix, cfg.cacheTTL)
	}

	searchSvc := searchuc.New(registry, router, planner, exec, fuser, cache, cfg.logger)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		cancel:    cancel,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Embedder vectorizes text and image references for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult holds an embedding vector and provider token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// embedderAdapter wraps the public Embedder to satisfy the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:   r.Embedding,
		TotalTokens: r.TotalTokens,
	}, nil
}
