package omnisearch

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix string

	marketplaceIndices []string
	marketplaceVectors bool

	embedder     Embedder
	embeddingDim int

	concurrency  int
	queryTimeout time.Duration

	cacheTTL time.Duration

	textWeight          float64
	attributeWeight     float64
	specificationWeight float64
	imageWeight         float64
	semanticWeight      float64

	defaultK     int
	facetLimit   int
	semanticText bool
	boosts       map[string]float64

	snapshotSize int
	staleness    time.Duration
	refreshEvery time.Duration

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the storage key prefix (default "omnisearch:").
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithMarketplace sets the deployment-wide marketplace indices. vectorEnabled
// declares whether those indices carry image vectors.
func WithMarketplace(indices []string, vectorEnabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.marketplaceIndices = indices
		c.marketplaceVectors = vectorEnabled
	})
}

// WithEmbedder sets the embedding provider for semantic text search and
// image reference embedding. dimensions is the provider's vector size.
func WithEmbedder(e Embedder, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embeddingDim = dimensions
	})
}

// WithExecutor tunes the fan-out concurrency and per-query timeout.
func WithExecutor(concurrency int, queryTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = concurrency
		c.queryTimeout = queryTimeout
	})
}

// WithResultCache enables the content-addressed result cache.
func WithResultCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithFusionWeights sets the per-modality fusion weights.
func WithFusionWeights(text, attribute, specification, image float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.textWeight = text
		c.attributeWeight = attribute
		c.specificationWeight = specification
		c.imageWeight = image
	})
}

// WithSemanticWeight blends semantic against lexical text scores, in (0, 1].
func WithSemanticWeight(w float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.semanticWeight = w
	})
}

// WithBoosts sets the default lexical field boosts.
func WithBoosts(boosts map[string]float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.boosts = boosts
	})
}

// WithSemanticText enables semantic companion queries for the text modality.
func WithSemanticText() Option {
	return optionFunc(func(c *clientConfig) {
		c.semanticText = true
	})
}

// WithRegistry tunes the tenant snapshot size, staleness window, and refresh
// interval.
func WithRegistry(snapshotSize int, staleness, refreshEvery time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotSize = snapshotSize
		c.staleness = staleness
		c.refreshEvery = refreshEvery
	})
}

// WithLogger sets the client logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}
