// Package executor fans shard queries out concurrently and collects results
// with partial-failure tolerance. One slow or broken shard degrades the
// response instead of failing it; only a fully failed search is an error.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
	"github.com/kailas-cloud/omnisearch/internal/usecase/query"
)

// Failure records one query that did not complete.
type Failure struct {
	Modality modality.Modality
	Shard    string
	Err      error
}

// Warning renders the failure for the response warnings list.
func (f Failure) Warning() string {
	if errors.Is(f.Err, domain.ErrModalityTimeout) {
		return fmt.Sprintf("%s: timeout on %s", f.Modality, f.Shard)
	}
	return fmt.Sprintf("%s: %v", f.Modality, f.Err)
}

// Outcome is the collected fan-out state handed to fusion.
type Outcome struct {
	Results  []result.ModalityResult
	Facets   []result.FacetCount
	Failures []Failure
}

// Service executes shard queries with bounded concurrency.
type Service struct {
	repo        Repository
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a fan-out executor. timeout bounds each individual shard query.
func New(repo Repository, concurrency int, timeout time.Duration, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = 8
	}
	if timeout <= 0 {
		timeout = 800 * time.Millisecond
	}
	return &Service{repo: repo, concurrency: concurrency, timeout: timeout, logger: logger}
}

// Execute runs every query concurrently and collects hits, facet counts, and
// failures. It returns ErrAllModalitiesFailed only when no modality produced
// a single successful query.
func (s *Service) Execute(ctx context.Context, queries []query.ShardQuery) (*Outcome, error) {
	if len(queries) == 0 {
		return &Outcome{}, nil
	}

	var (
		mu      sync.Mutex
		out     Outcome
		succeed = make(map[modality.Modality]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, q := range queries {
		q := q
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			hits, facets, err := s.dispatch(qctx, q)
			if err != nil {
				// A canceled parent aborts the whole fan-out; a single
				// query failure is recorded and tolerated.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failure := Failure{Modality: q.Modality, Shard: q.Shard.Index(), Err: classify(err)}
				s.logger.Warn("shard query failed",
					zap.String("modality", string(q.Modality)),
					zap.String("shard", q.Shard.Index()),
					zap.Error(err),
				)
				mu.Lock()
				out.Failures = append(out.Failures, failure)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			out.Results = append(out.Results, hits...)
			out.Facets = append(out.Facets, facets...)
			succeed[q.Modality] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(succeed) == 0 {
		return nil, fmt.Errorf("%w: %d queries failed", domain.ErrAllModalitiesFailed, len(out.Failures))
	}

	sortFailures(out.Failures)
	return &out, nil
}

// dispatch routes one shard query to its repository method. Facet queries
// ride along with their parent; a facet error does not fail the parent hit
// list.
func (s *Service) dispatch(ctx context.Context, q query.ShardQuery) ([]result.ModalityResult, []result.FacetCount, error) {
	var (
		hits []result.ModalityResult
		err  error
	)

	switch {
	case q.Text != nil:
		hits, err = s.repo.SearchText(ctx, q.Text, q.Attribution())
	case q.Filter != nil:
		hits, err = s.repo.SearchFilter(ctx, q.Filter, q.Attribution())
	case q.KNN != nil:
		hits, err = s.repo.SearchKNN(ctx, q.KNN, q.Attribution())
	default:
		return nil, nil, fmt.Errorf("shard query for %s has no native query", q.Modality)
	}
	if err != nil {
		return nil, nil, err
	}

	var facets []result.FacetCount
	for _, fq := range q.Facets {
		counts, ferr := s.repo.Facets(ctx, fq)
		if ferr != nil {
			s.logger.Warn("facet query failed",
				zap.String("shard", fq.Index), zap.String("field", fq.Field), zap.Error(ferr))
			continue
		}
		facets = append(facets, counts...)
	}
	return hits, facets, nil
}

// classify folds backend errors into the two failure kinds the response
// distinguishes.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrModalityTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrModalityBackend, err)
}

// sortFailures orders failures for stable warning output.
func sortFailures(failures []Failure) {
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Modality != failures[j].Modality {
			return failures[i].Modality < failures[j].Modality
		}
		return failures[i].Shard < failures[j].Shard
	})
}
