package papersources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/citation-service/internal/domain"
)

// SourceResult holds the outcome of one source search.
type SourceResult struct {
	// Source identifies the source that was queried.
	Source domain.SourceType

	// Result is never nil; a failed search yields an empty result.
	Result *SearchResult

	// Error records why the source contributed nothing, if it failed.
	Error error
}

// Registry manages article sources and coordinates concurrent searches.
// It provides thread-safe registration and retrieval of sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]ArticleSource
}

// NewRegistry creates a new source registry with an empty source map.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]ArticleSource),
	}
}

// Register adds a source to the registry.
// If a source with the same type already exists, it will be replaced.
func (r *Registry) Register(source ArticleSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not found.
func (r *Registry) Get(sourceType domain.SourceType) ArticleSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// AllSources returns all registered sources in domain.SourcePriority order.
func (r *Registry) AllSources() []ArticleSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]ArticleSource, 0, len(r.sources))
	for _, st := range domain.SourcePriority {
		if s, ok := r.sources[st]; ok {
			sources = append(sources, s)
		}
	}
	return sources
}

// EnabledSources returns only enabled sources, in priority order.
func (r *Registry) EnabledSources() []ArticleSource {
	all := r.AllSources()
	sources := make([]ArticleSource, 0, len(all))
	for _, s := range all {
		if s.IsEnabled() {
			sources = append(sources, s)
		}
	}
	return sources
}

// SearchAll runs every params entry against the source named by its query,
// concurrently. Results come back in the order of params. A missing,
// disabled, failing or panicking source yields an empty result with Error
// set; SearchAll itself never fails.
func (r *Registry) SearchAll(ctx context.Context, params []SearchParams) []SourceResult {
	results := make([]SourceResult, len(params))

	var g errgroup.Group
	for i, p := range params {
		st := p.Query.Source
		results[i] = SourceResult{Source: st, Result: &SearchResult{Source: st}}

		source := r.Get(st)
		if source == nil || !source.IsEnabled() {
			results[i].Error = fmt.Errorf("%s: %w", st, domain.ErrSourceDisabled)
			continue
		}

		g.Go(func() error {
			res, err := runSearch(ctx, source, p)
			if res != nil {
				results[i].Result = res
			}
			results[i].Error = err
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runSearch(ctx context.Context, source ArticleSource, params SearchParams) (res *SearchResult, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = domain.NewInternalError(source.Name(), fmt.Errorf("panic: %v", rec))
		}
	}()

	res, err = source.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &SearchResult{Source: source.SourceType()}
	}
	if res.SearchDuration == 0 {
		res.SearchDuration = time.Since(start)
	}
	return res, nil
}
