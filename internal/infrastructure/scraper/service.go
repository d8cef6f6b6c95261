package scraper

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ofertas-ar/backend/internal/domain"
)

// Source is one retail listing feed.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

// ServiceConfig holds configuration for the combined feed.
type ServiceConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration // per-source scrape deadline
}

// Service runs a query across every configured source. Results are cached
// per source for a short TTL so repeated identical searches do not hammer
// the sites. A failing source degrades to an empty list, never to a failed
// search.
type Service struct {
	preciosGamer Source
	hardGamers   Source
	cache        domain.CacheRepository
	cacheTTL     time.Duration
	timeout      time.Duration
}

// NewService creates the combined source feed. cache may be nil.
func NewService(preciosGamer, hardGamers Source, cache domain.CacheRepository, config ServiceConfig) *Service {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		preciosGamer: preciosGamer,
		hardGamers:   hardGamers,
		cache:        cache,
		cacheTTL:     cacheTTL,
		timeout:      timeout,
	}
}

// SearchAll implements domain.SourceFeed.
func (s *Service) SearchAll(ctx context.Context, query string) (*domain.SearchResults, error) {
	results := &domain.SearchResults{Query: query}

	results.PreciosGamer = s.searchSource(ctx, s.preciosGamer, query)
	results.HardGamers = s.searchSource(ctx, s.hardGamers, query)
	results.Total = len(results.PreciosGamer) + len(results.HardGamers)

	return results, nil
}

// searchSource runs one source with cache-first semantics.
func (s *Service) searchSource(ctx context.Context, source Source, query string) []domain.Product {
	key := cacheKey(source.Name(), query)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			log.Printf("[SCRAPER] %s: cache hit for %q (%d results)", source.Name(), query, len(cached))
			return cached
		}
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := source.Search(searchCtx, query)
	if err != nil {
		log.Printf("[SCRAPER] %s: search failed for %q: %v", source.Name(), query, err)
		return []domain.Product{}
	}
	log.Printf("[SCRAPER] %s: %d results for %q", source.Name(), len(products), query)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, products, s.cacheTTL); err != nil {
			log.Printf("[SCRAPER] %s: cache store failed: %v", source.Name(), err)
		}
	}
	return products
}

func cacheKey(source, query string) string {
	return source + ":" + strings.ToLower(strings.TrimSpace(query))
}
