package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FranksOps/grocer/internal/metrics"
	"github.com/FranksOps/grocer/internal/scraper"
	"github.com/FranksOps/grocer/internal/trolley"
)

// Searcher fetches the raw search-results page for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*scraper.Response, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// MaxResultsCeiling caps the per-query result count no matter what the
	// caller requests.
	MaxResultsCeiling int
	// RetryBackoff is the pause before the single bounded retry of a failed
	// fetch. Zero disables the retry.
	RetryBackoff time.Duration
	// BatchDelay is the pause inserted after each real fetch during a batch.
	BatchDelay time.Duration
	// MaxBatchQueries caps the number of queries accepted in one batch.
	MaxBatchQueries int
	Logger          *slog.Logger
}

// Service runs the lookup pipeline: cache check, fetch, extract, cache
// store. Concurrent misses on the same key collapse into a single in-flight
// fetch so identical queries never stampede the target site.
type Service struct {
	cfg     ServiceConfig
	fetcher Searcher
	cache   *Cache
	group   singleflight.Group
	logger  *slog.Logger
}

// NewService wires the pipeline together.
func NewService(cfg ServiceConfig, fetcher Searcher, cache *Cache) *Service {
	if cfg.MaxResultsCeiling <= 0 {
		cfg.MaxResultsCeiling = 20
	}
	if cfg.MaxBatchQueries <= 0 {
		cfg.MaxBatchQueries = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{cfg: cfg, fetcher: fetcher, cache: cache, logger: cfg.Logger}
}

// ClampMaxResults bounds a requested result count to [1, ceiling].
func (s *Service) ClampMaxResults(maxResults int) int {
	if maxResults < 1 {
		return 1
	}
	return min(maxResults, s.cfg.MaxResultsCeiling)
}

// Lookup returns price results for query, serving from cache when a fresh
// entry exists. The second return reports whether the result came from
// cache. An extraction that finds no products is a valid empty result.
func (s *Service) Lookup(ctx context.Context, query string, maxResults int) (QueryResult, bool, error) {
	norm := NormalizeQuery(query)
	if len(norm) < 2 {
		return QueryResult{}, false, ErrQueryTooShort
	}
	maxResults = s.ClampMaxResults(maxResults)

	if result, ok := s.cache.Get(norm, maxResults); ok {
		metrics.RecordLookup("hit")
		s.logger.Debug("cache hit", "query", norm, "max_results", maxResults)
		return result, true, nil
	}

	key := fmt.Sprintf("%s\x00%d", norm, maxResults)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.scrape(ctx, norm, maxResults)
	})
	if err != nil {
		metrics.RecordLookup("error")
		return QueryResult{}, false, err
	}

	metrics.RecordLookup("miss")
	return v.(QueryResult), false, nil
}

// scrape performs the actual fetch+extract for a cache miss, with one
// bounded retry on fetch failure.
func (s *Service) scrape(ctx context.Context, norm string, maxResults int) (QueryResult, error) {
	resp, err := s.fetcher.Search(ctx, norm)
	if err != nil && s.cfg.RetryBackoff > 0 && isRetryable(err) {
		s.logger.Warn("fetch failed, retrying once",
			"query", norm, "backoff", s.cfg.RetryBackoff, "error", err)
		select {
		case <-time.After(s.cfg.RetryBackoff):
		case <-ctx.Done():
			return QueryResult{}, ctx.Err()
		}
		resp, err = s.fetcher.Search(ctx, norm)
	}
	if err != nil {
		s.logger.Error("fetch failed", "query", norm, "error", err)
		return QueryResult{}, err
	}

	records, err := trolley.Extract(resp.Body, maxResults)
	if err != nil {
		s.logger.Error("extraction failed", "query", norm, "scrape_id", resp.ID, "error", err)
		return QueryResult{}, fmt.Errorf("extract results: %w", err)
	}
	if records == nil {
		records = []trolley.ProductRecord{}
	}

	metrics.ObserveScrape(resp.Duration, len(records))
	s.logger.Info("scraped search results",
		"query", norm,
		"scrape_id", resp.ID,
		"products", len(records),
		"duration", resp.Duration,
	)

	result := QueryResult{
		Query:             norm,
		Results:           records,
		ScrapeTimeSeconds: math.Round(resp.Duration.Seconds()*100) / 100,
		Timestamp:         resp.FetchedAt,
	}
	s.cache.Set(norm, maxResults, result)
	return result, nil
}

// CacheSize reports the number of cached result sets.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// ClearCache empties the result cache and returns the entry count removed.
func (s *Service) ClearCache() int {
	return s.cache.Purge()
}

func isRetryable(err error) bool {
	var ferr *scraper.FetchError
	// A recognized block page won't clear up in half a second; retrying just
	// burns another request against the protection layer.
	return errors.As(err, &ferr) && ferr.BlockedBy == ""
}
