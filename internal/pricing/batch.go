package pricing

import (
	"context"
	"time"
)

// BatchItem is the outcome for one query in a batch: either a result or an
// error, never both.
type BatchItem struct {
	Query  string
	Result QueryResult
	Cached bool
	Err    error
}

// LookupBatch runs each query through the normal lookup path in order,
// pausing between real fetches so the batch never bursts the target site.
// Cache hits incur no delay. A failing query is recorded in its item and the
// batch continues; the only batch-level failures are the size checks, which
// happen before any work starts.
func (s *Service) LookupBatch(ctx context.Context, queries []string, maxResultsPerQuery int) ([]BatchItem, error) {
	if len(queries) == 0 {
		return nil, &BatchSizeError{Size: 0, Max: s.cfg.MaxBatchQueries}
	}
	if len(queries) > s.cfg.MaxBatchQueries {
		return nil, &BatchSizeError{Size: len(queries), Max: s.cfg.MaxBatchQueries}
	}

	items := make([]BatchItem, 0, len(queries))
	pending := false // a fetch happened and the pause hasn't been taken yet

	for _, query := range queries {
		norm := NormalizeQuery(query)
		if len(norm) < 2 {
			items = append(items, BatchItem{Query: query, Err: ErrQueryTooShort})
			continue
		}

		if pending {
			if err := sleepCtx(ctx, s.cfg.BatchDelay); err != nil {
				return items, err
			}
			pending = false
		}

		result, cached, err := s.Lookup(ctx, norm, maxResultsPerQuery)
		if err != nil {
			items = append(items, BatchItem{Query: query, Err: err})
			pending = true // the failed attempt still hit the site
			continue
		}

		items = append(items, BatchItem{Query: query, Result: result, Cached: cached})
		if !cached {
			pending = true
		}
	}

	return items, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
