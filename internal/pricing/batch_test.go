package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FranksOps/grocer/internal/scraper"
)

func TestLookupBatch_PartialFailure(t *testing.T) {
	stub := newStubSearcher()
	stub.pages["coca cola"] = productPage(2)
	stub.pages["sprite"] = productPage(1)
	stub.errs["pepsi"] = []error{
		&scraper.FetchError{URL: "u", Err: errors.New("down")},
		&scraper.FetchError{URL: "u", Err: errors.New("down")},
	}
	svc := newTestService(stub, ServiceConfig{RetryBackoff: time.Millisecond})

	items, err := svc.LookupBatch(context.Background(), []string{"coca cola", "pepsi", "sprite"}, 3)
	if err != nil {
		t.Fatalf("batch should not fail as a whole: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].Err != nil || len(items[0].Result.Results) != 2 {
		t.Errorf("item 0: %+v", items[0])
	}
	if items[1].Err == nil {
		t.Error("item 1 should carry the fetch error")
	}
	if items[2].Err != nil || len(items[2].Result.Results) != 1 {
		t.Errorf("item 2: %+v", items[2])
	}
}

func TestLookupBatch_OrderPreserved(t *testing.T) {
	stub := newStubSearcher()
	queries := []string{"milk", "bread", "eggs"}
	for _, q := range queries {
		stub.pages[q] = productPage(1)
	}
	svc := newTestService(stub, ServiceConfig{})

	items, err := svc.LookupBatch(context.Background(), queries, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, q := range queries {
		if items[i].Query != q {
			t.Errorf("item %d query = %q, want %q", i, items[i].Query, q)
		}
	}
}

func TestLookupBatch_SizeLimits(t *testing.T) {
	svc := newTestService(newStubSearcher(), ServiceConfig{MaxBatchQueries: 10})

	var sizeErr *BatchSizeError
	if _, err := svc.LookupBatch(context.Background(), nil, 3); !errors.As(err, &sizeErr) {
		t.Errorf("empty batch: expected BatchSizeError, got %v", err)
	}

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "query"
	}
	if _, err := svc.LookupBatch(context.Background(), tooMany, 3); !errors.As(err, &sizeErr) {
		t.Errorf("oversized batch: expected BatchSizeError, got %v", err)
	}
}

func TestLookupBatch_ShortQueryBecomesItemError(t *testing.T) {
	stub := newStubSearcher()
	stub.pages["milk"] = productPage(1)
	svc := newTestService(stub, ServiceConfig{})

	items, err := svc.LookupBatch(context.Background(), []string{"x", "milk"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(items[0].Err, ErrQueryTooShort) {
		t.Errorf("item 0 err = %v, want ErrQueryTooShort", items[0].Err)
	}
	if items[1].Err != nil {
		t.Errorf("item 1 should succeed: %v", items[1].Err)
	}
}

func TestLookupBatch_NoDelayBetweenCacheHits(t *testing.T) {
	stub := newStubSearcher()
	stub.pages["milk"] = productPage(1)
	stub.pages["bread"] = productPage(1)
	svc := newTestService(stub, ServiceConfig{BatchDelay: 200 * time.Millisecond})

	// Warm the cache so the batch is all hits.
	if _, _, err := svc.Lookup(context.Background(), "milk", 2); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Lookup(context.Background(), "bread", 2); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	items, err := svc.LookupBatch(context.Background(), []string{"milk", "bread"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("cache-hit batch paused for %v", elapsed)
	}
	for i, item := range items {
		if !item.Cached {
			t.Errorf("item %d should be served from cache", i)
		}
	}
}

func TestLookupBatch_DelayBetweenFetches(t *testing.T) {
	stub := newStubSearcher()
	stub.pages["milk"] = productPage(1)
	stub.pages["bread"] = productPage(1)
	svc := newTestService(stub, ServiceConfig{BatchDelay: 60 * time.Millisecond})

	start := time.Now()
	if _, err := svc.LookupBatch(context.Background(), []string{"milk", "bread"}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected inter-fetch delay, batch finished in %v", elapsed)
	}
}

func TestLookupBatch_CancelledContextStops(t *testing.T) {
	stub := newStubSearcher()
	stub.pages["milk"] = productPage(1)
	stub.pages["bread"] = productPage(1)
	svc := newTestService(stub, ServiceConfig{BatchDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	items, err := svc.LookupBatch(ctx, []string{"milk", "bread"}, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the completed item back, got %d", len(items))
	}
}
