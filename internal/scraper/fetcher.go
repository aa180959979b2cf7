// Package scraper performs the outbound search fetches against the
// aggregator site.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/grocer/internal/bypass"
	"github.com/FranksOps/grocer/internal/fingerprint"
	"github.com/FranksOps/grocer/internal/trolley"
	"github.com/FranksOps/grocer/pkg/httpclient"
	"github.com/FranksOps/grocer/pkg/useragent"
)

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	// BaseURL overrides the aggregator root, for tests.
	BaseURL     string
	Timeout     time.Duration
	UAPool      *useragent.Pool
	Fingerprint fingerprint.Profile
	// Transport overrides the fingerprint transport, for tests.
	Transport http.RoundTripper
}

// Fetcher issues search requests to the aggregator. It performs exactly one
// outbound call per Search and never retries internally; retry and pacing
// policy belong to the caller so backoff stays centrally controlled.
type Fetcher struct {
	config  FetchConfig
	client  *httpclient.Client
	baseURL string
}

// Response is the raw outcome of one search fetch.
type Response struct {
	ID        string
	URL       string
	Body      []byte
	Duration  time.Duration
	FetchedAt time.Time
}

// NewFetcher initializes a Fetcher. Holding a single client across requests
// keeps connection pooling effective for the lifetime of the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = trolley.BaseURL
	}

	transport := cfg.Transport
	if transport == nil {
		var err error
		transport, err = fingerprint.Transport(cfg.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("setup transport: %w", err)
		}
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 5,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client, baseURL: cfg.BaseURL}, nil
}

// SearchURL builds the search-results URL for a query.
func (f *Fetcher) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "relevance")
	return f.baseURL + "/search?" + params.Encode()
}

// Search fetches the search-results page for query and returns its body.
// Any network failure or non-2xx status yields a *FetchError.
func (f *Fetcher) Search(ctx context.Context, query string) (*Response, error) {
	target := f.SearchURL(query)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}

	req.Header.Set("User-Agent", f.config.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ferr := &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
		if source, blocked := bypass.Detect(resp.StatusCode, resp.Header, body); blocked {
			ferr.BlockedBy = source
		}
		return nil, ferr
	}

	return &Response{
		ID:        uuid.New().String(),
		URL:       target,
		Body:      body,
		Duration:  time.Since(start),
		FetchedAt: start.UTC(),
	}, nil
}
