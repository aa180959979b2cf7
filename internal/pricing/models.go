// Package pricing owns the search pipeline: result cache, fetch+extract
// lookups, and batch orchestration. It is the only place concurrent request
// workers share state.
package pricing

import (
	"strings"
	"time"

	"github.com/FranksOps/grocer/internal/trolley"
)

// QueryResult is one normalized search outcome. Built fresh on every cache
// miss and immutable afterwards; Results preserves page order and never
// exceeds the maxResults the lookup was clamped to.
type QueryResult struct {
	Query             string                  `json:"query"`
	Results           []trolley.ProductRecord `json:"results"`
	ScrapeTimeSeconds float64                 `json:"scrape_time_seconds"`
	Timestamp         time.Time               `json:"timestamp"`
}

// NormalizeQuery case-folds and trims a raw search term so "Coca Cola" and
// "coca cola " address the same cache entry.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
