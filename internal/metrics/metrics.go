// Package metrics exposes Prometheus instrumentation for the price API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocer_lookups_total",
			Help: "Total price lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	ScrapeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grocer_scrape_duration_seconds",
			Help:    "Duration of upstream search fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	ProductsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grocer_products_extracted_total",
			Help: "Total product records extracted from search pages",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocer_ratelimit_rejections_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		},
		[]string{"class"},
	)
)

// RecordLookup counts one lookup with the given outcome.
func RecordLookup(outcome string) {
	LookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveScrape records one completed upstream fetch.
func ObserveScrape(d time.Duration, products int) {
	ScrapeDuration.Observe(d.Seconds())
	ProductsExtracted.Add(float64(products))
}

// RecordRateLimited counts one 429 for the endpoint class.
func RecordRateLimited(class string) {
	RateLimitRejections.WithLabelValues(class).Inc()
}
