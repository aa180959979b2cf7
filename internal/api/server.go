// Package api is the HTTP transport: it validates parameters, applies rate
// limits, and renders pipeline results as JSON. No scraping logic lives here.
package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FranksOps/grocer/internal/config"
	"github.com/FranksOps/grocer/internal/metrics"
	"github.com/FranksOps/grocer/internal/pricing"
	"github.com/FranksOps/grocer/pkg/ratelimit"
)

// Server holds the handler dependencies. Cache and limiter state are owned
// instances injected here, never package globals, so tests can build
// isolated servers.
type Server struct {
	cfg       *config.Config
	svc       *pricing.Service
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	startedAt time.Time
}

// NewServer creates the transport around an assembled pricing service.
func NewServer(cfg *config.Config, svc *pricing.Service, limiter *ratelimit.Limiter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		svc:       svc,
		limiter:   limiter,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/price", s.handlePrice)
	mux.HandleFunc("POST /api/batch", s.handleBatch)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// admit runs the rate check for one endpoint class, writing the 429 itself
// when the client is over budget.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, class ratelimit.Class) bool {
	client := clientKey(r)
	if s.limiter.Allow(client, class) {
		return true
	}

	retryAfter := int(math.Ceil(s.limiter.RetryAfter(client, class).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	metrics.RecordRateLimited(string(class))
	s.logger.Warn("rate limit exceeded", "client", client, "class", class)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":               "Rate limit exceeded",
		"message":             "Too many requests. Please try again later.",
		"retry_after_seconds": retryAfter,
	})
	return false
}

// clientKey identifies the caller for rate accounting. Without
// authentication the remote host is the only identity available.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
