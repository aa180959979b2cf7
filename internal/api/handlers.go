package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/grocer/internal/pricing"
	"github.com/FranksOps/grocer/internal/trolley"
	"github.com/FranksOps/grocer/pkg/ratelimit"
)

type resultMetadata struct {
	TotalResults      int       `json:"total_results"`
	MaxResults        int       `json:"max_results"`
	ScrapeTimeSeconds float64   `json:"scrape_time_seconds"`
	Timestamp         time.Time `json:"timestamp"`
	Cached            bool      `json:"cached"`
}

type priceResponse struct {
	Query    string                  `json:"query"`
	Results  []trolley.ProductRecord `json:"results"`
	Metadata resultMetadata          `json:"metadata"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, ratelimit.ClassSingle) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing required parameter 'query'",
			"example": "/api/price?query=coca cola",
		})
		return
	}

	maxResults := s.cfg.DefaultMaxResults
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Invalid parameter value",
				"message": "max_results must be an integer",
			})
			return
		}
		maxResults = parsed
	}
	maxResults = s.svc.ClampMaxResults(maxResults)

	start := time.Now()
	result, cached, err := s.svc.Lookup(r.Context(), query, maxResults)
	if err != nil {
		s.writeLookupError(w, query, time.Since(start), err)
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{
		Query:   result.Query,
		Results: result.Results,
		Metadata: resultMetadata{
			TotalResults:      len(result.Results),
			MaxResults:        maxResults,
			ScrapeTimeSeconds: result.ScrapeTimeSeconds,
			Timestamp:         result.Timestamp,
			Cached:            cached,
		},
	})
}

type batchRequest struct {
	Queries            []string `json:"queries"`
	MaxResultsPerQuery int      `json:"max_results_per_query"`
}

type batchItem struct {
	Query    string                  `json:"query"`
	Results  []trolley.ProductRecord `json:"results,omitempty"`
	Metadata *resultMetadata         `json:"metadata,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

type batchResponse struct {
	Results  []batchItem   `json:"results"`
	Metadata batchMetadata `json:"metadata"`
}

type batchMetadata struct {
	TotalQueries      int       `json:"total_queries"`
	SuccessfulQueries int       `json:"successful_queries"`
	Timestamp         time.Time `json:"timestamp"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, ratelimit.ClassBatch) {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid JSON body",
			"example": map[string]any{"queries": []string{"coca cola", "pepsi"}},
		})
		return
	}
	if len(req.Queries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing 'queries' in request body",
			"example": map[string]any{"queries": []string{"coca cola", "pepsi"}},
		})
		return
	}

	maxPer := req.MaxResultsPerQuery
	if maxPer <= 0 {
		maxPer = 3
	}
	maxPer = min(maxPer, 10)

	items, err := s.svc.LookupBatch(r.Context(), req.Queries, maxPer)
	if err != nil {
		var sizeErr *pricing.BatchSizeError
		if errors.As(err, &sizeErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": sizeErr.Error()})
			return
		}
		// Context cancellation mid-batch; the client is gone anyway.
		s.logger.Warn("batch aborted", "error", err)
		writeJSON(w, http.StatusInternalServerError, genericError())
		return
	}

	resp := batchResponse{
		Results: make([]batchItem, 0, len(items)),
		Metadata: batchMetadata{
			TotalQueries: len(items),
			Timestamp:    time.Now().UTC(),
		},
	}
	for _, item := range items {
		out := batchItem{Query: item.Query}
		if item.Err != nil {
			out.Error = batchErrorMessage(item.Err)
		} else {
			resp.Metadata.SuccessfulQueries++
			out.Results = item.Result.Results
			out.Metadata = &resultMetadata{
				TotalResults:      len(item.Result.Results),
				MaxResults:        s.svc.ClampMaxResults(maxPer),
				ScrapeTimeSeconds: item.Result.ScrapeTimeSeconds,
				Timestamp:         item.Result.Timestamp,
				Cached:            item.Cached,
			}
		}
		resp.Results = append(resp.Results, out)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"cache_size":     s.svc.CacheSize(),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed := s.svc.ClearCache()
	s.logger.Info("cache cleared", "removed", removed)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Cache cleared",
		"removed":   removed,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Endpoint not found",
			"available_endpoints": []string{
				"/api/price?query=<product>",
				"/api/batch (POST)",
				"/api/health",
				"/metrics",
				"/",
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "Grocer Price API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/api/price":  "GET - Search for product prices",
			"/api/batch":  "POST - Search for multiple products",
			"/api/health": "GET - Health check",
			"/metrics":    "GET - Prometheus metrics",
		},
	})
}

// writeLookupError maps pipeline failures to client responses. Upstream
// detail stays in the logs; the client only ever sees a generic message.
func (s *Server) writeLookupError(w http.ResponseWriter, query string, elapsed time.Duration, err error) {
	if errors.Is(err, pricing.ErrQueryTooShort) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": pricing.ErrQueryTooShort.Error()})
		return
	}
	s.logger.Error("lookup failed", "query", query, "elapsed", elapsed, "error", err)
	writeJSON(w, http.StatusInternalServerError, genericError())
}

func batchErrorMessage(err error) string {
	if errors.Is(err, pricing.ErrQueryTooShort) {
		return pricing.ErrQueryTooShort.Error()
	}
	return "Failed to fetch product data"
}

func genericError() map[string]any {
	return map[string]any{
		"error":   "Failed to fetch product data",
		"message": "Something went wrong on our end. Please try again later.",
	}
}
