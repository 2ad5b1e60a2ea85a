package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
)

// maxContentLimit caps /api/content; every provider at its maximum yields 180 records.
const maxContentLimit = 200

type bounds struct {
	fallback int
	max      int
}

var (
	newsBounds    = bounds{fallback: 10, max: 100}
	youtubeBounds = bounds{fallback: 10, max: 50}
	tiktokBounds  = bounds{fallback: 10, max: 30}
)

var endpoints = []string{
	"/",
	"/api/health",
	"/api/content?q=query&articles=true&videos=true&shorts=true&limit=20",
	"/api/news?q=query&pageSize=10",
	"/api/youtube?q=query&maxResults=10",
	"/api/tiktok?q=query&count=10",
	"/metrics",
}

type errorResponse struct {
	Error string `json:"error"`
}

type itemsResponse struct {
	Query string              `json:"query"`
	Count int                 `json:"count"`
	Items []aggregator.Record `json:"items"`
	Error string              `json:"error,omitempty"`
	Code  string              `json:"code,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "NYC Insight API is running",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"newsApiKey":    configured(s.news),
		"youtubeApiKey": configured(s.youtube),
		"tiktokApiKey":  configured(s.tiktok),
		"timestamp":     s.now().UTC().Format(time.RFC3339),
	})
}

// handleContent returns the merged feed as a bare JSON array, newest first.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	videos := parseBool(q.Get("videos"), true)
	req := aggregator.Request{
		Query:              strings.TrimSpace(q.Get("q")),
		IncludeArticles:    parseBool(q.Get("articles"), true),
		IncludeVideos:      videos,
		IncludeShortVideos: parseBool(q.Get("shorts"), videos),
	}

	records := s.agg.Aggregate(r.Context(), req)

	opts := aggregator.FeedOptions{
		Limit:   clampInt(q.Get("limit"), 0, maxContentLimit),
		Sources: parseCSV(q.Get("source")),
	}
	for _, t := range parseCSV(q.Get("type")) {
		opts.Types = append(opts.Types, aggregator.ContentType(strings.ToLower(t)))
	}

	writeJSON(w, http.StatusOK, aggregator.Filter(records, opts))
}

// searchHandler serves a single provider with its own limit parameter.
func (s *Server) searchHandler(p Searcher, limitParam string, b bounds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			query = s.cfg.DefaultQuery
		}

		if !configured(p) {
			s.log.Error("provider not configured", logger.String("path", r.URL.Path))
			writeJSON(w, http.StatusServiceUnavailable, itemsResponse{
				Query: query,
				Items: []aggregator.Record{},
				Error: "API key not configured",
			})
			return
		}

		limit := clampInt(r.URL.Query().Get(limitParam), b.fallback, b.max)
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProviderTimeout)
		defer cancel()

		records, err := p.Search(ctx, query, limit)
		if err != nil {
			s.log.Warn("provider search failed",
				logger.String("provider", p.Name()),
				logger.String("query", query),
				logger.Error(err),
			)
			status, resp := searchFailure(err)
			resp.Query = query
			writeJSON(w, status, resp)
			return
		}

		s.log.Info("provider search",
			logger.String("provider", p.Name()),
			logger.String("query", query),
			logger.Int("count", len(records)),
		)
		writeJSON(w, http.StatusOK, itemsResponse{Query: query, Count: len(records), Items: records})
	}
}

// searchFailure maps a provider error to a response. Raw error text stays in the
// logs; callers only see the provider's own message or a generic one.
func searchFailure(err error) (int, itemsResponse) {
	resp := itemsResponse{Items: []aggregator.Record{}}

	var perr *aggregator.ProviderError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		resp.Error = "upstream provider timed out"
		return http.StatusGatewayTimeout, resp
	case errors.As(err, &perr):
		resp.Error = perr.Provider + " API error: " + perr.Message
		resp.Code = perr.Code
	default:
		resp.Error = "upstream provider request failed"
	}
	return http.StatusBadGateway, resp
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":              "Endpoint not found",
		"path":               r.URL.Path,
		"availableEndpoints": endpoints,
	})
}

func parseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
