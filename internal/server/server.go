// Package server exposes the aggregated NYC feed over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
	"github.com/gauthierbraillon/nycinsight/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Searcher is a provider that can also be queried directly with an explicit limit.
type Searcher interface {
	aggregator.Provider
	Configured() bool
	Search(ctx context.Context, query string, limit int) ([]aggregator.Record, error)
}

// Config carries the HTTP-facing settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	DefaultQuery   string
	// ProviderTimeout bounds each direct provider route; zero means aggregator.DefaultTimeout.
	ProviderTimeout time.Duration
	// RateLimit caps /api requests per second across all clients; 0 disables it.
	RateLimit float64
	RateBurst int
}

// Deps are the collaborators the routes delegate to.
type Deps struct {
	Aggregator *aggregator.Aggregator
	News       Searcher
	YouTube    Searcher
	TikTok     Searcher
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg     Config
	agg     *aggregator.Aggregator
	news    Searcher
	youtube Searcher
	tiktok  Searcher
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

// New wires a Server. Missing Metrics or Logger fall back to fresh collectors and a no-op logger.
func New(cfg Config, deps Deps) *Server {
	if cfg.DefaultQuery == "" {
		cfg.DefaultQuery = aggregator.DefaultQuery
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = aggregator.DefaultTimeout
	}
	s := &Server{
		cfg:     cfg,
		agg:     deps.Aggregator,
		news:    deps.News,
		youtube: deps.YouTube,
		tiktok:  deps.TikTok,
		metrics: deps.Metrics,
		log:     deps.Logger,
		now:     time.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(s.rateLimiter(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)))
		}
		r.Get("/health", s.handleHealth)
		r.Get("/content", s.handleContent)
		r.Get("/news", s.searchHandler(s.news, "pageSize", newsBounds))
		r.Get("/youtube", s.searchHandler(s.youtube, "maxResults", youtubeBounds))
		r.Get("/tiktok", s.searchHandler(s.tiktok, "count", tiktokBounds))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.NotFound(s.handleNotFound)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server starting",
			logger.String("addr", s.cfg.Addr),
			logger.Bool("news_configured", configured(s.news)),
			logger.Bool("youtube_configured", configured(s.youtube)),
			logger.Bool("tiktok_configured", configured(s.tiktok)),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func configured(s Searcher) bool {
	return s != nil && s.Configured()
}
