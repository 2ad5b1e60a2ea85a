package main

import (
	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/config"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
	"github.com/gauthierbraillon/nycinsight/internal/metrics"
	"github.com/gauthierbraillon/nycinsight/internal/newsapi"
	"github.com/gauthierbraillon/nycinsight/internal/tiktok"
	"github.com/gauthierbraillon/nycinsight/internal/youtube"
)

// app holds the providers and the aggregator built from one Config.
type app struct {
	news       *newsapi.Client
	youtube    *youtube.Client
	tiktok     *tiktok.Client
	aggregator *aggregator.Aggregator
	metrics    *metrics.Metrics
}

func newApp(cfg *config.Config, log logger.Logger) *app {
	newsOpts := []newsapi.ClientOption{
		newsapi.WithPageSize(cfg.News.PageSize),
		newsapi.WithLanguage(cfg.News.Language),
		newsapi.WithLogger(log),
	}
	if cfg.News.BaseURL != "" {
		newsOpts = append(newsOpts, newsapi.WithBaseURL(cfg.News.BaseURL))
	}

	ytOpts := []youtube.ClientOption{
		youtube.WithMaxResults(cfg.YouTube.MaxResults),
		youtube.WithLogger(log),
	}
	if cfg.YouTube.BaseURL != "" {
		ytOpts = append(ytOpts, youtube.WithBaseURL(cfg.YouTube.BaseURL))
	}

	ttOpts := []tiktok.ClientOption{
		tiktok.WithHost(cfg.TikTok.Host),
		tiktok.WithCount(cfg.TikTok.Count),
		tiktok.WithLogger(log),
	}
	if cfg.TikTok.BaseURL != "" {
		ttOpts = append(ttOpts, tiktok.WithBaseURL(cfg.TikTok.BaseURL))
	}

	a := &app{
		news:    newsapi.NewClient(cfg.News.APIKey, newsOpts...),
		youtube: youtube.NewClient(cfg.YouTube.APIKey, ytOpts...),
		tiktok:  tiktok.NewClient(cfg.TikTok.APIKey, ttOpts...),
		metrics: metrics.New(),
	}
	a.aggregator = aggregator.New(
		[]aggregator.Provider{a.news, a.youtube, a.tiktok},
		aggregator.WithTimeout(cfg.Content.ProviderTimeout),
		aggregator.WithDefaultQuery(cfg.Content.DefaultQuery),
		aggregator.WithLogger(log.With(logger.String("component", "aggregator"))),
		aggregator.WithRecorder(a.metrics),
	)
	return a
}
