// Package main provides the nycinsight CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/config"
	"github.com/gauthierbraillon/nycinsight/internal/display"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
	"github.com/gauthierbraillon/nycinsight/internal/server"
	"github.com/gauthierbraillon/nycinsight/pkg/browser"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module version
// recorded by go install.
func resolveVersion(ldflags string, info *debug.BuildInfo) string {
	if ldflags != "dev" && ldflags != "" {
		return ldflags
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func currentVersion() string {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(version, info)
}

// newRootCmd creates the root command for the nycinsight CLI.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "nycinsight",
		Short:        "Aggregate New York news, videos and short videos",
		Long:         "nycinsight fans a query out to NewsAPI, YouTube and TikTok and merges the results newest first.",
		Version:      currentVersion(),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("nycinsight version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(newFeedCmd(&configPath))
	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))

	return rootCmd
}

// newFeedCmd creates the feed subcommand.
func newFeedCmd(configPath *string) *cobra.Command {
	var (
		articles bool
		videos   bool
		shorts   bool
		limit    int
		itemType string
		source   string
		since    time.Duration
		asJSON   bool
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "feed [query]",
		Short: "Display the aggregated feed",
		Long:  "Display news articles, videos and short videos about a topic, newest first.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cmd.Flags().Changed("shorts") {
				shorts = videos
			}
			req := aggregator.Request{
				IncludeArticles:    articles,
				IncludeVideos:      videos,
				IncludeShortVideos: shorts,
			}
			if len(args) == 1 {
				req.Query = args[0]
			}

			opts, err := feedOptions(limit, itemType, source, since, time.Now())
			if err != nil {
				return err
			}

			a := newApp(cfg, log)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Content.ProviderTimeout+5*time.Second)
			defer cancel()
			records := aggregator.Filter(a.aggregator.Aggregate(ctx, req), opts)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return fmt.Errorf("encode feed: %w", err)
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatFeed(records))
			}

			if open && len(records) > 0 {
				if err := browser.Open(records[0].Link); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&articles, "articles", true, "Include news articles")
	cmd.Flags().BoolVar(&videos, "videos", true, "Include YouTube videos")
	cmd.Flags().BoolVar(&shorts, "shorts", true, "Include TikTok short videos (defaults to --videos)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of items to display (0 for all)")
	cmd.Flags().StringVarP(&itemType, "type", "t", "", "Filter by type (article, video)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Filter by source name, comma separated (e.g. YouTube,TikTok)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show items newer than this age (e.g. 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	cmd.Flags().BoolVar(&open, "open", false, "Open the newest item in the browser")

	return cmd
}

// feedOptions turns CLI flags into filter options.
func feedOptions(limit int, itemType, source string, since time.Duration, now time.Time) (aggregator.FeedOptions, error) {
	if limit < 0 {
		return aggregator.FeedOptions{}, fmt.Errorf("invalid limit %d: must be zero or positive", limit)
	}
	opts := aggregator.FeedOptions{Limit: limit}

	switch t := aggregator.ContentType(strings.ToLower(strings.TrimSpace(itemType))); t {
	case "":
	case aggregator.TypeArticle, aggregator.TypeVideo:
		opts.Types = []aggregator.ContentType{t}
	default:
		return aggregator.FeedOptions{}, fmt.Errorf("invalid type %q: must be 'article' or 'video'", itemType)
	}

	for _, s := range strings.Split(source, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.Sources = append(opts.Sources, s)
		}
	}

	if since < 0 {
		return aggregator.FeedOptions{}, errors.New("invalid since: must be positive")
	}
	if since > 0 {
		opts.Since = now.Add(-since)
	}
	return opts, nil
}

// newServeCmd creates the serve subcommand.
func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the aggregated feed and the per-provider routes over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a := newApp(cfg, log)
			srv := server.New(server.Config{
				Addr:            cfg.Server.Addr,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				DefaultQuery:    cfg.Content.DefaultQuery,
				ProviderTimeout: cfg.Content.ProviderTimeout,
				RateLimit:       cfg.Server.RateLimit,
				RateBurst:       cfg.Server.RateBurst,
			}, server.Deps{
				Aggregator: a.aggregator,
				News:       a.news,
				YouTube:    a.youtube,
				TikTok:     a.tiktok,
				Metrics:    a.metrics,
				Logger:     log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides PORT / NYC_ADDR)")

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Print the configuration after applying the config file, .env and environment, with API keys masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg.Redacted())
		},
	}

	return cmd
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		OutputPaths: []string{"stderr"},
	})
}
