// Package config loads nycinsight settings from an optional YAML file, .env files
// and the process environment, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider result-count bounds.
const (
	MaxNewsPageSize     = 100
	MaxYouTubeResults   = 50
	MaxTikTokCount      = 30
	defaultResultCount  = 10
	defaultTimeout      = 5 * time.Second
	defaultAddr         = ":10000"
	defaultQuery        = "New York"
	defaultNewsLanguage = "en"
	defaultTikTokHost   = "tiktok-scraper7.p.rapidapi.com"
	defaultRateLimit    = 10
	defaultRateBurst    = 20
)

// Config is the complete nycinsight configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Content Content `yaml:"content"`
	News    News    `yaml:"news"`
	YouTube YouTube `yaml:"youtube"`
	TikTok  TikTok  `yaml:"tiktok"`
	Logging Logging `yaml:"logging"`
}

// Server describes the HTTP layer.
type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimit is the sustained /api request rate per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Content holds aggregation defaults.
type Content struct {
	DefaultQuery    string        `yaml:"default_query"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
}

// News configures the NewsAPI adapter.
type News struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
	Language string `yaml:"language"`
}

// YouTube configures the YouTube Data API adapter.
type YouTube struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
}

// TikTok configures the RapidAPI short-video adapter.
type TikTok struct {
	APIKey  string `yaml:"api_key"`
	Host    string `yaml:"host"`
	BaseURL string `yaml:"base_url"`
	Count   int    `yaml:"count"`
}

// Logging configures the logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr: defaultAddr,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"https://nyc-insight-wxrh.vercel.app",
				"https://nyc-insight.onrender.com",
			},
			RateLimit: defaultRateLimit,
			RateBurst: defaultRateBurst,
		},
		Content: Content{
			DefaultQuery:    defaultQuery,
			ProviderTimeout: defaultTimeout,
		},
		News:    News{PageSize: defaultResultCount, Language: defaultNewsLanguage},
		YouTube: YouTube{MaxResults: defaultResultCount},
		TikTok:  TikTok{Host: defaultTikTokHost, Count: defaultResultCount},
		Logging: Logging{Level: "info"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is
// empty), .env files and environment variables.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env. Variables already present
// in the environment win. A missing file is not an error.
func loadEnvFiles() error {
	file := ".env"
	if f := os.Getenv("ENV_FILE"); f != "" {
		file = f
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", file, err)
	}
	return nil
}

func applyEnv(c *Config) error {
	if port, ok := lookup("PORT"); ok {
		c.Server.Addr = ":" + port
	}
	setString(&c.Server.Addr, "NYC_ADDR")
	if origins, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitAndTrim(origins)
	}
	if err := setFloat(&c.Server.RateLimit, "RATE_LIMIT_RPS"); err != nil {
		return err
	}
	if err := setInt(&c.Server.RateBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}

	setString(&c.Content.DefaultQuery, "DEFAULT_QUERY")
	if err := setDuration(&c.Content.ProviderTimeout, "PROVIDER_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.News.APIKey, "NEWS_API_KEY")
	setString(&c.News.BaseURL, "NEWS_API_URL")
	setString(&c.News.Language, "NEWS_LANGUAGE")
	if err := setInt(&c.News.PageSize, "NEWS_PAGE_SIZE"); err != nil {
		return err
	}

	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setString(&c.YouTube.BaseURL, "YOUTUBE_API_URL")
	if err := setInt(&c.YouTube.MaxResults, "YOUTUBE_MAX_RESULTS"); err != nil {
		return err
	}

	setString(&c.TikTok.APIKey, "RAPIDAPI_KEY")
	setString(&c.TikTok.Host, "TIKTOK_RAPIDAPI_HOST")
	setString(&c.TikTok.BaseURL, "TIKTOK_API_URL")
	if err := setInt(&c.TikTok.Count, "TIKTOK_COUNT"); err != nil {
		return err
	}

	setString(&c.Logging.Level, "LOG_LEVEL")
	return nil
}

// Validate checks that every provider fan-out is bounded.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server address must not be empty")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if strings.TrimSpace(c.Content.DefaultQuery) == "" {
		return errors.New("DEFAULT_QUERY must not be empty")
	}
	if c.Content.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}
	if err := checkRange("NEWS_PAGE_SIZE", c.News.PageSize, MaxNewsPageSize); err != nil {
		return err
	}
	if err := checkRange("YOUTUBE_MAX_RESULTS", c.YouTube.MaxResults, MaxYouTubeResults); err != nil {
		return err
	}
	if err := checkRange("TIKTOK_COUNT", c.TikTok.Count, MaxTikTokCount); err != nil {
		return err
	}
	return nil
}

// Redacted returns a copy safe to print, with API keys masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	out.News.APIKey = mask(c.News.APIKey)
	out.YouTube.APIKey = mask(c.YouTube.APIKey)
	out.TikTok.APIKey = mask(c.TikTok.APIKey)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func checkRange(name string, v, max int) error {
	if v <= 0 || v > max {
		return fmt.Errorf("%s must be between 1 and %d, got %d", name, max, v)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration: %w", key, err)
	}
	*dst = d
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
