package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gauthierbraillon/nycinsight/internal/config"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "NYC_ADDR", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"DEFAULT_QUERY", "PROVIDER_TIMEOUT",
	"NEWS_API_KEY", "NEWS_API_URL", "NEWS_LANGUAGE", "NEWS_PAGE_SIZE",
	"YOUTUBE_API_KEY", "YOUTUBE_API_URL", "YOUTUBE_MAX_RESULTS",
	"RAPIDAPI_KEY", "TIKTOK_RAPIDAPI_HOST", "TIKTOK_API_URL", "TIKTOK_COUNT", "LOG_LEVEL",
}

// isolate clears every variable Load reads and points ENV_FILE at a missing file.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":10000", cfg.Server.Addr)
	require.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
	require.Equal(t, "New York", cfg.Content.DefaultQuery)
	require.Equal(t, 5*time.Second, cfg.Content.ProviderTimeout)
	require.Equal(t, 10, cfg.News.PageSize)
	require.Equal(t, "en", cfg.News.Language)
	require.Equal(t, 10, cfg.YouTube.MaxResults)
	require.Equal(t, 10, cfg.TikTok.Count)
	require.Equal(t, "tiktok-scraper7.p.rapidapi.com", cfg.TikTok.Host)
	require.Empty(t, cfg.News.APIKey)
	require.Equal(t, 10.0, cfg.Server.RateLimit)
	require.Equal(t, 20, cfg.Server.RateBurst)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEFAULT_QUERY", "Queens")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("NEWS_API_KEY", "news-secret")
	t.Setenv("NEWS_PAGE_SIZE", "100")
	t.Setenv("YOUTUBE_API_KEY", "yt-secret")
	t.Setenv("YOUTUBE_MAX_RESULTS", "50")
	t.Setenv("RAPIDAPI_KEY", "rapid-secret")
	t.Setenv("TIKTOK_COUNT", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":8081", cfg.Server.Addr)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.Equal(t, "Queens", cfg.Content.DefaultQuery)
	require.Equal(t, 2*time.Second, cfg.Content.ProviderTimeout)
	require.Equal(t, "news-secret", cfg.News.APIKey)
	require.Equal(t, 100, cfg.News.PageSize)
	require.Equal(t, "yt-secret", cfg.YouTube.APIKey)
	require.Equal(t, 50, cfg.YouTube.MaxResults)
	require.Equal(t, "rapid-secret", cfg.TikTok.APIKey)
	require.Equal(t, 5, cfg.TikTok.Count)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAddrBeatsPort(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8081")
	t.Setenv("NYC_ADDR", "127.0.0.1:9000")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
content:
  default_query: Harlem
  provider_timeout: 3s
news:
  page_size: 25
  language: es
youtube:
  api_key: from-file
  max_results: 20
tiktok:
  count: 15
`), 0o600))
	t.Setenv("YOUTUBE_API_KEY", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, ":7000", cfg.Server.Addr)
	require.Equal(t, "Harlem", cfg.Content.DefaultQuery)
	require.Equal(t, 3*time.Second, cfg.Content.ProviderTimeout)
	require.Equal(t, 25, cfg.News.PageSize)
	require.Equal(t, "es", cfg.News.Language)
	require.Equal(t, "from-env", cfg.YouTube.APIKey)
	require.Equal(t, 20, cfg.YouTube.MaxResults)
	require.Equal(t, 15, cfg.TikTok.Count)
}

func TestLoadReadsEnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("NEWS_API_KEY=dotenv-key\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	require.NoError(t, os.Unsetenv("NEWS_API_KEY"))

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "dotenv-key", cfg.News.APIKey)
}

func TestLoadRejectsUnboundedLimits(t *testing.T) {
	tests := map[string]string{
		"NEWS_PAGE_SIZE":      "101",
		"YOUTUBE_MAX_RESULTS": "51",
		"TIKTOK_COUNT":        "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)

			_, err := config.Load("")
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	isolate(t)
	t.Setenv("PROVIDER_TIMEOUT", "soon")
	_, err := config.Load("")
	require.Error(t, err)

	isolate(t)
	t.Setenv("NEWS_PAGE_SIZE", "ten")
	_, err = config.Load("")
	require.Error(t, err)
}

func TestLoadRateLimit(t *testing.T) {
	isolate(t)
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.Server.RateLimit)
	require.Equal(t, 3, cfg.Server.RateBurst)

	isolate(t)
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("RATE_LIMIT_BURST", "0")
	cfg, err = config.Load("")
	require.NoError(t, err)
	require.Zero(t, cfg.Server.RateLimit)

	isolate(t)
	t.Setenv("RATE_LIMIT_RPS", "-1")
	_, err = config.Load("")
	require.ErrorContains(t, err, "RATE_LIMIT_RPS")

	isolate(t)
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "0")
	_, err = config.Load("")
	require.ErrorContains(t, err, "RATE_LIMIT_BURST")
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := config.Default()
	cfg.News.APIKey = "abcdef123456"
	cfg.YouTube.APIKey = "abc"

	r := cfg.Redacted()
	require.Equal(t, "****3456", r.News.APIKey)
	require.Equal(t, "****", r.YouTube.APIKey)
	require.Empty(t, r.TikTok.APIKey)
	require.Equal(t, "abcdef123456", cfg.News.APIKey, "original must be untouched")
}
