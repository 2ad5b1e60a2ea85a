package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
)

const (
	defaultBaseURL  = "https://newsapi.org"
	defaultLanguage = "en"
	providerName    = "newsapi"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("News API key not configured")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithPageSize sets how many articles Fetch asks for, clamped to MaxPageSize.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = clampPageSize(n)
	}
}

// WithLanguage restricts results to one ISO 639-1 language.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// Client searches news articles through NewsAPI.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	pageSize   int
	httpClient HTTPClient
	log        logger.Logger
	now        func() time.Time
}

// NewClient creates a NewsAPI client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		language:   defaultLanguage,
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{},
		log:        logger.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements aggregator.Provider.
func (c *Client) Name() string { return providerName }

// Kind implements aggregator.Provider.
func (c *Client) Kind() aggregator.Kind { return aggregator.KindArticle }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch searches articles for query. Any failure is logged and yields an empty slice.
func (c *Client) Fetch(ctx context.Context, query string) []aggregator.Record {
	records, err := c.Search(ctx, query, c.pageSize)
	if err != nil {
		fields := []logger.Field{logger.String("provider", providerName), logger.String("query", query), logger.Error(err)}
		var perr *aggregator.ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, logger.String("code", perr.Code))
		}
		c.log.Warn("news search degraded to empty", fields...)
		return []aggregator.Record{}
	}
	return records
}

// Search returns up to pageSize articles matching query, newest first as sorted by NewsAPI.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]aggregator.Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", c.language)
	params.Set("pageSize", strconv.Itoa(clampPageSize(pageSize)))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("News API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// NewsAPI reports errors as {"status":"error"} with a 4xx/5xx status.
	var parsed everythingResponse
	parseErr := json.Unmarshal(body, &parsed)
	if parseErr == nil && parsed.Status == "error" {
		return nil, &aggregator.ProviderError{
			Provider: "News",
			Code:     parsed.Code,
			Message:  parsed.Message,
			Status:   resp.StatusCode,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("News API HTTP error: status %d", resp.StatusCode)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", parseErr)
	}

	now := c.now()
	records := make([]aggregator.Record, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a == nil {
			continue
		}
		records = append(records, toRecord(a, now))
	}
	return records, nil
}

func toRecord(a *article, now time.Time) aggregator.Record {
	link := deref(a.URL)
	id := link
	if id == "" {
		id = aggregator.SyntheticID(aggregator.TypeArticle)
	}

	source := ""
	if a.Source != nil {
		source = a.Source.Name
	}

	return aggregator.Record{
		ID:          id,
		Title:       aggregator.FirstNonEmpty(deref(a.Title), aggregator.UntitledArticle),
		Summary:     aggregator.FirstNonEmpty(deref(a.Description), aggregator.NoDescription),
		Source:      aggregator.FirstNonEmpty(source, aggregator.UnknownSource),
		MediaURL:    aggregator.FirstNonEmpty(deref(a.URLToImage), aggregator.ArticleFallbackImage),
		Link:        aggregator.FirstNonEmpty(link, aggregator.NoLink),
		Type:        aggregator.TypeArticle,
		PublishedAt: aggregator.ParseTimestamp(deref(a.PublishedAt), now),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
