package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
	"github.com/gauthierbraillon/nycinsight/internal/logger"
)

const (
	// DefaultHost is the RapidAPI host serving the hashtag listing.
	DefaultHost  = "tiktok-scraper7.p.rapidapi.com"
	providerName = "tiktok"
)

// ErrMissingAPIKey is returned when no RapidAPI key is configured.
var ErrMissingAPIKey = errors.New("RapidAPI key not configured")

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

// WithBaseURL overrides the https://<host> base URL (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHost sets the X-RapidAPI-Host header and, unless overridden, the base URL.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		if host != "" {
			c.host = host
		}
	}
}

// WithCount sets how many videos Fetch asks for, clamped to MaxCount.
func WithCount(n int) ClientOption {
	return func(c *Client) {
		c.count = clampCount(n)
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// Client lists short videos tagged with a hashtag.
type Client struct {
	apiKey     string
	host       string
	baseURL    string
	count      int
	httpClient HTTPClient
	log        logger.Logger
	now        func() time.Time
}

// NewClient creates a client authenticated with a RapidAPI key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		host:       DefaultHost,
		count:      DefaultCount,
		httpClient: &http.Client{},
		log:        logger.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = "https://" + c.host
	}
	return c
}

// Name implements aggregator.Provider.
func (c *Client) Name() string { return providerName }

// Kind implements aggregator.Provider.
func (c *Client) Kind() aggregator.Kind { return aggregator.KindShortVideo }

// Configured reports whether a RapidAPI key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch lists short videos for the hashtag derived from query. Failures yield an empty slice.
func (c *Client) Fetch(ctx context.Context, query string) []aggregator.Record {
	records, err := c.Search(ctx, query, c.count)
	if err != nil {
		fields := []logger.Field{logger.String("provider", providerName), logger.String("query", query), logger.Error(err)}
		var perr *aggregator.ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, logger.String("code", perr.Code))
		}
		c.log.Warn("short video listing degraded to empty", fields...)
		return []aggregator.Record{}
	}
	return records
}

// Search lists up to count videos posted under Hashtag(query).
func (c *Client) Search(ctx context.Context, query string, count int) ([]aggregator.Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	tag := Hashtag(query)
	if tag == "" {
		return nil, fmt.Errorf("query %q has no usable hashtag", query)
	}

	params := url.Values{}
	params.Set("challenge_name", tag)
	params.Set("count", strconv.Itoa(clampCount(count)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/challenge/posts?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TikTok API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TikTok API HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed postsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse TikTok response: %w", err)
	}
	if parsed.Code != 0 {
		return nil, &aggregator.ProviderError{
			Provider: Source,
			Code:     strconv.Itoa(parsed.Code),
			Message:  parsed.Msg,
			Status:   resp.StatusCode,
		}
	}
	if parsed.Data == nil {
		return []aggregator.Record{}, nil
	}

	now := c.now()
	records := make([]aggregator.Record, 0, len(parsed.Data.Videos))
	for _, v := range parsed.Data.Videos {
		if v == nil {
			continue
		}
		records = append(records, toRecord(v, now))
	}
	return records, nil
}

func toRecord(v *video, now time.Time) aggregator.Record {
	id := aggregator.FirstNonEmpty(v.VideoID, v.AwemeID)
	handle := ""
	if v.Author != nil {
		handle = v.Author.UniqueID
	}

	link := aggregator.NoLink
	switch {
	case id != "" && handle != "":
		link = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", handle, id)
	case v.Play != "":
		link = v.Play
	}
	if id == "" {
		id = aggregator.SyntheticID(aggregator.TypeVideo)
	}

	publishedAt := now
	if v.CreateTime > 0 {
		publishedAt = time.Unix(v.CreateTime, 0).UTC()
	}

	return aggregator.Record{
		ID:          id,
		Title:       aggregator.FirstNonEmpty(v.Title, aggregator.UntitledVideo),
		Summary:     aggregator.TruncateSummary(aggregator.FirstNonEmpty(v.Title, aggregator.NoDescription)),
		Source:      Source,
		MediaURL:    aggregator.FirstNonEmpty(v.Cover, v.OriginCover, v.AIDynamicCover, aggregator.VideoFallbackImage),
		Link:        link,
		Type:        aggregator.TypeVideo,
		PublishedAt: publishedAt,
	}
}

// Hashtag turns a free-text query into a hashtag: lower-case letters and digits only.
func Hashtag(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clampCount(n int) int {
	if n <= 0 {
		return DefaultCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}
