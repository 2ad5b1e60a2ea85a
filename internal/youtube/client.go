package youtube

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
	defaultBaseURL = "https://www.googleapis.com"
	providerName   = "youtube"
	watchURL       = "https://www.youtube.com/watch?v="
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("YouTube API key not configured")

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
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithMaxResults sets how many videos Fetch asks for, clamped to MaxResultsLimit.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		c.maxResults = clampResults(n)
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// Client is a YouTube Data API search client.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient HTTPClient
	log        logger.Logger
	now        func() time.Time
}

// NewClient creates a new YouTube API client with the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: DefaultMaxResults,
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
func (c *Client) Kind() aggregator.Kind { return aggregator.KindVideo }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch searches videos for query and degrades to an empty slice on any failure.
func (c *Client) Fetch(ctx context.Context, query string) []aggregator.Record {
	records, err := c.Search(ctx, query, c.maxResults)
	if err != nil {
		fields := []logger.Field{logger.String("provider", providerName), logger.String("query", query), logger.Error(err)}
		var perr *aggregator.ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, logger.String("code", perr.Code))
		}
		c.log.Warn("video search degraded to empty", fields...)
		return []aggregator.Record{}
	}
	return records
}

// Search retrieves up to maxResults recent videos matching query, most recent first
// as ordered by YouTube.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]aggregator.Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(clampResults(maxResults)))
	params.Set("order", "date")
	searchURL := fmt.Sprintf("%s/youtube/v3/search?%s", c.baseURL, params.Encode())

	body, err := c.doRequest(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if resp.Error != nil {
		return nil, toProviderError(resp.Error, resp.Error.Code)
	}

	now := c.now()
	records := make([]aggregator.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		records = append(records, toRecord(item, now))
	}

	return records, nil
}

func toRecord(item searchItem, now time.Time) aggregator.Record {
	var videoID, title, description, publishedAt string
	var thumbs *thumbnails
	if item.ID != nil {
		videoID = item.ID.VideoID
	}
	if item.Snippet != nil {
		title = item.Snippet.Title
		description = item.Snippet.Description
		publishedAt = item.Snippet.PublishedAt
		thumbs = item.Snippet.Thumbnails
	}

	id := videoID
	link := aggregator.NoLink
	if videoID != "" {
		link = watchURL + videoID
	} else {
		id = aggregator.SyntheticID(aggregator.TypeVideo)
	}

	return aggregator.Record{
		ID:          id,
		Title:       aggregator.FirstNonEmpty(title, aggregator.UntitledVideo),
		Summary:     aggregator.TruncateSummary(aggregator.FirstNonEmpty(description, aggregator.NoDescription)),
		Source:      Source,
		MediaURL:    bestThumbnail(thumbs),
		Link:        link,
		Type:        aggregator.TypeVideo,
		PublishedAt: aggregator.ParseTimestamp(publishedAt, now),
	}
}

// bestThumbnail walks high, medium and default before the placeholder.
func bestThumbnail(t *thumbnails) string {
	if t == nil {
		return aggregator.VideoFallbackImage
	}
	for _, candidate := range []*thumbnail{t.High, t.Medium, t.Default} {
		if candidate != nil && candidate.URL != "" {
			return candidate.URL
		}
	}
	return aggregator.VideoFallbackImage
}

func clampResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	return n
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("YouTube API request failed: %w", stripQuery(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope searchResponse
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			return nil, fmt.Errorf("%s: %w", c.handleAPIError(resp.StatusCode), toProviderError(envelope.Error, resp.StatusCode))
		}
		return nil, errors.New(c.handleAPIError(resp.StatusCode))
	}

	return body, nil
}

// stripQuery drops the query string from a transport error so logged errors
// never carry request parameters.
func stripQuery(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
	}
	return &url.Error{Op: uerr.Op, URL: "", Err: uerr.Err}
}

func toProviderError(e *apiError, status int) *aggregator.ProviderError {
	code := ""
	if len(e.Errors) > 0 {
		code = e.Errors[0].Reason
	}
	if code == "" && e.Code != 0 {
		code = strconv.Itoa(e.Code)
	}
	return &aggregator.ProviderError{
		Provider: Source,
		Code:     code,
		Message:  e.Message,
		Status:   status,
	}
}

func (c *Client) handleAPIError(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "YouTube API rejected the request - check the search query"
	case http.StatusUnauthorized:
		return "YouTube API authentication failed - check YOUTUBE_API_KEY"
	case http.StatusForbidden:
		return "YouTube API access denied - the key may be invalid or out of quota"
	case http.StatusTooManyRequests:
		return "YouTube API rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		return "YouTube API temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "YouTube API server error - please try again later"
	default:
		return fmt.Sprintf("YouTube API error (status %d) - please try again", statusCode)
	}
}
