// Package youtube adapts YouTube Data API v3 video search to aggregator records.
//
// This package enables nycinsight to:
// - Search recent videos matching a free-text query
// - Pick the best available thumbnail
// - Degrade to an empty result when the API is unavailable
package youtube

// Source is the human-readable provider name carried on every record.
const Source = "YouTube"

// Result-count bounds for one search.
const (
	DefaultMaxResults = 10
	MaxResultsLimit   = 50
)

// searchResponse mirrors the parts of search.list the adapter reads.
// Pointers mark fields YouTube may omit or send as null.
type searchResponse struct {
	Items []searchItem `json:"items"`
	Error *apiError    `json:"error"`
}

type searchItem struct {
	ID *struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet *struct {
		Title        string      `json:"title"`
		Description  string      `json:"description"`
		ChannelTitle string      `json:"channelTitle"`
		PublishedAt  string      `json:"publishedAt"`
		Thumbnails   *thumbnails `json:"thumbnails"`
	} `json:"snippet"`
}

type thumbnails struct {
	Default *thumbnail `json:"default"`
	Medium  *thumbnail `json:"medium"`
	High    *thumbnail `json:"high"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Errors  []struct {
		Reason string `json:"reason"`
	} `json:"errors"`
}
