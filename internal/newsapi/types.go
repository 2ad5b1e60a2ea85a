// Package newsapi adapts the NewsAPI "everything" search to aggregator records.
package newsapi

// Result-count bounds for one search.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type everythingResponse struct {
	Status       string     `json:"status"`
	Code         string     `json:"code"`
	Message      string     `json:"message"`
	TotalResults int        `json:"totalResults"`
	Articles     []*article `json:"articles"`
}

type article struct {
	Source *struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt *string `json:"publishedAt"`
}
