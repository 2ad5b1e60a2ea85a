// Package aggregator combines content from multiple providers into a unified view.
//
// This package enables nycinsight to:
// - Describe every news article and video with one Record shape
// - Fan out a query to the selected providers concurrently
// - Merge provider results newest first
// - Filter the merged content by date range, source and type
package aggregator

import (
	"context"
	"fmt"
	"time"
)

// ContentType identifies the kind of content a record points to.
type ContentType string

const (
	TypeArticle ContentType = "article"
	TypeVideo   ContentType = "video"
)

// Kind identifies which inclusion flag selects a provider.
type Kind string

const (
	KindArticle    Kind = "article"
	KindVideo      Kind = "video"
	KindShortVideo Kind = "short-video"
)

// Placeholders used by adapters when a provider omits a field.
const (
	UntitledArticle      = "Untitled Article"
	UntitledVideo        = "Untitled Video"
	NoDescription        = "No description available"
	UnknownSource        = "Unknown Source"
	NoLink               = "#"
	ArticleFallbackImage = "https://images.unsplash.com/photo-1496442226666-8d4d0e62e6e9?w=600"
	VideoFallbackImage   = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?w=600"
)

// Record is the uniform content item every provider adapter produces.
type Record struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Summary     string      `json:"summary"`
	Source      string      `json:"source"`
	MediaURL    string      `json:"mediaUrl"`
	Link        string      `json:"link"`
	Type        ContentType `json:"type"`
	PublishedAt time.Time   `json:"publishedAt"`
}

// IsZero reports whether r carries no content at all.
func (r Record) IsZero() bool {
	return r.ID == "" && r.Title == "" && r.Link == "" && r.PublishedAt.IsZero()
}

// Provider is one upstream content source adapted to Record.
//
// Fetch never fails: transport errors, provider error envelopes and malformed
// bodies all yield an empty, non-nil slice.
type Provider interface {
	Name() string
	Kind() Kind
	Fetch(ctx context.Context, query string) []Record
}

// Request selects the providers taking part in one aggregation.
type Request struct {
	Query              string `json:"query"`
	IncludeArticles    bool   `json:"includeArticles"`
	IncludeVideos      bool   `json:"includeVideos"`
	IncludeShortVideos bool   `json:"includeShortVideos"`
}

// includes reports whether providers of kind k take part in the request.
func (r Request) includes(k Kind) bool {
	switch k {
	case KindArticle:
		return r.IncludeArticles
	case KindVideo:
		return r.IncludeVideos
	case KindShortVideo:
		return r.IncludeShortVideos
	default:
		return false
	}
}

// ProviderError is an error reported inside an otherwise well-formed provider response.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Status   int
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (%s): %s", e.Provider, e.Code, e.Message)
}

// FeedOptions narrows an aggregated feed.
type FeedOptions struct {
	Limit   int
	Since   time.Time
	Until   time.Time
	Sources []string
	Types   []ContentType
}
