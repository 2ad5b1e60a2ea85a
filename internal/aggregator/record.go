package aggregator

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SummaryLimit is the longest video summary kept before truncation.
	SummaryLimit = 150
	ellipsis     = "..."
)

// TruncateSummary cuts s to SummaryLimit characters and appends "..." when it was longer.
func TruncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= SummaryLimit {
		return s
	}
	return string(runes[:SummaryLimit]) + ellipsis
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// SyntheticID builds a collision-free id for items a provider did not identify.
func SyntheticID(t ContentType) string {
	return string(t) + "-" + uuid.NewString()
}

// ParseTimestamp reads an RFC 3339 timestamp, falling back to now.
func ParseTimestamp(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return now
}
