// Package display provides terminal output formatting for nycinsight.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/gauthierbraillon/nycinsight/internal/aggregator"
)

const (
	separator           = " • "
	defaultSummaryWidth = 120
)

// TerminalFormatter formats content records for terminal display.
type TerminalFormatter struct {
	summaryWidth int
	now          func() time.Time
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{summaryWidth: defaultSummaryWidth, now: time.Now}
}

// FormatItem formats a single record for display.
func (f *TerminalFormatter) FormatItem(rec aggregator.Record) string {
	var lines []string

	// Header: [TYPE] Title
	lines = append(lines, fmt.Sprintf("[%s] %s", strings.ToUpper(string(rec.Type)), rec.Title))
	lines = append(lines, fmt.Sprintf("  %s%s%s", rec.Source, separator, f.FormatTimestamp(rec.PublishedAt)))

	if rec.Summary != "" && rec.Summary != aggregator.NoDescription {
		lines = append(lines, "  "+f.TruncateText(oneLine(rec.Summary), f.summaryWidth))
	}

	if rec.Link != "" && rec.Link != aggregator.NoLink {
		lines = append(lines, "  "+rec.Link)
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatFeed formats multiple records for display.
func (f *TerminalFormatter) FormatFeed(records []aggregator.Record) string {
	if len(records) == 0 {
		return "No content to display.\n"
	}

	formatted := make([]string, 0, len(records))
	for _, rec := range records {
		formatted = append(formatted, f.FormatItem(rec))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// TruncateText truncates text to maxLen characters, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
