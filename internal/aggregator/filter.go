package aggregator

import "strings"

// Filter returns the records matching opts, keeping their order. The result is never nil.
func Filter(records []Record, opts FeedOptions) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if !opts.Since.IsZero() && rec.PublishedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && rec.PublishedAt.After(opts.Until) {
			continue
		}
		if len(opts.Sources) > 0 && !containsFold(opts.Sources, rec.Source) {
			continue
		}
		if len(opts.Types) > 0 && !containsType(opts.Types, rec.Type) {
			continue
		}
		out = append(out, rec)
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func containsType(types []ContentType, t ContentType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
