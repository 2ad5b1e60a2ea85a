package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gauthierbraillon/nycinsight/internal/logger"
)

const (
	// DefaultQuery is used when a request carries no query.
	DefaultQuery = "New York"
	// DefaultTimeout bounds each provider call.
	DefaultTimeout = 5 * time.Second
)

// Fetch outcomes reported to a Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
)

// Recorder observes provider calls and whole aggregations.
type Recorder interface {
	ObserveFetch(provider, outcome string, count int, d time.Duration)
	ObserveAggregation(count int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, string, int, time.Duration) {}
func (nopRecorder) ObserveAggregation(int, time.Duration)           {}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-provider deadline.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithDefaultQuery sets the query used when a request has none.
func WithDefaultQuery(q string) Option {
	return func(a *Aggregator) {
		if strings.TrimSpace(q) != "" {
			a.defaultQuery = q
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.recorder = r
		}
	}
}

// Aggregator fans a query out to providers and merges their records.
// It holds no per-request state and is safe for concurrent use.
type Aggregator struct {
	providers    []Provider
	timeout      time.Duration
	defaultQuery string
	log          logger.Logger
	recorder     Recorder
}

// New creates an Aggregator over the given providers.
func New(providers []Provider, opts ...Option) *Aggregator {
	a := &Aggregator{
		providers:    providers,
		timeout:      DefaultTimeout,
		defaultQuery: DefaultQuery,
		log:          logger.NewNop(),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the registered providers.
func (a *Aggregator) Providers() []Provider {
	return a.providers
}

// Aggregate queries every provider selected by req concurrently, waits for all of
// them and returns their records merged newest first. It never returns nil.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (records []Record) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = a.defaultQuery
	}

	start := time.Now()
	observe := false
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregation failed", logger.Error(fmt.Errorf("panic: %v", r)))
			records = []Record{}
		}
		if observe {
			a.observe(func() { a.recorder.ObserveAggregation(len(records), time.Since(start)) })
		}
	}()

	selected := a.selectProviders(req)
	if len(selected) == 0 {
		return []Record{}
	}
	observe = true

	results := make([][]Record, len(selected))
	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("provider fetch failed", logger.Any("panic", r))
					results[i] = []Record{}
				}
			}()
			results[i] = a.fetch(ctx, p, query)
		}(i, p)
	}
	wg.Wait()

	records = merge(results)
	a.log.Info("content aggregated",
		logger.String("query", query),
		logger.Int("providers", len(selected)),
		logger.Int("records", len(records)),
		logger.Duration("duration", time.Since(start)),
	)
	return records
}

func (a *Aggregator) selectProviders(req Request) []Provider {
	var selected []Provider
	for _, p := range a.providers {
		if p != nil && req.includes(providerKind(p)) {
			selected = append(selected, p)
		}
	}
	return selected
}

// providerKind reports "" for a provider whose Kind panics, which selects nothing.
func providerKind(p Provider) (k Kind) {
	defer func() {
		if recover() != nil {
			k = ""
		}
	}()
	return p.Kind()
}

// providerName reports "unknown" for a provider whose Name panics.
func providerName(p Provider) (name string) {
	defer func() {
		if recover() != nil {
			name = "unknown"
		}
	}()
	return p.Name()
}

// observe runs a Recorder call without letting a faulty recorder escape.
func (a *Aggregator) observe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("metrics recorder panicked", logger.Any("panic", r))
		}
	}()
	fn()
}

// fetch runs one provider under its own deadline. A provider that overruns the
// deadline or panics contributes nothing.
func (a *Aggregator) fetch(ctx context.Context, p Provider, query string) []Record {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name := providerName(p)
	start := time.Now()
	done := make(chan []Record, 1)
	panicked := make(chan any, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicked <- r
			}
		}()
		done <- p.Fetch(ctx, query)
	}()

	var (
		records []Record
		outcome string
	)
	select {
	case records = <-done:
		switch {
		case len(records) > 0:
			outcome = OutcomeOK
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			outcome = OutcomeTimeout
		default:
			outcome = OutcomeEmpty
		}
	case r := <-panicked:
		a.log.Error("provider panicked",
			logger.String("provider", name),
			logger.Any("panic", r),
		)
		outcome = OutcomePanic
	case <-ctx.Done():
		a.log.Warn("provider timed out",
			logger.String("provider", name),
			logger.Duration("timeout", a.timeout),
		)
		outcome = OutcomeTimeout
	}

	if records == nil {
		records = []Record{}
	}
	a.observe(func() { a.recorder.ObserveFetch(name, outcome, len(records), time.Since(start)) })
	return records
}

// merge flattens provider results, drops empty and duplicate records and sorts
// the rest by PublishedAt, newest first. Equal timestamps keep provider order.
func merge(results [][]Record) []Record {
	total := 0
	for _, r := range results {
		total += len(r)
	}

	merged := make([]Record, 0, total)
	seen := make(map[string]struct{}, total)
	for _, batch := range results {
		for _, rec := range batch {
			if rec.IsZero() {
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	return merged
}
