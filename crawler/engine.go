// Package crawler walks the book catalog and feeds the aggregator.
//
// Two traversal strategies share one page-processing step. The parallel
// strategy spawns a task for every discovered link and waits on the whole
// task tree; the serial strategy drains a FIFO queue and serves as the
// baseline the parallel run is checked against. The Ledger is the only
// cycle breaker in both.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aluiziolira/go-crawl-books/models"
	"github.com/aluiziolira/go-crawl-books/parser"
	"github.com/aluiziolira/go-crawl-books/stats"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Strategy names a traversal strategy.
type Strategy string

const (
	Serial   Strategy = "serial"
	Parallel Strategy = "parallel"
)

// ParseStrategy maps a name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case Serial, Parallel:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown strategy %q", name)
	}
}

// Engine orchestrates fetch, extract, resolve, claim and aggregate.
type Engine struct {
	fetcher    Fetcher
	extractor  parser.Extractor
	resolver   *Resolver
	ledger     *Ledger
	aggregator *stats.Aggregator
	metrics    *Metrics
	categories mapset.Set[string]

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int
}

// NewEngine wires an engine. A nil resolver falls back to uncached resolution.
func NewEngine(fetcher Fetcher, extractor parser.Extractor, resolver *Resolver, metrics *Metrics) *Engine {
	return &Engine{
		fetcher:      fetcher,
		extractor:    extractor,
		resolver:     resolver,
		ledger:       NewLedger(),
		aggregator:   stats.NewAggregator(),
		metrics:      metrics,
		categories:   mapset.NewSet[string](),
		errorsByType: make(map[string]int),
	}
}

// Ledger exposes the visitation ledger.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Aggregator exposes the statistics accumulator.
func (e *Engine) Aggregator() *stats.Aggregator {
	return e.aggregator
}

// Categories returns the category labels seen so far, sorted.
func (e *Engine) Categories() []string {
	out := e.categories.ToSlice()
	sort.Strings(out)
	return out
}

// Reset clears all state shared by crawl workers. Only call between runs.
func (e *Engine) Reset() {
	e.ledger.Reset()
	e.aggregator.Reset()
	e.categories.Clear()

	e.mu.Lock()
	e.failedURLs = nil
	e.errorsByType = make(map[string]int)
	e.mu.Unlock()
}

// Run executes one strategy from start and returns its timing and a
// snapshot taken after every worker has finished.
func (e *Engine) Run(ctx context.Context, strategy Strategy, start string) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	before := e.fetchStats()
	began := time.Now()
	switch strategy {
	case Serial:
		e.CrawlSerial(ctx, start)
	case Parallel:
		e.CrawlParallel(ctx, start)
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	ended := time.Now()
	after := e.fetchStats()

	elapsed := ended.Sub(began)
	e.metrics.SetRunDuration(strategy, elapsed)

	failed, errorsByType := e.snapshotFailures()
	return &models.RunResult{
		Strategy:     string(strategy),
		StartTime:    began,
		EndTime:      ended,
		Elapsed:      elapsed,
		Visited:      e.ledger.Size(),
		VisitedURLs:  e.ledger.URLs(),
		Categories:   e.Categories(),
		State:        e.aggregator.Snapshot(),
		FailedURLs:   failed,
		ErrorsByType: errorsByType,
		RetryCount:   after.Retries - before.Retries,
		RequestCount: after.Requests - before.Requests,
	}, nil
}

// CrawlParallel processes start and spawns one task per discovered link,
// recursively, returning once the entire task tree has finished.
func (e *Engine) CrawlParallel(ctx context.Context, start string) {
	var g errgroup.Group
	e.spawn(ctx, &g, start)
	_ = g.Wait()
}

func (e *Engine) spawn(ctx context.Context, g *errgroup.Group, url string) {
	for _, next := range e.process(ctx, Parallel, url) {
		g.Go(func() error {
			e.spawn(ctx, g, next)
			return nil
		})
	}
}

// CrawlSerial walks the link graph breadth-first from start.
func (e *Engine) CrawlSerial(ctx context.Context, start string) {
	queue := []string{start}
	for len(queue) > 0 {
		url := queue[0]
		queue = queue[1:]
		queue = append(queue, e.process(ctx, Serial, url)...)
	}
}

// process runs one URL through claim, fetch, extract, aggregate and
// resolve. It returns the absolute links to expand, or nil when the URL
// was already claimed or turned out to be a dead end.
func (e *Engine) process(ctx context.Context, strategy Strategy, url string) []string {
	claimed := e.ledger.Claim(url)
	e.metrics.IncClaim(strategy, claimed)
	if !claimed {
		return nil
	}

	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.recordFailure(url, err)
		return nil
	}

	page, err := e.extractor.Extract(body, url)
	if err != nil {
		e.recordFailure(url, err)
		return nil
	}

	if page.Category != "" {
		e.categories.Add(page.Category)
	}
	e.aggregator.Record(page.Records)
	e.metrics.AddRecords(strategy, len(page.Records))

	links := make([]string, 0, len(page.Links))
	for _, link := range page.Links {
		if abs := e.resolver.Resolve(link, url); abs != "" {
			links = append(links, abs)
		}
	}

	slog.Debug("page expanded",
		slog.String("strategy", string(strategy)),
		slog.String("url", url),
		slog.Int("records", len(page.Records)),
		slog.Int("links", len(links)),
	)
	return links
}

func (e *Engine) recordFailure(url string, err error) {
	category := errorTypeLabel(err)

	e.mu.Lock()
	e.failedURLs = append(e.failedURLs, url)
	e.errorsByType[category]++
	e.mu.Unlock()

	slog.Warn("page skipped",
		slog.String("url", url),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func (e *Engine) snapshotFailures() ([]string, map[string]int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	failed := make([]string, len(e.failedURLs))
	copy(failed, e.failedURLs)
	sort.Strings(failed)
	errorsByType := make(map[string]int, len(e.errorsByType))
	for k, v := range e.errorsByType {
		errorsByType[k] = v
	}
	return failed, errorsByType
}

func (e *Engine) fetchStats() FetchStats {
	if s, ok := e.fetcher.(interface{ Stats() FetchStats }); ok {
		return s.Stats()
	}
	return FetchStats{}
}
