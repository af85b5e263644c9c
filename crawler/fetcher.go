package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/gocolly/colly/v2"
)

const (
	ctxStart  = "start"
	ctxBody   = "body"
	ctxStatus = "status"
)

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchStats counts transport activity since the fetcher was created.
type FetchStats struct {
	Requests int
	Retries  int
}

// CollyFetcher fetches pages through a synchronous colly collector and
// retries transient failures with capped exponential backoff.
type CollyFetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics

	requestCount atomic.Int64
	retryCount   atomic.Int64
}

// NewCollyFetcher builds a fetcher configured from cfg.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if cfg.MaxInFlight > 0 {
		if err := collector.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: cfg.MaxInFlight,
		}); err != nil {
			return nil, fmt.Errorf("configure in-flight limit: %w", err)
		}
	}

	f := &CollyFetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   metrics,
	}
	f.configureHandlers()
	return f, nil
}

// WithTransport swaps the HTTP transport, mainly for tests.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Stats returns request and retry totals.
func (f *CollyFetcher) Stats() FetchStats {
	return FetchStats{
		Requests: int(f.requestCount.Load()),
		Retries:  int(f.retryCount.Load()),
	}
}

func (f *CollyFetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
		f.metrics.IncRequest("started")
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxBody, r.Body)
		f.metrics.IncRequest("completed")
		if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		r.Ctx.Put(ctxStatus, r.StatusCode)
		f.metrics.IncRequest("failed")
	})
}

// Fetch downloads url, retrying up to cfg.MaxRetries additional times.
// Missing and forbidden pages fail immediately.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			f.retryCount.Add(1)
			f.metrics.IncRetries()
			if err := sleepContext(ctx, f.backoff(attempt)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.fetchOnce(url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		category := errorTypeLabel(err)
		f.metrics.IncError(category)
		slog.Debug("fetch attempt failed",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.String("category", category),
			slog.Any("error", err),
		)
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *CollyFetcher) fetchOnce(url string) ([]byte, error) {
	f.requestCount.Add(1)

	reqCtx := colly.NewContext()
	if err := f.collector.Request(http.MethodGet, url, nil, reqCtx, nil); err != nil {
		status, _ := reqCtx.GetAny(ctxStatus).(int)
		return nil, classifyError(err, status)
	}

	body, ok := reqCtx.GetAny(ctxBody).([]byte)
	if !ok {
		return nil, fmt.Errorf("no response body for %s", url)
	}
	return body, nil
}

func (f *CollyFetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		return 0
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
