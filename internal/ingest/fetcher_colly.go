package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

const collyResultKey = "result"

type collyResult struct {
	doc *FetchedDocument
	err error
}

// CollyFetcher implements Fetcher using Colly. One collector serves every
// request, so the per-domain delay spaces out consecutive fetches. Retries are
// left to RetryingFetcher.
type CollyFetcher struct {
	UserAgent         string
	RequestTimeout    time.Duration
	DomainDelay       time.Duration
	RandomDelayFactor float64
	IgnoreRobotsTxt   bool
	MaxBodySize       int // bytes, 0 = unlimited
	DetectCharset     bool

	allowPrivate bool
	once         sync.Once
	collector    *colly.Collector
}

// NewCollyFetcher creates a CollyFetcher with sensible defaults.
func NewCollyFetcher() *CollyFetcher {
	return &CollyFetcher{
		UserAgent:         defaultUserAgent,
		RequestTimeout:    30 * time.Second,
		DomainDelay:       1 * time.Second,
		RandomDelayFactor: 0.5,
		IgnoreRobotsTxt:   false,
		MaxBodySize:       10 * 1024 * 1024, // 10MB
		DetectCharset:     true,
	}
}

// CollyFetcherWithConfig creates a CollyFetcher from a FetchConfig.
func CollyFetcherWithConfig(cfg FetchConfig) *CollyFetcher {
	f := NewCollyFetcher()
	if cfg.TimeoutSeconds > 0 {
		f.RequestTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimitRPS > 0 {
		f.DomainDelay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}
	return f
}

// AllowPrivateNetworks disables the private address guard. Only meant for
// local fixtures and tests; call it before the first Fetch.
func (f *CollyFetcher) AllowPrivateNetworks() *CollyFetcher {
	f.allowPrivate = true
	return f
}

func (f *CollyFetcher) buildCollector() {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.Async(true),
	}
	if f.DetectCharset {
		opts = append(opts, colly.DetectCharset())
	}
	if f.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(opts...)
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !f.allowPrivate {
		transport.DialContext = safeDialContext
	}
	c.WithTransport(transport)
	c.SetRequestTimeout(f.RequestTimeout)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
		RandomDelay: time.Duration(float64(f.DomainDelay) * f.RandomDelayFactor),
	})

	c.OnResponse(func(r *colly.Response) {
		deliver(r.Ctx, collyResult{doc: &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        io.NopCloser(bytes.NewReader(r.Body)),
			FetchedAt:   time.Now(),
			Headers:     map[string][]string(r.Headers.Clone()),
		}})
	})
	c.OnError(func(r *colly.Response, err error) {
		fe := &FetchError{URL: r.Request.URL.String(), Attempts: 1, StatusCode: r.StatusCode, Err: err}
		deliver(r.Ctx, collyResult{err: fe})
	})
	c.OnScraped(func(r *colly.Response) {
		deliver(r.Ctx, collyResult{})
	})
	f.collector = c
}

// deliver hands a request's outcome to the Fetch call waiting on it. Only the
// first outcome counts.
func deliver(ctx *colly.Context, res collyResult) {
	ch, ok := ctx.GetAny(collyResultKey).(chan collyResult)
	if !ok {
		return
	}
	select {
	case ch <- res:
	default:
	}
}

// Fetch implements the Fetcher interface. It stops waiting as soon as ctx is
// done, including while the collector holds the request for its domain delay.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.once.Do(f.buildCollector)

	results := make(chan collyResult, 1)
	reqCtx := colly.NewContext()
	reqCtx.Put(collyResultKey, results)

	if err := f.collector.Request(http.MethodGet, targetURL, nil, reqCtx, nil); err != nil {
		return nil, &FetchError{URL: targetURL, Attempts: 1, Err: err}
	}

	// Colly drops a few failure paths without a callback.
	wait := time.NewTimer(f.RequestTimeout + 2*f.DomainDelay)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wait.C:
		return nil, &FetchError{URL: targetURL, Attempts: 1, Err: fmt.Errorf("no response received")}
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		if res.doc == nil {
			return nil, &FetchError{URL: targetURL, Attempts: 1, Err: fmt.Errorf("no response received")}
		}
		return res.doc, nil
	}
}
