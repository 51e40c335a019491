package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var blockedPrefixStrings = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedPrefixes = func() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(blockedPrefixStrings))
	for _, s := range blockedPrefixStrings {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

// HTTPFetcher performs a single GET per call. Retries are layered on top by
// RetryingFetcher.
type HTTPFetcher struct {
	client         *resty.Client
	acceptLanguage string
}

func NewHTTPFetcher(cfg FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	lang := cfg.AcceptLanguage
	if lang == "" {
		lang = "en-US,en;q=0.5"
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           safeDialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := resty.New().
		SetTimeout(timeout).
		SetTransport(transport).
		SetRedirectPolicy(resty.RedirectPolicyFunc(safeCheckRedirect)).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8").
		SetHeader("Cache-Control", "no-cache")

	return &HTTPFetcher{client: client, acceptLanguage: lang}
}

// AllowPrivateNetworks disables the private address guard. Only meant for
// local fixtures and tests.
func (f *HTTPFetcher) AllowPrivateNetworks() *HTTPFetcher {
	f.client.SetTransport(&http.Transport{Proxy: http.ProxyFromEnvironment})
	f.client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept-Language", f.acceptLanguage).
		Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: 1, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &FetchError{URL: url, Attempts: 1, StatusCode: resp.StatusCode()}
	}

	return &FetchedDocument{
		URL:         url,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        io.NopCloser(bytes.NewReader(resp.Body())),
		FetchedAt:   resp.ReceivedAt(),
		Headers:     resp.Header(),
	}, nil
}

// RetryingFetcher retries any failure a fixed number of times with a fixed
// wait between attempts.
type RetryingFetcher struct {
	Next        Fetcher
	MaxAttempts int
	Backoff     time.Duration
	Log         *logrus.Entry
}

func NewRetryingFetcher(next Fetcher, cfg FetchConfig) *RetryingFetcher {
	return &RetryingFetcher{
		Next:        next,
		MaxAttempts: cfg.attempts(),
		Backoff:     cfg.backoff(),
		Log:         logrus.WithField("component", "fetcher"),
	}
}

// Fetch returns the first successful document. After the last failed attempt
// it returns a *FetchError carrying the number of attempts made.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	doc, _, err := f.FetchCounted(ctx, url)
	return doc, err
}

// FetchCounted is Fetch that also reports how many attempts were made.
func (f *RetryingFetcher) FetchCounted(ctx context.Context, url string) (*FetchedDocument, int, error) {
	attempts := f.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, abandoned(url, attempt-1, err, lastErr)
		}

		doc, err := f.Next.Fetch(ctx, url)
		if err == nil {
			return doc, attempt, nil
		}
		lastErr = err
		f.logger().Warnf("Attempt %d/%d failed for %s: %v", attempt, attempts, url, err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, attempt, abandoned(url, attempt, ctx.Err(), lastErr)
		case <-time.After(f.Backoff):
		}
	}

	fe := &FetchError{URL: url, Attempts: attempts, Err: lastErr}
	var inner *FetchError
	if errors.As(lastErr, &inner) {
		fe.StatusCode = inner.StatusCode
		fe.Err = inner.Err
		if fe.Err == nil {
			fe.Err = fmt.Errorf("status code %d", inner.StatusCode)
		}
	}
	return nil, attempts, fe
}

func (f *RetryingFetcher) logger() *logrus.Entry {
	if f.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return f.Log
}

// abandoned builds the error for a fetch cut short by the scan context.
func abandoned(url string, attempts int, ctxErr, lastErr error) error {
	err := ctxErr
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrScanTimeout, ctxErr)
	}
	if lastErr != nil {
		err = fmt.Errorf("%w (last error: %v)", err, lastErr)
	}
	return &FetchError{URL: url, Attempts: attempts, Err: err}
}

// safeDialContext wraps the default dialer to block private IPs
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("blocked private IP: %s", ip)
		}
	}

	return d.DialContext(ctx, network, addr)
}

// isPrivateIP checks if an IP is in a private range or loopback/link-local
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	if addr, ok := netip.AddrFromSlice(ip); ok {
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr.Unmap()) {
				return true
			}
		}
	}
	return false
}

// safeCheckRedirect limits redirects and validates destinations
func safeCheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}

	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("redirect to internal host blocked")
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return err
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("redirect to private IP blocked: %s", ip)
		}
	}
	return nil
}
