package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	args := m.Called(ctx, url)
	doc, _ := args.Get(0).(*FetchedDocument)
	return doc, args.Error(1)
}

func document(url, body string) *FetchedDocument {
	return &FetchedDocument{
		URL:        url,
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		FetchedAt:  time.Now(),
	}
}

func TestRetryingFetcher_GivesUpAfterMaxAttempts(t *testing.T) {
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, "https://example.gov").
		Return(nil, &FetchError{URL: "https://example.gov", Attempts: 1, StatusCode: http.StatusServiceUnavailable})

	f := &RetryingFetcher{Next: next, MaxAttempts: 3, Backoff: time.Millisecond}
	doc, attempts, err := f.FetchCounted(context.Background(), "https://example.gov")

	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, 3, attempts)
	next.AssertNumberOfCalls(t, "Fetch", 3)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestRetryingFetcher_SucceedsOnRetry(t *testing.T) {
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, "https://example.gov").Return(nil, fmt.Errorf("connection reset")).Once()
	next.On("Fetch", mock.Anything, "https://example.gov").Return(document("https://example.gov", "ok"), nil).Once()

	f := &RetryingFetcher{Next: next, MaxAttempts: 3, Backoff: time.Millisecond}
	doc, attempts, err := f.FetchCounted(context.Background(), "https://example.gov")

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 2, attempts)
	next.AssertExpectations(t)
}

func TestRetryingFetcher_DeadlineStopsBackoff(t *testing.T) {
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("boom"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f := &RetryingFetcher{Next: next, MaxAttempts: 3, Backoff: time.Hour}
	_, attempts, err := f.FetchCounted(ctx, "https://example.gov")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, ErrScanTimeout)
}

func TestNewRetryingFetcher_Defaults(t *testing.T) {
	f := NewRetryingFetcher(&mockFetcher{}, FetchConfig{})
	assert.Equal(t, 3, f.MaxAttempts)
	assert.Equal(t, time.Second, f.Backoff)

	f = NewRetryingFetcher(&mockFetcher{}, FetchConfig{MaxAttempts: 5, BackoffMS: 250})
	assert.Equal(t, 5, f.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, f.Backoff)
}

func TestHTTPFetcher_StatusAndBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(FetchConfig{TimeoutSeconds: 5}).AllowPrivateNetworks()

	doc, err := f.Fetch(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	body, _ := io.ReadAll(doc.Body)
	assert.Contains(t, string(body), "hello")
	assert.Equal(t, "text/html", doc.ContentType)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.EqualValues(t, 2, hits.Load())
}

func TestHTTPFetcher_BlocksPrivateNetworks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "secret")
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(FetchConfig{TimeoutSeconds: 5}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked private IP")
}

func TestCollyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><article>AI news</article></body></html>")
		}
	}))
	defer srv.Close()

	f := CollyFetcherWithConfig(FetchConfig{TimeoutSeconds: 5}).AllowPrivateNetworks()
	f.DomainDelay = 0

	doc, err := f.Fetch(context.Background(), srv.URL+"/topics/ai/")
	require.NoError(t, err)
	body, _ := io.ReadAll(doc.Body)
	assert.Contains(t, string(body), "AI news")

	_, err = f.Fetch(context.Background(), srv.URL+"/gone")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusGone, fe.StatusCode)
}

func TestCollyFetcher_BlocksPrivateNetworks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "secret")
	}))
	defer srv.Close()

	f := CollyFetcherWithConfig(FetchConfig{TimeoutSeconds: 5})
	f.DomainDelay = 0
	_, err := f.Fetch(context.Background(), srv.URL+"/internal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked private IP")
}

func TestCollyFetcher_SharedCollectorHonorsContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	f := CollyFetcherWithConfig(FetchConfig{TimeoutSeconds: 5}).AllowPrivateNetworks()
	f.DomainDelay = 2 * time.Second
	f.RandomDelayFactor = 0

	// The domain delay holds the response; the caller's deadline wins.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	began := time.Now()
	_, err := f.Fetch(ctx, srv.URL+"/first")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(began), time.Second)

	// Same collector for the next fetch.
	collector := f.collector
	_, _ = f.Fetch(ctx, srv.URL+"/second")
	assert.Same(t, collector, f.collector)
	assert.Eventually(t, func() bool { return hits.Load() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestCollyFetcherWithConfig_RateLimit(t *testing.T) {
	f := CollyFetcherWithConfig(FetchConfig{RateLimitRPS: 4})
	assert.Equal(t, 250*time.Millisecond, f.DomainDelay)
}
