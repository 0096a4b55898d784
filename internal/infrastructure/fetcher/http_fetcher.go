// Package fetcher downloads article pages for image extraction.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultAcceptLanguage = "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"
	defaultTimeout        = 5 * time.Second
	defaultMaxBodyBytes   = 4 << 20
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// HTTPFetcher fetches pages with browser-like headers, a per-request timeout,
// a body size limit and an optional fetch budget.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
	maxBodyBytes   int64
	limiter        *middleware.RateLimiter
	withMetrics    middleware.WithMetrics
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = client }
}

// WithMetrics times every fetch into collector.
func WithMetrics(collector *middleware.MetricsCollector) Option {
	return func(f *HTTPFetcher) { f.withMetrics = middleware.NewMetricsMiddleware(collector) }
}

func NewHTTPFetcher(cfg model.ScrapeConfig, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		timeout:        cfg.Timeout,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.acceptLanguage == "" {
		f.acceptLanguage = DefaultAcceptLanguage
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	if f.maxBodyBytes <= 0 {
		f.maxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.MaxPageFetches > 0 {
		window := cfg.FetchWindow
		if window <= 0 {
			window = time.Minute
		}
		f.limiter = middleware.NewRateLimiter(cfg.MaxPageFetches, window)
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: f.timeout,
				TLSHandshakeTimeout:   f.timeout,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	return f
}

// Fetch returns the body of pageURL. The configured timeout always bounds
// the request, whatever deadline ctx carries.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var body []byte
	run := func() error {
		b, err := f.fetch(ctx, pageURL)
		body = b
		return err
	}

	err := f.limiter.WithLimiter(ctx, func() error {
		if f.withMetrics != nil {
			return f.withMetrics(ctx, run)
		}
		return run()
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return body, nil
}
