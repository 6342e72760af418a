package network

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/broadsheet/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Broadsheet/1.0"

	// maxBodySize caps any single response; artwork is the largest payload
	maxBodySize = 16 << 20
)

// Fetcher is the HTTP implementation of domain.Fetcher.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	store      domain.ResponseStore
	logger     *slog.Logger

	mu       sync.RWMutex
	delegate domain.FetcherDelegate
}

var _ domain.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher for the API at baseURL.
// store may be nil, in which case nothing is cached.
func NewFetcher(baseURL string, timeout time.Duration, store domain.ResponseStore, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		logger: logger,
	}
}

// SetDelegate installs the delegate consulted for headers and stream
// transformation on every subsequent Fetch.
func (f *Fetcher) SetDelegate(d domain.FetcherDelegate) {
	f.mu.Lock()
	f.delegate = d
	f.mu.Unlock()
}

func (f *Fetcher) getDelegate() domain.FetcherDelegate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.delegate
}

// Fetch returns a cold stream: the request starts when the stream is
// subscribed and the result is delivered from a background goroutine.
// The delegate, if any, gets to wrap the stream before it is returned.
func (f *Fetcher) Fetch(ctx context.Context, req domain.Request) domain.Stream {
	raw := domain.StreamFunc(func(deliver func(domain.Result)) {
		go func() {
			data, err := f.do(ctx, req)
			deliver(domain.Result{Data: data, Err: err})
		}()
	})

	if d := f.getDelegate(); d != nil {
		return d.TransformStream(f, raw)
	}
	return raw
}

// Evict removes the cached response for req, if any
func (f *Fetcher) Evict(req domain.Request) {
	if !req.Cacheable || f.store == nil {
		return
	}
	reqURL, err := f.resolve(req.Path)
	if err != nil {
		return
	}
	f.logger.Debug("evicting cached response", "url", reqURL)
	f.store.Delete(reqURL)
}

// resolve turns a request path into an absolute URL
func (f *Fetcher) resolve(path string) (string, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path, nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("relative path %q without base URL", path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.baseURL + path, nil
}

// do performs the request, consulting the response store for cacheable requests
func (f *Fetcher) do(ctx context.Context, req domain.Request) ([]byte, error) {
	reqURL, err := f.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	if req.Cacheable && f.store != nil {
		if data, ok := f.store.Get(reqURL); ok {
			f.logger.Debug("response cache hit", "url", reqURL)
			return data, nil
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	if d := f.getDelegate(); d != nil {
		for k, v := range d.Headers(f) {
			httpReq.Header.Set(k, v)
		}
	}

	f.logger.Debug("request", "method", method, "url", reqURL)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("request failed", "url", reqURL, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("request error", "url", reqURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	if req.Cacheable && f.store != nil {
		if err := f.store.Put(reqURL, body); err != nil {
			f.logger.Warn("failed to cache response", "url", reqURL, "error", err)
		}
	}

	return body, nil
}
