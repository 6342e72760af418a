package domain

import (
	"context"
	"net/http"
)

// Request describes a single fetch. Path is resolved against the fetcher's
// base URL unless it is already absolute.
type Request struct {
	Method string
	Path   string

	// Cacheable requests may be answered from the response store
	Cacheable bool
}

// ArticleRequest builds the request for the article list.
func ArticleRequest(path string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

// ImageRequest builds the request for a piece of artwork.
// Artwork is immutable per URL, so it is cacheable.
func ImageRequest(locator string) Request {
	return Request{Method: http.MethodGet, Path: locator, Cacheable: true}
}

// Result is the raw outcome of a fetch: the body bytes or a transport error.
type Result struct {
	Data []byte
	Err  error
}

// Stream is a single-shot asynchronous response. Subscribe registers the
// continuation that receives the Result; it is invoked exactly once, on
// whatever goroutine the producer chooses.
type Stream interface {
	Subscribe(fn func(Result))
}

// StreamFunc adapts a plain function to Stream.
type StreamFunc func(fn func(Result))

// Subscribe implements Stream.
func (f StreamFunc) Subscribe(fn func(Result)) { f(fn) }

// Fetcher performs request transport. The caller decodes the response.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) Stream
	SetDelegate(d FetcherDelegate)

	// Evict drops any cached response for req
	Evict(req Request)
}

// FetcherDelegate customizes every request a Fetcher issues.
type FetcherDelegate interface {
	// Headers returns the headers added to every outgoing request
	Headers(f Fetcher) map[string]string

	// TransformStream wraps every raw response before the caller sees it
	TransformStream(f Fetcher, s Stream) Stream
}
