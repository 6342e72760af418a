package domain

// ResponseStore caches raw response bodies keyed by absolute URL.
// The fetcher consults it for cacheable requests only.
type ResponseStore interface {
	Get(url string) ([]byte, bool)
	Put(url string, data []byte) error
	Delete(url string)

	// InvalidateAll wipes every cached response
	InvalidateAll()

	Close() error
}
