package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/broadsheet/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketResponses = []byte("responses")

// ResponseStore implements domain.ResponseStore using BoltDB.
type ResponseStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.ResponseStore = (*ResponseStore)(nil)

// NewResponseStore opens the response cache for one API server.
// An empty baseCacheDir yields a memory-only store.
func NewResponseStore(baseCacheDir, serverURL string) (*ResponseStore, error) {
	if baseCacheDir == "" {
		return &ResponseStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "broadsheet.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ResponseStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *ResponseStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns a copy of the cached body for url.
func (s *ResponseStore) Get(url string) ([]byte, bool) {
	s.mu.RLock()
	if data, ok := s.cache[url]; ok {
		s.mu.RUnlock()
		return clone(data), true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResponses)
		if b == nil {
			return nil
		}
		// Bolt values are only valid inside the transaction
		if v := b.Get([]byte(url)); v != nil {
			data = clone(v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[url] = data
	s.mu.Unlock()

	return clone(data), true
}

// Put stores data under url in memory and, when persistent, on disk.
func (s *ResponseStore) Put(url string, data []byte) error {
	data = clone(data)

	s.mu.Lock()
	s.cache[url] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResponses)
		return b.Put([]byte(url), data)
	})
}

func (s *ResponseStore) Delete(url string) {
	s.mu.Lock()
	delete(s.cache, url)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResponses)
		if b != nil {
			b.Delete([]byte(url))
		}
		return nil
	})
}

// DeletePrefix removes every entry whose URL starts with prefix,
// e.g. all artwork from one image host.
func (s *ResponseStore) DeletePrefix(prefix string) {
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResponses)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		// Collect first; deleting while iterating a cursor skips keys
		var keys [][]byte
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ResponseStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketResponses) != nil {
			if err := tx.DeleteBucket(bucketResponses); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket(bucketResponses)
		return err
	})
}

// Len returns the number of persisted entries (memory entries when memory-only).
func (s *ResponseStore) Len() int {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.cache)
	}

	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketResponses); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
