// Package devserver serves a small JSON:API article feed with generated
// artwork. It backs demo mode and the integration tests.
package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const jsonAPIMediaType = "application/vnd.api+json"

// Fixture is one article served by the demo API.
type Fixture struct {
	ID          string
	Title       string
	Description string // HTML
	Color       color.RGBA
	ReleasedAt  time.Time
}

// DemoArticles returns the fixtures used by demo mode.
func DemoArticles() []Fixture {
	base := time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)
	return []Fixture{
		{"1", "Getting Started with Combine", "<p>Learn the <b>basics</b> of publishers and subscribers.</p>", color.RGBA{229, 160, 13, 255}, base},
		{"2", "Unsafe Swift", "<p>Work with raw pointers and memory layout.</p>", color.RGBA{59, 130, 246, 255}, base.AddDate(0, 0, 7)},
		{"3", "Generics in Depth", "<p>Protocols with associated types, type erasure &amp; more.</p>", color.RGBA{16, 185, 129, 255}, base.AddDate(0, 0, 14)},
		{"4", "Concurrency Patterns", "<p>Queues, locks and structured tasks.</p>", color.RGBA{239, 68, 68, 255}, base.AddDate(0, 0, 21)},
		{"5", "API Design Guidelines", "<p>Naming, argument labels and fluent usage.</p>", color.RGBA{156, 163, 175, 255}, base.AddDate(0, 0, 28)},
	}
}

// Server is the demo article API.
type Server struct {
	logger *slog.Logger

	mu       sync.RWMutex
	fixtures []Fixture
	failing  bool
	hits     map[string]int
}

// New creates a server for fixtures.
func New(fixtures []Fixture, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		fixtures: fixtures,
		hits:     make(map[string]int),
	}
}

// SetFixtures swaps the served articles.
func (s *Server) SetFixtures(fixtures []Fixture) {
	s.mu.Lock()
	s.fixtures = fixtures
	s.mu.Unlock()
}

// SetFailing makes every API route answer 503 until reset.
func (s *Server) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

// Hits returns how many requests a route path has served.
func (s *Server) Hits(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[path]
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.failureMiddleware)
	api.Use(jsonAPIMiddleware)
	api.HandleFunc("/articles", s.articlesHandler).Methods("GET")

	r.HandleFunc("/images/{id:[^/.]+}.png", s.imageHandler).Methods("GET")

	return r
}

// Start listens on addr and serves in the background. It returns the base
// URL and a shutdown func.
func (s *Server) Start(addr string) (string, func(context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("demo server stopped", "error", err)
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	s.logger.Info("demo server listening", "url", baseURL)
	return baseURL, srv.Shutdown, nil
}

func (s *Server) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		failing := s.failing
		s.mu.RUnlock()
		if failing {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonAPIMiddleware rejects requests that do not negotiate JSON:API
func jsonAPIMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), jsonAPIMediaType) {
			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type resource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fixtures := s.fixtures
	s.mu.RUnlock()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	data := make([]resource, 0, len(fixtures))
	for _, f := range fixtures {
		data = append(data, resource{
			ID:   f.ID,
			Type: "articles",
			Attributes: map[string]any{
				"name":             f.Title,
				"description":      f.Description,
				"card_artwork_url": fmt.Sprintf("%s/images/%s.png", base, f.ID),
				"released_at":      f.ReleasedAt.Format(time.RFC3339),
				"uri":              fmt.Sprintf("%s/articles/%s", base, f.ID),
			},
		})
	}

	w.Header().Set("Content-Type", jsonAPIMediaType)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		s.logger.Error("failed to encode articles", "error", err)
	}
}

func (s *Server) imageHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	var fixture *Fixture
	for i := range s.fixtures {
		if s.fixtures[i].ID == id {
			fixture = &s.fixtures[i]
			break
		}
	}
	s.mu.RUnlock()

	if fixture == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, artwork(fixture.Color)); err != nil {
		s.logger.Error("failed to encode artwork", "id", id, "error", err)
	}
}

// artwork draws a vertical gradient from c to black
func artwork(c color.RGBA) image.Image {
	const w, h = 64, 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		f := float64(h-y) / float64(h)
		shade := color.RGBA{
			R: uint8(float64(c.R) * f),
			G: uint8(float64(c.G) * f),
			B: uint8(float64(c.B) * f),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, shade)
		}
	}
	return img
}
