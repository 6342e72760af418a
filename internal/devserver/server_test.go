package devserver

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, h http.Handler, path, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestArticlesRoute(t *testing.T) {
	s := New(DemoArticles(), nil)
	rec := get(t, s.Router(), "/api/articles", "application/vnd.api+json;charset=utf-8")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var doc struct {
		Data []struct {
			ID         string            `json:"id"`
			Type       string            `json:"type"`
			Attributes map[string]string `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Data) != len(DemoArticles()) {
		t.Fatalf("got %d articles, want %d", len(doc.Data), len(DemoArticles()))
	}
	first := doc.Data[0]
	if first.ID != "1" || first.Type != "articles" {
		t.Errorf("first resource = %+v", first)
	}
	if got := first.Attributes["card_artwork_url"]; got != "http://example.com/images/1.png" {
		t.Errorf("card_artwork_url = %q", got)
	}
	if s.Hits("/api/articles") != 1 {
		t.Errorf("Hits = %d, want 1", s.Hits("/api/articles"))
	}
}

func TestArticlesRouteRequiresJSONAPI(t *testing.T) {
	s := New(DemoArticles(), nil)
	rec := get(t, s.Router(), "/api/articles", "application/json")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestArticlesRouteFailing(t *testing.T) {
	s := New(DemoArticles(), nil)
	s.SetFailing(true)
	rec := get(t, s.Router(), "/api/articles", jsonAPIMediaType)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestImageRoute(t *testing.T) {
	s := New(DemoArticles(), nil)

	rec := get(t, s.Router(), "/images/2.png", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("size = %v", img.Bounds())
	}

	if rec := get(t, s.Router(), "/images/99.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}
