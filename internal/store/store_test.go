package store

import (
	"bytes"
	"testing"
)

func TestMemoryOnlyStore(t *testing.T) {
	s, err := NewResponseStore("", "")
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	defer s.Close()

	if _, ok := s.Get("http://a/1.png"); ok {
		t.Fatal("expected miss on empty store")
	}

	if err := s.Put("http://a/1.png", []byte("png")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get("http://a/1.png")
	if !ok || string(got) != "png" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	s.Delete("http://a/1.png")
	if _, ok := s.Get("http://a/1.png"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewResponseStore(dir, "http://api.example.com/")
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	payload := []byte{0x89, 'P', 'N', 'G'}
	if err := s.Put("http://img/1.png", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Trailing slash and case must map to the same directory
	s, err = NewResponseStore(dir, "HTTP://API.EXAMPLE.COM")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok := s.Get("http://img/1.png")
	if !ok {
		t.Fatal("expected hit after reopen")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get = %v, want %v", got, payload)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := NewResponseStore("", "")
	s.Put("k", []byte("abc"))

	got, _ := s.Get("k")
	got[0] = 'z'

	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Errorf("cached value mutated through returned slice: %q", again)
	}
}

func TestDeletePrefixAndInvalidateAll(t *testing.T) {
	s, err := NewResponseStore(t.TempDir(), "http://api")
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	defer s.Close()

	for _, k := range []string{"http://a/1.png", "http://a/2.png", "http://b/1.png"} {
		if err := s.Put(k, []byte(k)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	s.DeletePrefix("http://a/")
	if _, ok := s.Get("http://a/1.png"); ok {
		t.Error("http://a/1.png survived DeletePrefix")
	}
	if _, ok := s.Get("http://a/2.png"); ok {
		t.Error("http://a/2.png survived DeletePrefix")
	}
	if _, ok := s.Get("http://b/1.png"); !ok {
		t.Error("http://b/1.png removed by unrelated prefix")
	}

	s.InvalidateAll()
	if s.Len() != 0 {
		t.Errorf("Len = %d after InvalidateAll", s.Len())
	}
	if _, ok := s.Get("http://b/1.png"); ok {
		t.Error("entry survived InvalidateAll")
	}
}

func TestHashServerURLIsStable(t *testing.T) {
	a := hashServerURL("http://Example.com/")
	b := hashServerURL("http://example.com")
	if a != b {
		t.Errorf("hash mismatch: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("hash length = %d, want 12", len(a))
	}
}
