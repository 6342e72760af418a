package articles

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/broadsheet/internal/devserver"
	"github.com/mmcdole/broadsheet/internal/mainloop"
	"github.com/mmcdole/broadsheet/internal/network"
	"github.com/mmcdole/broadsheet/internal/store"
)

func TestViewModelAgainstDemoServer(t *testing.T) {
	api := devserver.New(devserver.DemoArticles(), nil)
	srv := httptest.NewServer(api.Router())
	defer srv.Close()

	responses, err := store.NewResponseStore(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	defer responses.Close()

	loop := mainloop.NewLoop()
	fetcher := network.NewFetcher(srv.URL, 5*time.Second, responses, nil)
	vm := NewViewModel(fetcher, loop, "/api/articles", nil)
	defer vm.Close()

	vm.LoadArticles()
	drain(t, loop, 1)

	list := vm.Articles()
	if got := ids(list); !equalIDs(got, []string{"1", "2", "3", "4", "5"}) {
		t.Fatalf("ids = %v", got)
	}
	if list[2].Description != "Protocols with associated types, type erasure & more." {
		t.Errorf("Description = %q", list[2].Description)
	}

	vm.LoadImage(list[0])
	drain(t, loop, 1)
	if first, _ := vm.Article("1"); first.DownloadedImage == nil {
		t.Fatal("artwork not attached")
	}
	if _, ok := responses.Get(srv.URL + "/images/1.png"); !ok {
		t.Error("artwork not cached")
	}

	// Reloading yields fresh entries; artwork comes from the cache
	vm.LoadArticles()
	drain(t, loop, 1)
	first, _ := vm.Article("1")
	if first.DownloadedImage != nil {
		t.Fatal("reload kept stale image")
	}
	vm.LoadImage(first)
	drain(t, loop, 1)
	if first, _ := vm.Article("1"); first.DownloadedImage == nil {
		t.Fatal("cached artwork not attached")
	}
	if hits := api.Hits("/images/1.png"); hits != 1 {
		t.Errorf("artwork fetched %d times, want 1", hits)
	}

	api.SetFailing(true)
	vm.LoadArticles()
	drain(t, loop, 1)
	if n := len(vm.Articles()); n != 0 {
		t.Errorf("list has %d articles after server failure, want 0", n)
	}
}

func TestUndecodableArtworkIsNotCached(t *testing.T) {
	artwork := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/articles":
			w.Write([]byte(`[{"id":"1","image":"/images/1.png"}]`))
		case "/images/1.png":
			// A maintenance page first, the real artwork afterwards
			if hits.Add(1) == 1 {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>back soon</html>"))
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(artwork)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	responses, err := store.NewResponseStore("", srv.URL)
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	defer responses.Close()

	loop := mainloop.NewLoop()
	vm := NewViewModel(network.NewFetcher(srv.URL, 5*time.Second, responses, nil), loop, "/api/articles", nil)
	defer vm.Close()

	vm.LoadArticles()
	drain(t, loop, 1)

	vm.LoadImage(vm.Articles()[0])
	drain(t, loop, 1)
	if vm.Articles()[0].HasImage() {
		t.Fatal("maintenance page decoded as artwork")
	}
	if _, ok := responses.Get(srv.URL + "/images/1.png"); ok {
		t.Fatal("undecodable body left in the cache")
	}

	vm.LoadImage(vm.Articles()[0])
	drain(t, loop, 1)
	if n := hits.Load(); n != 2 {
		t.Errorf("artwork requested %d times, want 2", n)
	}
	if !vm.Articles()[0].HasImage() {
		t.Error("artwork not recovered after the server came back")
	}
}
