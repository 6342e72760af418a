package tui

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/broadsheet/internal/articles"
	"github.com/mmcdole/broadsheet/internal/devserver"
	"github.com/mmcdole/broadsheet/internal/network"
	"github.com/mmcdole/broadsheet/internal/store"
)

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

type harness struct {
	api    *devserver.Server
	vm     *articles.ViewModel
	opener *fakeOpener
	m      Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := devserver.New(devserver.DemoArticles(), nil)
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	responses, err := store.NewResponseStore("", srv.URL)
	if err != nil {
		t.Fatalf("NewResponseStore: %v", err)
	}
	t.Cleanup(func() { responses.Close() })

	sched := NewProgramScheduler()
	t.Cleanup(sched.Close)

	fetcher := network.NewFetcher(srv.URL, 5*time.Second, responses, nil)
	vm := articles.NewViewModel(fetcher, sched, "", nil)
	t.Cleanup(vm.Close)

	opener := &fakeOpener{}
	m := NewModel(vm, sched, Options{ShowThumbnails: true, ThumbnailWidth: 16, Opener: opener})
	h := &harness{api: api, vm: vm, opener: opener, m: m}
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	updated, cmd := h.m.Update(msg)
	h.m = updated.(Model)
	return cmd
}

func (h *harness) key(s string) {
	switch s {
	case "esc":
		h.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "enter":
		h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "down":
		h.update(tea.KeyMsg{Type: tea.KeyDown})
	default:
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

// pumpUntil feeds scheduler messages into the model until cond holds
func (h *harness) pumpUntil(t *testing.T, cond func(Model) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(h.m) {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		msg := runCmd(t, h.m.Sched.Next())
		if msg == nil {
			t.Fatal("scheduler closed")
		}
		h.update(msg)
	}
}

func loaded(m Model) bool { return !m.Loading }

func imageAttached(id string) func(Model) bool {
	return func(m Model) bool {
		a, ok := m.VM.Article(id)
		return ok && a.HasImage()
	}
}

func TestModelLoadsArticlesOnRefresh(t *testing.T) {
	h := newHarness(t)

	h.update(RefreshMsg{})
	if !h.m.Loading {
		t.Fatal("expected Loading after RefreshMsg")
	}
	h.pumpUntil(t, loaded)

	if got := h.m.List.Len(); got != 5 {
		t.Fatalf("List.Len() = %d, want 5", got)
	}
	if h.m.StatusIsErr {
		t.Errorf("unexpected error status %q", h.m.StatusMsg)
	}
	if !strings.Contains(h.m.View(), "Getting Started with Combine") {
		t.Error("view does not show the first article")
	}
}

func TestModelLoadsArtworkForSelection(t *testing.T) {
	h := newHarness(t)
	h.update(RefreshMsg{})
	h.pumpUntil(t, loaded)
	h.pumpUntil(t, imageAttached("1"))

	if got := h.m.Detail.ArticleID(); got != "1" {
		t.Errorf("detail shows %q, want 1", got)
	}

	h.key("down")
	if sel, _ := h.m.List.Selected(); sel.ID != "2" {
		t.Fatalf("selected %q, want 2", sel.ID)
	}
	h.pumpUntil(t, imageAttached("2"))

	if a, _ := h.m.VM.Article("3"); a.HasImage() {
		t.Error("artwork loaded for an unselected article")
	}
}

func TestModelFailedRefreshEmptiesList(t *testing.T) {
	h := newHarness(t)
	h.update(RefreshMsg{})
	h.pumpUntil(t, loaded)

	h.api.SetFailing(true)
	h.key("r")
	if !h.m.Loading {
		t.Fatal("expected Loading after refresh key")
	}
	h.pumpUntil(t, loaded)

	if got := h.m.List.Len(); got != 0 {
		t.Errorf("List.Len() = %d, want 0", got)
	}
	if !h.m.StatusIsErr {
		t.Error("expected error status for empty list")
	}
	if got := h.m.Detail.ArticleID(); got != "" {
		t.Errorf("detail still shows %q", got)
	}
}

func TestModelFilter(t *testing.T) {
	h := newHarness(t)
	h.update(RefreshMsg{})
	h.pumpUntil(t, loaded)

	h.key("/")
	if !h.m.Filtering {
		t.Fatal("expected filter mode")
	}
	for _, r := range "swift" {
		h.key(string(r))
	}
	if got := h.m.List.Len(); got != 1 {
		t.Fatalf("List.Len() = %d, want 1", got)
	}
	if sel, _ := h.m.List.Selected(); sel.ID != "2" {
		t.Errorf("selected %q, want 2", sel.ID)
	}

	h.key("enter")
	if h.m.Filtering {
		t.Error("enter should leave filter mode")
	}
	if got := h.m.List.Len(); got != 1 {
		t.Errorf("filter not kept after enter: %d rows", got)
	}

	h.key("esc")
	if got := h.m.List.Len(); got != 5 {
		t.Errorf("List.Len() = %d after clearing filter, want 5", got)
	}
}

func TestModelQuitKeys(t *testing.T) {
	h := newHarness(t)

	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}

	// q is text while filtering
	h.key("/")
	cmd = h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("q quit while filtering")
		}
	}
	if got := h.m.FilterInput.Value(); got != "q" {
		t.Errorf("filter value = %q, want q", got)
	}
}

func TestModelToggleThumbnails(t *testing.T) {
	h := newHarness(t)
	h.key("t")
	if h.m.ShowThumbnails {
		t.Error("t should hide artwork")
	}
	h.key("t")
	if !h.m.ShowThumbnails {
		t.Error("t should show artwork again")
	}
}

func TestModelOpenLink(t *testing.T) {
	h := newHarness(t)
	h.update(RefreshMsg{})
	h.pumpUntil(t, loaded)

	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	h.update(cmd())

	if len(h.opener.opened) != 1 || !strings.HasSuffix(h.opener.opened[0], "/articles/1") {
		t.Fatalf("opened %v", h.opener.opened)
	}
	if h.m.StatusIsErr {
		t.Errorf("unexpected error status %q", h.m.StatusMsg)
	}
}

func TestModelScheduledRefreshShowsLoading(t *testing.T) {
	h := newHarness(t)
	h.update(RefreshMsg{})
	h.pumpUntil(t, loaded)
	h.pumpUntil(t, imageAttached("1"))

	h.api.SetFixtures(devserver.DemoArticles()[:2])
	h.m.Sched.Post(h.m.ScheduledRefresh())

	msg := runCmd(t, h.m.Sched.Next())
	h.update(msg)
	if !h.m.Loading {
		t.Fatal("scheduled refresh did not set Loading")
	}
	h.pumpUntil(t, loaded)
	if got := h.m.List.Len(); got != 2 {
		t.Errorf("List.Len() = %d after scheduled refresh, want 2", got)
	}
}
