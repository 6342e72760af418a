package adapter

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

type startCall struct {
	name string
	args []string
}

func newTestLauncher(cfg BrowserConfig, inPath ...string) (*Launcher, *[]startCall) {
	var calls []startCall
	l := NewLauncher(cfg, NullLogger())
	l.lookPath = func(name string) (string, error) {
		for _, p := range inPath {
			if p == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	l.start = func(name string, args ...string) error {
		calls = append(calls, startCall{name: name, args: args})
		return nil
	}
	return l, &calls
}

func TestLauncherConfiguredCommand(t *testing.T) {
	l, calls := newTestLauncher(BrowserConfig{Command: "lynx", Args: []string{"-accept_all_cookies"}})

	if err := l.Open("https://example.com/a/1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("got %d launches, want 1", len(*calls))
	}
	got := (*calls)[0]
	if got.name != "lynx" || strings.Join(got.args, " ") != "-accept_all_cookies https://example.com/a/1" {
		t.Errorf("launched %s %v", got.name, got.args)
	}
}

func TestLauncherSystemDefault(t *testing.T) {
	opener := systemOpeners["linux"]
	if lp, ok := systemOpeners[runtime.GOOS]; ok {
		opener = lp
	}
	l, calls := newTestLauncher(BrowserConfig{}, opener.path)

	if err := l.Open("http://example.com"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].name != opener.path {
		t.Fatalf("calls = %+v, want %s", *calls, opener.path)
	}
	args := (*calls)[0].args
	if args[len(args)-1] != "http://example.com" {
		t.Errorf("URL not last argument: %v", args)
	}
}

func TestLauncherRejectsNonHTTPLinks(t *testing.T) {
	l, calls := newTestLauncher(BrowserConfig{Command: "lynx"})

	for _, link := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/relative/path", "https://"} {
		if err := l.Open(link); !errors.Is(err, ErrInvalidLink) {
			t.Errorf("Open(%q) = %v, want ErrInvalidLink", link, err)
		}
	}
	if len(*calls) != 0 {
		t.Errorf("launched for invalid links: %+v", *calls)
	}
}
