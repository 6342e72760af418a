package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ErrInvalidLink is returned for links that are not http(s) URLs
var ErrInvalidLink = errors.New("not an http(s) link")

// Launcher opens article links in a web browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments for the browser
	logger  *slog.Logger

	// Replaced in tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// launchPath defines a single way to launch a browser
type launchPath struct {
	path      string   // Command path: "firefox" or "open-a:AppName"
	extraArgs []string // Arguments placed before the URL
}

// systemOpeners is the platform default handler for URLs
var systemOpeners = map[string]launchPath{
	"darwin":  {path: "open"},
	"windows": {path: "cmd", extraArgs: []string{"/c", "start", ""}},
	"linux":   {path: "xdg-open"},
}

// candidateBrowsers are tried in order when the system opener is missing
var candidateBrowsers = map[string][]launchPath{
	"darwin": {
		{path: "open-a:Safari"},
	},
	"linux": {
		{path: "sensible-browser"},
		{path: "firefox", extraArgs: []string{"--new-tab"}},
		{path: "chromium"},
		{path: "google-chrome"},
	},
	"windows": {
		{path: "explorer"},
	},
}

// NewLauncher creates a Launcher from browser configuration
func NewLauncher(cfg BrowserConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  cfg.Command,
		args:     cfg.Args,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start() // Start async, don't wait
		},
	}
}

// Open opens link in the configured browser or the system default
func (l *Launcher) Open(link string) error {
	if err := validateLink(link); err != nil {
		return err
	}

	// Tier 1: User configured a specific browser
	if l.command != "" {
		args := append(append([]string{}, l.args...), link)
		l.logger.Info("using configured browser", "command", l.command, "url", link)
		return l.start(l.command, args...)
	}

	// Tier 2: System default (open/xdg-open/start)
	err := l.tryLaunch(l.systemOpener(), link)
	if err == nil {
		return nil
	}
	l.logger.Debug("system opener not available", "os", runtime.GOOS, "error", err)

	// Tier 3: Known browsers
	candidates, ok := candidateBrowsers[runtime.GOOS]
	if !ok {
		candidates = candidateBrowsers["linux"]
	}
	for _, lp := range candidates {
		if err := l.tryLaunch(lp, link); err == nil {
			l.logger.Info("opened with detected browser", "path", lp.path)
			return nil
		}
	}
	return fmt.Errorf("no browser found to open %s", link)
}

func (l *Launcher) systemOpener() launchPath {
	if lp, ok := systemOpeners[runtime.GOOS]; ok {
		return lp
	}
	return systemOpeners["linux"]
}

// tryLaunch starts one launch path; it fails when the command is not in PATH
func (l *Launcher) tryLaunch(lp launchPath, link string) error {
	if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
		return l.start("open", "-a", app, link)
	}
	if _, err := l.lookPath(lp.path); err != nil {
		return err
	}
	args := append(append([]string{}, lp.extraArgs...), link)
	l.logger.Info("opening link", "command", lp.path, "url", link)
	return l.start(lp.path, args...)
}

func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}
	return nil
}
