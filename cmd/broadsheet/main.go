package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/broadsheet/internal/adapter"
	"github.com/mmcdole/broadsheet/internal/articles"
	"github.com/mmcdole/broadsheet/internal/devserver"
	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/mainloop"
	"github.com/mmcdole/broadsheet/internal/network"
	"github.com/mmcdole/broadsheet/internal/refresh"
	"github.com/mmcdole/broadsheet/internal/store"
	"github.com/mmcdole/broadsheet/internal/textutil"
	"github.com/mmcdole/broadsheet/internal/tui"
	"github.com/mmcdole/broadsheet/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

type options struct {
	demo       bool
	plain      bool
	clearCache bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&opts.demo, "demo", false, "serve built-in demo articles")
	flag.BoolVar(&opts.plain, "plain", false, "print the article list and exit")
	flag.BoolVar(&opts.clearCache, "clear-cache", false, "remove cached artwork and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("broadsheet %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting broadsheet", "version", Version)

	if opts.clearCache {
		if err := adapter.ClearCache(cfg); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared")
		return nil
	}

	cacheDir := cfg.CacheDir()
	if opts.demo {
		api := devserver.New(devserver.DemoArticles(), logger)
		baseURL, shutdown, err := api.Start("127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to start demo server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
		cfg.API.URL = baseURL
		cfg.API.ArticlesPath = articles.DefaultArticlesPath
		// The port changes every run
		cacheDir = ""
	}

	// Check if configured
	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	responses, err := store.NewResponseStore(cacheDir, cfg.API.URL)
	if err != nil {
		logger.Warn("artwork cache unavailable, using memory only", "error", err)
		if responses, err = store.NewResponseStore("", cfg.API.URL); err != nil {
			return fmt.Errorf("failed to create response store: %w", err)
		}
	}
	defer responses.Close()

	fetcher := network.NewFetcher(cfg.API.URL, cfg.API.Timeout, responses, logger)

	if opts.plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlain(os.Stdout, fetcher, cfg, logger)
	}
	return runTUI(fetcher, cfg, logger)
}

func runTUI(fetcher *network.Fetcher, cfg *adapter.Config, logger *slog.Logger) error {
	sched := tui.NewProgramScheduler()
	defer sched.Close()

	vm := articles.NewViewModel(fetcher, sched, cfg.API.ArticlesPath, logger)
	defer vm.Close()

	model := tui.NewModel(vm, sched, tui.Options{
		ShowThumbnails: cfg.UI.ShowThumbnails,
		ThumbnailWidth: cfg.UI.ThumbnailWidth,
		Opener:         adapter.NewLauncher(cfg.Browser, logger),
		Logger:         logger,
	})
	defer model.Close()

	refresher := refresh.New(cfg.Refresh.Schedule, sched, model.ScheduledRefresh(), logger)
	if err := refresher.Start(); err != nil {
		logger.Warn("periodic refresh disabled", "error", err)
	}
	defer refresher.Stop()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runPlain loads the list once on a headless loop and prints it
func runPlain(w io.Writer, fetcher domain.Fetcher, cfg *adapter.Config, logger *slog.Logger) error {
	list, err := loadOnce(fetcher, cfg.API.ArticlesPath, cfg.API.Timeout+5*time.Second, logger)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No articles available")
		return nil
	}
	for _, a := range list {
		date := "          "
		if !a.ReleasedAt.IsZero() {
			date = a.ReleasedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s  %s\n", date, a.Title)
		if a.Description != "" {
			fmt.Fprintf(w, "            %s\n", textutil.Truncate(a.Description, 68))
		}
	}
	return nil
}

// loadOnce runs a single LoadArticles on a private loop and returns the result
func loadOnce(fetcher domain.Fetcher, path string, timeout time.Duration, logger *slog.Logger) ([]domain.Article, error) {
	loop := mainloop.NewLoop()
	defer loop.Close()

	vm := articles.NewViewModel(fetcher, loop, path, logger)
	defer vm.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	vm.LoadArticles()
	if err := loop.Drain(ctx, 1); err != nil {
		return nil, fmt.Errorf("timed out loading articles: %w", err)
	}
	return vm.Articles(), nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to Broadsheet!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter your article API URL (e.g., https://api.example.com): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		apiURL := strings.TrimRight(strings.TrimSpace(input), "/")

		if apiURL == "" {
			fmt.Println("API URL cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		count, err := probeWithSpinner(apiURL, cfg, logger)
		if err != nil {
			fmt.Printf("\n✗ %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		fmt.Printf("✓ Found %d articles\n", count)

		cfg.API.URL = apiURL
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run broadsheet again to start the application.")

	return nil
}

// probeWithSpinner loads the article list from apiURL with a visual spinner
func probeWithSpinner(apiURL string, cfg *adapter.Config, logger *slog.Logger) (int, error) {
	type result struct {
		count int
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		fetcher := network.NewFetcher(apiURL, cfg.API.Timeout, nil, logger)
		list, err := loadOnce(fetcher, cfg.API.ArticlesPath, 15*time.Second, logger)
		resultCh <- result{len(list), err}
	}()

	frame := 0
	fmt.Printf("\r%s Checking article API...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if res.err != nil {
				return 0, res.err
			}
			// A failed load and an empty feed look the same
			if res.count == 0 {
				return 0, fmt.Errorf("no articles returned from %s", apiURL)
			}
			return res.count, nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking article API...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
		}
	}
}
