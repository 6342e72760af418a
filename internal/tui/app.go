// Package tui is the Bubble Tea presentation of the article list.
package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/broadsheet/internal/articles"
	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/search"
	"github.com/mmcdole/broadsheet/internal/tui/components"
	"github.com/mmcdole/broadsheet/internal/tui/styles"
)

// statusTimeout is how long transient status messages stay visible
const statusTimeout = 3 * time.Second

// LinkOpener opens article links outside the terminal
type LinkOpener interface {
	Open(url string) error
}

// Options configures the model
type Options struct {
	ShowThumbnails bool
	ThumbnailWidth int
	Opener         LinkOpener // nil disables opening links
	Logger         *slog.Logger
}

// feed collects view model changes between Updates. Observers run inside
// Update (on the scheduler), so no locking is needed.
type feed struct {
	articles         []domain.Article
	replaced         bool
	imageChanged     bool
	refreshRequested bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	VM     *articles.ViewModel
	Sched  *ProgramScheduler
	Keys   KeyMap
	opener LinkOpener
	logger *slog.Logger

	feed        *feed
	unsubscribe func()

	// UI Components
	List        components.ArticleList
	Detail      components.Detail
	FilterInput textinput.Model
	Spinner     spinner.Model
	Help        help.Model

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// UI state
	Loading        bool
	Filtering      bool
	ShowHelp       bool
	ShowThumbnails bool
	StatusMsg      string
	StatusIsErr    bool

	// Last article LoadImage was requested for
	lastSelected string
}

// NewModel creates the application model and subscribes it to vm.
// It must be called before the program starts.
func NewModel(vm *articles.ViewModel, sched *ProgramScheduler, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f := &feed{}
	unsubscribe := vm.Observe(func(c articles.Change) {
		f.articles = c.Articles
		switch c.Kind {
		case articles.ArticlesReplaced:
			f.replaced = true
		case articles.ImageChanged:
			f.imageChanged = true
		}
	})

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle
	ti.Placeholder = "filter articles"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		VM:             vm,
		Sched:          sched,
		Keys:           Keys,
		opener:         opts.Opener,
		logger:         logger,
		feed:           f,
		unsubscribe:    unsubscribe,
		List:           components.NewArticleList(),
		Detail:         components.NewDetail(opts.ThumbnailWidth, opts.ShowThumbnails),
		FilterInput:    ti,
		Spinner:        sp,
		Help:           h,
		ShowThumbnails: opts.ShowThumbnails,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Sched.Next(),
		m.Spinner.Tick,
		RefreshCmd(),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case invokeMsg:
		for _, fn := range msg.fns {
			fn()
		}
		cmds := []tea.Cmd{m.Sched.Next(), m.syncFeed()}
		if m.feed.refreshRequested {
			m.feed.refreshRequested = false
			cmds = append(cmds, m.startRefresh())
		}
		return m, tea.Batch(cmds...)

	case RefreshMsg:
		return m, m.startRefresh()

	case LinkOpenedMsg:
		if msg.Err != nil {
			m.logger.Warn("failed to open link", "url", msg.URL, "error", msg.Err)
			m.setStatus("Could not open link", true)
		} else {
			m.setStatus("Opened in browser", false)
		}
		return m, ClearStatusCmd(statusTimeout)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case spinner.TickMsg:
		if !m.Loading && !m.anyImageLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.ShowHelp = !m.ShowHelp
		m.Help.ShowAll = m.ShowHelp
		m.updateLayout()
		return m, nil

	case key.Matches(msg, m.Keys.Filter):
		m.Filtering = true
		m.updateLayout()
		return m, m.FilterInput.Focus()

	case key.Matches(msg, m.Keys.Escape):
		if m.FilterInput.Value() != "" {
			m.FilterInput.SetValue("")
			m.applyFilter()
			m.refreshDetail()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Refresh):
		return m.Update(RefreshMsg{})

	case key.Matches(msg, m.Keys.OpenLink):
		selected, ok := m.List.Selected()
		if !ok || m.opener == nil {
			return m, nil
		}
		if selected.URL == "" {
			m.setStatus("Article has no link", true)
			return m, ClearStatusCmd(statusTimeout)
		}
		return m, OpenLinkCmd(m.opener, selected.URL)

	case key.Matches(msg, m.Keys.ToggleThumbnail):
		m.ShowThumbnails = !m.ShowThumbnails
		m.Detail.SetShowThumbnails(m.ShowThumbnails)
		if m.ShowThumbnails {
			m.setStatus("Artwork on", false)
		} else {
			m.setStatus("Artwork off", false)
		}
		return m, ClearStatusCmd(statusTimeout)

	case key.Matches(msg, m.Keys.Up, m.Keys.Down, m.Keys.PageUp, m.Keys.PageDown, m.Keys.Home, m.Keys.End):
		var cmd tea.Cmd
		m.List, cmd = m.List.Update(msg)
		m.selectionChanged(false)
		return m, tea.Batch(cmd, m.Spinner.Tick)
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Escape):
		m.Filtering = false
		m.FilterInput.Blur()
		m.FilterInput.SetValue("")
		m.applyFilter()
		m.selectionChanged(false)
		m.updateLayout()
		return m, nil

	case key.Matches(msg, m.Keys.Enter):
		m.Filtering = false
		m.FilterInput.Blur()
		m.updateLayout()
		return m, nil

	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.applyFilter()
	m.selectionChanged(false)
	return m, cmd
}

// ScheduledRefresh returns a func that reloads the list the same way the
// refresh key does. Post it to the scheduler, e.g. from refresh.Refresher.
func (m Model) ScheduledRefresh() func() {
	f := m.feed
	return func() { f.refreshRequested = true }
}

func (m *Model) startRefresh() tea.Cmd {
	m.Loading = true
	m.VM.LoadArticles()
	return m.Spinner.Tick
}

// syncFeed applies view model changes collected by the observer
func (m *Model) syncFeed() tea.Cmd {
	f := m.feed
	if !f.replaced && !f.imageChanged {
		return nil
	}
	replaced := f.replaced
	f.replaced = false
	f.imageChanged = false

	m.applyFilter()

	var cmd tea.Cmd
	if replaced {
		m.Loading = false
		if len(f.articles) == 0 {
			m.setStatus("No articles available", true)
		} else {
			m.setStatus(fmt.Sprintf("Loaded %d articles", len(f.articles)), false)
		}
		cmd = ClearStatusCmd(statusTimeout)
		// New entries carry no artwork, even for a previously selected id
		m.selectionChanged(true)
	} else {
		m.refreshDetail()
	}
	return cmd
}

// applyFilter rebuilds the visible rows from the latest snapshot
func (m *Model) applyFilter() {
	results := search.Filter(m.FilterInput.Value(), m.feed.articles)
	m.List.SetResults(results, m.VM.ImageLoading)
}

// selectionChanged requests artwork for a newly selected article. force
// requests it even when the id is unchanged.
func (m *Model) selectionChanged(force bool) {
	selected, ok := m.List.Selected()
	if !ok {
		m.lastSelected = ""
		m.refreshDetail()
		return
	}
	if force || selected.ID != m.lastSelected {
		m.lastSelected = selected.ID
		if current, ok := m.VM.Article(selected.ID); ok {
			m.VM.LoadImage(current)
			// In-flight state changed; the indicator reads from the row
			m.applyFilter()
		}
	}
	m.refreshDetail()
}

// refreshDetail points the detail pane at the current entry for the cursor
func (m *Model) refreshDetail() {
	selected, ok := m.List.Selected()
	if !ok {
		m.Detail.Clear()
		return
	}
	current, ok := m.VM.Article(selected.ID)
	if !ok {
		m.Detail.Clear()
		return
	}
	m.Detail.SetArticle(current, m.VM.ImageLoading(current.ID))
}

func (m *Model) anyImageLoading() bool {
	return m.lastSelected != "" && m.VM.ImageLoading(m.lastSelected)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}

// Close unsubscribes from the view model
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
