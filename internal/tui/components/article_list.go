package components

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/search"
	"github.com/mmcdole/broadsheet/internal/textutil"
	"github.com/mmcdole/broadsheet/internal/tui/styles"
)

// ArticleItem is one row of the article list
type ArticleItem struct {
	Article        domain.Article
	MatchedIndexes []int
	ImageLoading   bool
}

// FilterValue implements list.Item
func (i ArticleItem) FilterValue() string { return i.Article.Title }

// articleDelegate renders ArticleItems as single-line rows
type articleDelegate struct{}

func (d articleDelegate) Height() int                             { return 1 }
func (d articleDelegate) Spacing() int                            { return 0 }
func (d articleDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d articleDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(ArticleItem)
	if !ok {
		return
	}
	selected := index == m.Index()
	width := m.Width()

	indicator := " "
	switch {
	case item.Article.HasImage():
		indicator = styles.ImageLoadedChar
	case item.ImageLoading:
		indicator = styles.ImageLoadingChar
	}

	date := ""
	if !item.Article.ReleasedAt.IsZero() {
		date = item.Article.ReleasedAt.Format("Jan 02")
	}

	// indicator + space + title + space + date, inside two margins
	titleWidth := width - 2 - 2 - len(date) - 1
	if titleWidth < 1 {
		titleWidth = 1
	}
	title := textutil.Truncate(item.Article.Title, titleWidth)

	accent := styles.InkOrange
	dim := styles.DimGray
	parts := []styles.RowPart{
		{Text: indicator + " ", Foreground: &accent},
	}
	parts = append(parts, highlight(title, item.MatchedIndexes)...)
	if date != "" {
		pad := titleWidth - len([]rune(title))
		if pad < 0 {
			pad = 0
		}
		parts = append(parts, styles.RowPart{Text: fmt.Sprintf("%*s %s", pad, "", date), Foreground: &dim})
	}

	fmt.Fprint(w, styles.RenderListRow(parts, selected, width))
}

// highlight splits title into plain and matched runs. matched holds byte
// offsets into title; a truncated title keeps the offsets of its prefix.
func highlight(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	accent := styles.InkOrange
	var parts []styles.RowPart
	var run []rune
	runMatched := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		p := styles.RowPart{Text: string(run)}
		if runMatched {
			p.Foreground = &accent
			p.Bold = true
		}
		parts = append(parts, p)
		run = run[:0]
	}
	for i, r := range title {
		if hit[i] != runMatched {
			flush()
			runMatched = hit[i]
		}
		run = append(run, r)
	}
	flush()
	return parts
}

// ArticleList wraps a bubbles list of articles
type ArticleList struct {
	list list.Model
}

// NewArticleList creates an empty list
func NewArticleList() ArticleList {
	l := list.New(nil, articleDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return ArticleList{list: l}
}

// SetSize sets the list dimensions
func (a *ArticleList) SetSize(width, height int) {
	a.list.SetSize(width, height)
}

// SetResults replaces the rows, keeping the cursor on the previously
// selected article when it is still present.
func (a *ArticleList) SetResults(results []search.Result, loading func(id string) bool) {
	prev, hadPrev := a.Selected()

	items := make([]list.Item, len(results))
	selected := 0
	for i, r := range results {
		items[i] = ArticleItem{
			Article:        r.Article,
			MatchedIndexes: r.MatchedIndexes,
			ImageLoading:   loading != nil && loading(r.Article.ID),
		}
		if hadPrev && r.Article.ID == prev.ID {
			selected = i
		}
	}
	a.list.SetItems(items)
	if len(items) > 0 {
		a.list.Select(selected)
	}
}

// Selected returns the article under the cursor
func (a ArticleList) Selected() (domain.Article, bool) {
	item, ok := a.list.SelectedItem().(ArticleItem)
	if !ok {
		return domain.Article{}, false
	}
	return item.Article, true
}

// Len returns the number of visible rows
func (a ArticleList) Len() int {
	return len(a.list.Items())
}

// Index returns the cursor position
func (a ArticleList) Index() int {
	return a.list.Index()
}

// Update forwards navigation messages to the underlying list
func (a ArticleList) Update(msg tea.Msg) (ArticleList, tea.Cmd) {
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// View renders the list
func (a ArticleList) View() string {
	if a.Len() == 0 {
		return styles.DimStyle.Render("  No articles")
	}
	return a.list.View()
}
