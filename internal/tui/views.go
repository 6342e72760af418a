package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/broadsheet/internal/tui/styles"
)

// helpHeight is the number of rows the full help takes, including its margin
const helpHeight = 7

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	layout := calculateLayout(m.Width)
	body := m.List.View()
	if layout.detailWidth > 0 {
		list := lipgloss.NewStyle().Width(layout.listWidth).Render(body)
		sep := styles.DimStyle.Render(strings.Repeat("│\n", max(m.Height-ChromeHeight-1, 0)) + "│")
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, sep, m.Detail.View())
	}

	sections := []string{m.renderHeader()}
	if m.Filtering {
		sections = append(sections, m.FilterInput.View())
	}
	sections = append(sections, body)
	if m.ShowHelp {
		sections = append(sections, "\n"+m.Help.View(m.Keys))
	}

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	view = lipgloss.NewStyle().Height(m.Height - 1).MaxHeight(m.Height - 1).Render(view)
	return view + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	title := "Broadsheet"
	count := fmt.Sprintf("%d articles", len(m.feed.articles))
	if q := m.FilterInput.Value(); q != "" {
		count = fmt.Sprintf("%d of %d articles", m.List.Len(), len(m.feed.articles))
	}
	right := count
	if m.Loading {
		right = m.Spinner.View() + " loading"
	}

	pad := m.Width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return styles.HeaderStyle.Width(m.Width).Render(title + strings.Repeat(" ", pad) + right)
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		return styles.FooterStyle.Render(style.Render(m.StatusMsg))
	}
	if m.Filtering {
		return styles.FooterStyle.Render("enter apply • esc clear")
	}
	return styles.FooterStyle.Render(m.Help.ShortHelpView(m.Keys.ShortHelp()))
}
