package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RefreshCmd returns a command that reloads the article list
func RefreshCmd() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// OpenLinkCmd opens url with opener off the event loop
func OpenLinkCmd(opener LinkOpener, url string) tea.Cmd {
	return func() tea.Msg {
		return LinkOpenedMsg{URL: url, Err: opener.Open(url)}
	}
}
