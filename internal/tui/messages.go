package tui

// Message types for the TUI

// RefreshMsg asks the model to reload the article list
type RefreshMsg struct{}

// ClearStatusMsg signals to clear the status message
type ClearStatusMsg struct{}

// LinkOpenedMsg reports the result of opening an article link
type LinkOpenedMsg struct {
	URL string
	Err error
}
