package tui

// Layout proportions
const (
	ListColumnPercent = 45 // Article list when the detail pane is visible
	MinColumnWidth    = 20

	// Vertical layout: header line + footer line
	ChromeHeight = 2

	// Below this width the detail pane is hidden
	MinDetailWidth = 60
)

// columnLayout holds calculated column widths for the View
type columnLayout struct {
	listWidth   int
	detailWidth int // 0 if not shown
}

// calculateLayout splits the available width between list and detail
func calculateLayout(availableWidth int) columnLayout {
	if availableWidth < MinDetailWidth {
		return columnLayout{listWidth: availableWidth}
	}
	listWidth := max(availableWidth*ListColumnPercent/100, MinColumnWidth)
	return columnLayout{
		listWidth:   listWidth,
		detailWidth: availableWidth - listWidth - 1, // separator
	}
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	contentHeight := max(m.Height-ChromeHeight, 1)
	if m.Filtering {
		contentHeight = max(contentHeight-1, 1)
	}
	if m.ShowHelp {
		contentHeight = max(contentHeight-helpHeight, 1)
	}

	layout := calculateLayout(m.Width)
	m.List.SetSize(layout.listWidth, contentHeight)
	m.Detail.SetSize(layout.detailWidth, contentHeight)
	m.Help.Width = m.Width
	m.FilterInput.Width = max(m.Width-4, 1)
}
