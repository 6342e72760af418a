package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/imaging"
	"github.com/mmcdole/broadsheet/internal/tui/styles"
)

// Detail shows the selected article with its artwork
type Detail struct {
	article      domain.Article
	hasArticle   bool
	imageLoading bool

	width          int
	height         int
	thumbWidth     int
	showThumbnails bool

	// Rendered thumbnail, reused until the article or width changes
	thumb          string
	thumbKey       string
	thumbWidthUsed int
}

// NewDetail creates a detail pane
func NewDetail(thumbWidth int, showThumbnails bool) Detail {
	return Detail{thumbWidth: thumbWidth, showThumbnails: showThumbnails}
}

// SetSize sets the pane dimensions
func (d *Detail) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.renderThumbnail()
}

// SetArticle shows a as the current article
func (d *Detail) SetArticle(a domain.Article, imageLoading bool) {
	d.article = a
	d.hasArticle = true
	d.imageLoading = imageLoading
	d.renderThumbnail()
}

// Clear empties the pane
func (d *Detail) Clear() {
	d.article = domain.Article{}
	d.hasArticle = false
	d.imageLoading = false
	d.renderThumbnail()
}

// SetShowThumbnails toggles artwork rendering
func (d *Detail) SetShowThumbnails(show bool) {
	d.showThumbnails = show
	d.renderThumbnail()
}

// ArticleID returns the id of the article being shown
func (d Detail) ArticleID() string {
	if !d.hasArticle {
		return ""
	}
	return d.article.ID
}

func (d Detail) contentWidth() int {
	w := d.width - styles.DetailStyle.GetHorizontalPadding()
	if w < 1 {
		w = 1
	}
	return w
}

func (d Detail) artworkWidth() int {
	return min(d.thumbWidth, d.contentWidth())
}

// renderThumbnail scales the artwork once per article, image and width
func (d *Detail) renderThumbnail() {
	if !d.showThumbnails || !d.article.HasImage() {
		d.thumb, d.thumbKey, d.thumbWidthUsed = "", "", 0
		return
	}
	w := d.artworkWidth()
	if d.thumbKey == d.article.ID && d.thumbWidthUsed == w && d.thumb != "" {
		return
	}
	d.thumb = imaging.Thumbnail(d.article.DownloadedImage, w)
	d.thumbKey = d.article.ID
	d.thumbWidthUsed = w
}

func (d Detail) placeholder() string {
	msg := "artwork unavailable"
	switch {
	case d.imageLoading:
		msg = "loading artwork…"
	case d.article.ImageURL == "":
		msg = "no artwork"
	}
	w := d.artworkWidth()
	// Borders take two columns and two rows
	return styles.PlaceholderStyle.
		Width(max(w-2, 1)).
		Height(max(w/4-2, 1)).
		Render(msg)
}

// View renders the pane
func (d Detail) View() string {
	if !d.hasArticle {
		return styles.DetailStyle.Render(styles.DimStyle.Render("Select an article"))
	}

	cw := d.contentWidth()
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Width(cw).Render(d.article.Title))
	b.WriteString("\n")

	var meta []string
	if !d.article.ReleasedAt.IsZero() {
		meta = append(meta, d.article.ReleasedAt.Format("January 2, 2006"))
	}
	if len(meta) > 0 {
		b.WriteString(styles.SubtitleStyle.Render(strings.Join(meta, " · ")))
		b.WriteString("\n")
	}
	if d.article.URL != "" {
		b.WriteString(styles.LinkStyle.Render(d.article.URL))
		b.WriteString("\n")
	}

	if d.showThumbnails {
		b.WriteString("\n")
		if d.article.HasImage() {
			b.WriteString(d.thumb)
		} else {
			b.WriteString(d.placeholder())
		}
		b.WriteString("\n")
	}

	if d.article.Description != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(cw).Render(d.article.Description))
	}

	out := styles.DetailStyle.Render(b.String())
	if d.height > 0 {
		out = lipgloss.NewStyle().MaxHeight(d.height).Render(out)
	}
	return out
}
