package domain

import (
	"image"
	"time"
)

// Article is a single content item shown in the article list.
// DownloadedImage stays nil until the artwork behind ImageURL has been fetched
// and decoded.
type Article struct {
	ID          string
	Title       string
	Description string
	URL         string
	ImageURL    string
	ReleasedAt  time.Time

	DownloadedImage image.Image
}

// HasImage reports whether artwork has been attached to the article.
func (a Article) HasImage() bool {
	return a.DownloadedImage != nil
}

