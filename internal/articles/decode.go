package articles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/textutil"
)

// document is a JSON:API top-level document
type document struct {
	Data []resource `json:"data"`
}

type resource struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Attributes attributes `json:"attributes"`
}

type attributes struct {
	Name                 string     `json:"name"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	DescriptionPlainText string     `json:"description_plain_text"`
	CardArtworkURL       string     `json:"card_artwork_url"`
	Image                string     `json:"image"`
	URI                  string     `json:"uri"`
	ReleasedAt           *time.Time `json:"released_at"`
}

// flatArticle is the bare-array payload shape
type flatArticle struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	URL         string     `json:"url"`
	ReleasedAt  *time.Time `json:"released_at"`
}

// DecodeArticles decodes an article list payload. A JSON:API document is the
// canonical shape; a bare JSON array of flat objects is accepted as well.
// The result preserves payload order. Any empty or duplicate id fails the
// whole payload.
func DecodeArticles(data []byte) ([]domain.Article, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	var list []domain.Article
	if trimmed[0] == '[' {
		var flat []flatArticle
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		list = make([]domain.Article, 0, len(flat))
		for _, f := range flat {
			list = append(list, fromFlat(f))
		}
	} else {
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		if doc.Data == nil {
			return nil, fmt.Errorf("%w: missing data member", domain.ErrDecode)
		}
		list = make([]domain.Article, 0, len(doc.Data))
		for _, r := range doc.Data {
			list = append(list, fromResource(r))
		}
	}

	if err := validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

func fromResource(r resource) domain.Article {
	a := r.Attributes
	title := a.Name
	if title == "" {
		title = a.Title
	}
	desc := a.DescriptionPlainText
	if desc == "" {
		desc = textutil.PlainText(a.Description)
	}
	image := a.CardArtworkURL
	if image == "" {
		image = a.Image
	}

	article := domain.Article{
		ID:          r.ID,
		Title:       title,
		Description: desc,
		URL:         a.URI,
		ImageURL:    image,
	}
	if a.ReleasedAt != nil {
		article.ReleasedAt = *a.ReleasedAt
	}
	return article
}

func fromFlat(f flatArticle) domain.Article {
	article := domain.Article{
		ID:          f.ID,
		Title:       f.Title,
		Description: textutil.PlainText(f.Description),
		URL:         f.URL,
		ImageURL:    f.Image,
	}
	if f.ReleasedAt != nil {
		article.ReleasedAt = *f.ReleasedAt
	}
	return article
}

// validate enforces that every id is present and unique within the list
func validate(list []domain.Article) error {
	seen := make(map[string]struct{}, len(list))
	for i, a := range list {
		if a.ID == "" {
			return fmt.Errorf("%w (index %d)", domain.ErrInvalidArticle, i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}
