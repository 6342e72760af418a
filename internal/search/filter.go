package search

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/broadsheet/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Result is an article that matched a filter query
type Result struct {
	Article        domain.Article
	Index          int   // Position in the unfiltered list
	MatchedIndexes []int // Byte offsets into Article.Title that matched (for highlighting)
	Score          int
}

// titleIndex implements sahilm/fuzzy.Source over article titles.
// sahilm folds case itself, so offsets stay valid for the original title.
type titleIndex []domain.Article

func (t titleIndex) String(i int) string { return t[i].Title }
func (t titleIndex) Len() int            { return len(t) }

// Filter narrows articles to those matching query.
//
// Titles are ranked by sahilm/fuzzy, best match first. Articles whose title
// does not match but whose description contains the query as a
// case-insensitive subsequence follow, in list order. An empty query returns
// every article in list order.
func Filter(query string, articles []domain.Article) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]Result, len(articles))
		for i, a := range articles {
			results[i] = Result{Article: a, Index: i}
		}
		return results
	}

	matches := sfuzzy.FindFrom(query, titleIndex(articles))
	results := make([]Result, 0, len(matches))
	matched := make(map[int]bool, len(matches))
	for _, m := range matches {
		matched[m.Index] = true
		results = append(results, Result{
			Article:        articles[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for i, a := range articles {
		if matched[i] || a.Description == "" {
			continue
		}
		if fuzzy.MatchNormalizedFold(query, a.Description) {
			results = append(results, Result{Article: a, Index: i})
		}
	}

	return results
}
