package content

import (
	"sort"

	"github.com/eringen/pubwiki/markdown"
)

// MaxRelated caps the number of related items returned by FindRelated.
const MaxRelated = 10

// FindRelated returns up to MaxRelated items sharing at least one tag with
// tags, most shared tags first. The item whose slug equals excludeSlug is
// never returned. An empty tag list returns nothing without touching the
// store.
func (s *Store) FindRelated(tags []string, excludeSlug string) []Item {
	if len(tags) == 0 {
		return nil
	}
	return RankRelated(tags, excludeSlug, s.ListAll())
}

// RankRelated ranks items by the number of distinct tags they share with
// tags. Ties keep their order in items.
func RankRelated(tags []string, excludeSlug string, items []Item) []Item {
	query := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		query[t] = struct{}{}
	}
	if len(query) == 0 {
		return nil
	}

	type scored struct {
		item    Item
		overlap int
	}
	var candidates []scored
	for _, item := range items {
		if item.Slug == excludeSlug {
			continue
		}
		if n := overlap(query, item.Metadata.Tags); n > 0 {
			candidates = append(candidates, scored{item: item, overlap: n})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].overlap > candidates[j].overlap
	})
	if len(candidates) > MaxRelated {
		candidates = candidates[:MaxRelated]
	}
	related := make([]Item, len(candidates))
	for i, c := range candidates {
		related[i] = c.item
	}
	return related
}

func overlap(query map[string]struct{}, tags []string) int {
	n := 0
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := query[t]; ok {
			n++
		}
	}
	return n
}

// Page is everything the presentation layer needs to render one item.
type Page struct {
	Item    Item               `json:"item"`
	TOC     []markdown.Heading `json:"toc"`
	Related []Item             `json:"related"`
}

// Resolve loads the item for slug together with its table of contents and
// related items.
func (s *Store) Resolve(slug string) (Page, bool) {
	item, ok := s.GetBySlug(slug)
	if !ok {
		return Page{}, false
	}
	return Page{
		Item:    item,
		TOC:     markdown.ExtractHeadings(item.Content),
		Related: s.FindRelated(item.Metadata.Tags, item.Slug),
	}, true
}
