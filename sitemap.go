package pubwiki

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubwiki/content"
)

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	Entries []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// sitemapEntries lists the index, every page and every category listing,
// categories in first-seen order.
func sitemapEntries(base string, items []content.Item) []urlEntry {
	entries := []urlEntry{{Loc: BuildURL(base), ChangeFreq: "daily"}}
	var categories []urlEntry
	seen := make(map[string]bool)
	for _, it := range items {
		entries = append(entries, urlEntry{Loc: BuildURL(base, it.Slug), ChangeFreq: "weekly"})
		for _, cat := range it.Metadata.Categories {
			if seen[cat] {
				continue
			}
			seen[cat] = true
			categories = append(categories, urlEntry{Loc: BuildURL(base, "category", cat)})
		}
	}
	return append(entries, categories...)
}

func (a *App) handleSitemap(c echo.Context) error {
	return c.XML(http.StatusOK, urlSet{
		XMLNS:   "http://www.sitemaps.org/schemas/sitemap/0.9",
		Entries: sitemapEntries(a.Config.URL, a.Content.ListAll()),
	})
}
