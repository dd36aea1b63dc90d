// Package content reads wiki pages from a flat directory of front-matter
// files and ranks related pages by shared tags.
//
// Nothing is cached: every call goes back to the filesystem, so edits to
// the content directory show up on the next request.
package content

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Link is an external reference listed on a page.
type Link struct {
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// Metadata is the front-matter schema of a content file. Unknown keys are
// ignored and missing optional keys keep their zero values.
type Metadata struct {
	Title         string   `yaml:"title" json:"title"`
	Tags          []string `yaml:"tags" json:"tags,omitempty"`
	Categories    []string `yaml:"categories" json:"categories,omitempty"`
	Notes         string   `yaml:"notes" json:"notes,omitempty"`
	ExternalLinks []Link   `yaml:"externalLinks" json:"externalLinks,omitempty"`
}

// Validate checks the required fields.
func (m Metadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
	)
}

func (m *Metadata) normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Tags = dedupe(FilterEmpty(m.Tags))
	m.Categories = FilterEmpty(m.Categories)
	m.Notes = strings.TrimSpace(m.Notes)
	links := m.ExternalLinks[:0]
	for _, l := range m.ExternalLinks {
		l.Title = strings.TrimSpace(l.Title)
		l.URL = strings.TrimSpace(l.URL)
		if l.URL == "" {
			continue
		}
		if l.Title == "" {
			l.Title = l.URL
		}
		links = append(links, l)
	}
	m.ExternalLinks = links
}

// Item is one content file: its slug, parsed front-matter and raw body.
type Item struct {
	Slug     string   `json:"slug"`
	Metadata Metadata `json:"metadata"`
	Content  string   `json:"-"`
}

// Link returns the site-relative URL of the item.
func (it Item) Link() string {
	return "/" + it.Slug + "/"
}

// HasTag reports whether the item carries tag.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// InCategory reports whether the item lists category.
func (it Item) InCategory(category string) bool {
	for _, c := range it.Metadata.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// FilterEmpty removes empty/whitespace-only strings from a slice and trims the rest.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(vals []string) []string {
	if len(vals) < 2 {
		return vals
	}
	seen := make(map[string]struct{}, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
