package views

import (
	"bytes"
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubwiki"
	"github.com/eringen/pubwiki/content"
	"github.com/eringen/pubwiki/markdown"
)

// Page renders one article with its categories, tags, table of contents,
// notes, external links and related pages.
func Page(d pubwiki.PageData) templ.Component {
	return Layout(d.Chrome, d.Page.Item.Metadata.Title+" · "+d.Site.Name, article(d.Page))
}

func article(p content.Page) templ.Component {
	m := p.Item.Metadata
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString("<article>\n<h1>" + esc(m.Title) + "</h1>\n")

		if len(m.Categories) > 0 {
			buf.WriteString(`<p class="muted">`)
			for i, c := range m.Categories {
				if i > 0 {
					buf.WriteString(", ")
				}
				buf.WriteString(`<a href="` + href(pubwiki.CategoryURL(c)) + `">` + esc(c) + "</a>")
			}
			buf.WriteString("</p>\n")
		}

		if len(m.Tags) > 0 {
			buf.WriteString(`<ul class="tags">` + "\n")
			for _, tag := range m.Tags {
				buf.WriteString(`<li><a href="` + href(pubwiki.TagURL(tag)) + `">` + esc(tag) + "</a></li>\n")
			}
			buf.WriteString("</ul>\n")
		}

		if len(p.TOC) > 0 {
			buf.WriteString(`<nav class="toc" aria-label="Contents">` + "\n<ol>\n")
			for _, h := range p.TOC {
				buf.WriteString(`<li class="level-` + strconv.Itoa(h.Level) + `"><a href="#` + esc(h.ID) + `">` + esc(h.Title) + "</a></li>\n")
			}
			buf.WriteString("</ol>\n</nav>\n")
		}

		if m.Notes != "" {
			buf.WriteString(`<aside class="notes">` + esc(m.Notes) + "</aside>\n")
		}

		buf.WriteString(`<div class="body">` + "\n")
		if err := markdown.Markdown(p.Item.Content).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString("</div>\n")

		externalLinks(buf, m.ExternalLinks)

		if len(p.Related) > 0 {
			buf.WriteString(`<section class="related">` + "\n<h2>Related</h2>\n<ul>\n")
			for _, it := range p.Related {
				buf.WriteString(`<li><a href="` + href(it.Link()) + `">` + esc(it.Metadata.Title) + "</a></li>\n")
			}
			buf.WriteString("</ul>\n</section>\n")
		}

		buf.WriteString("</article>\n")
		return nil
	})
}

// externalLinks writes the links section, dropping links whose scheme is
// not allowed.
func externalLinks(buf *bytes.Buffer, links []content.Link) {
	var safe []content.Link
	for _, l := range links {
		if u := markdown.SafeURL(l.URL); u != "" {
			safe = append(safe, content.Link{Title: l.Title, URL: u})
		}
	}
	if len(safe) == 0 {
		return
	}
	buf.WriteString(`<section class="links">` + "\n<h2>External links</h2>\n<ul>\n")
	for _, l := range safe {
		buf.WriteString(`<li><a href="` + href(l.URL) + `" target="_blank" rel="noopener noreferrer">` + esc(l.Title) + "</a></li>\n")
	}
	buf.WriteString("</ul>\n</section>\n")
}
