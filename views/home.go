package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/pubwiki"
)

// Home lists pages: the whole index, one tag (ActiveTag) or one category.
func Home(d pubwiki.HomeData) templ.Component {
	title := d.Site.Name
	switch {
	case d.Category != "":
		title = d.Category + " · " + title
	case d.ActiveTag != "":
		title = "#" + d.ActiveTag + " · " + title
	}
	return Layout(d.Chrome, title, homeBody(d))
}

func homeBody(d pubwiki.HomeData) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		if d.Category != "" {
			buf.WriteString("<h1>" + esc(d.Category) + "</h1>\n")
		} else {
			buf.WriteString("<h1>" + esc(d.Site.Name) + "</h1>\n")
			if d.Site.Description != "" {
				buf.WriteString(`<p class="muted">` + esc(d.Site.Description) + "</p>\n")
			}
		}

		if len(d.Tags) > 0 {
			buf.WriteString(`<ul class="tags">` + "\n")
			buf.WriteString(`<li><a href="/"`)
			if d.ActiveTag == "" {
				buf.WriteString(` class="active"`)
			}
			buf.WriteString(">all</a></li>\n")
			for _, tag := range d.Tags {
				buf.WriteString(`<li><a href="` + href(pubwiki.TagURL(tag)) + `"`)
				if tag == d.ActiveTag {
					buf.WriteString(` class="active"`)
				}
				buf.WriteString(">" + esc(tag) + "</a></li>\n")
			}
			buf.WriteString("</ul>\n")
		}

		if len(d.Items) == 0 {
			buf.WriteString(`<p class="muted">Nothing here yet.</p>` + "\n")
			return nil
		}
		buf.WriteString(`<ul class="items">` + "\n")
		for _, it := range d.Items {
			buf.WriteString(`<li><a href="` + href(it.Link()) + `">` + esc(it.Metadata.Title) + "</a>")
			if len(it.Metadata.Tags) > 0 {
				buf.WriteString(` <span class="muted">` + esc(pubwiki.JoinTags(it.Metadata.Tags)) + "</span>")
			}
			buf.WriteString("</li>\n")
		}
		buf.WriteString("</ul>\n")
		return nil
	})
}
