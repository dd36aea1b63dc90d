package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/pubwiki"
)

// Layout wraps body in the site chrome. The <html> element carries the
// document root's classes and color-scheme, so the first paint already
// has the reader's theme.
func Layout(ch pubwiki.Chrome, title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		var class, style string
		if ch.Root != nil {
			class, style = ch.Root.Class(), ch.Root.Style()
		}
		buf.WriteString(`<!DOCTYPE html>` + "\n")
		buf.WriteString(`<html lang="en" class="` + esc(class) + `" style="` + esc(style) + `">` + "\n")
		buf.WriteString("<head>\n")
		buf.WriteString(`<meta charset="utf-8">` + "\n")
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		buf.WriteString(`<meta name="color-scheme" content="light dark">` + "\n")
		buf.WriteString("<title>" + esc(title) + "</title>\n")
		buf.WriteString(`<link rel="stylesheet" href="/public/wiki.css">` + "\n")
		buf.WriteString("</head>\n")
		buf.WriteString(`<body class="text-` + esc(string(ch.Prefs.TextSize)) + ` width-` + esc(string(ch.Prefs.Width)) + `">` + "\n")

		buf.WriteString(`<header class="site">` + "\n")
		buf.WriteString(`<a class="brand" href="/">` + esc(ch.Site.Name) + "</a>\n")
		if err := Appearance(ch).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString("\n</header>\n<main>\n")
		if err := body.Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString("</main>\n")
		buf.WriteString(`<footer class="site muted">` + "\n")
		buf.WriteString(`<a href="/sitemap.xml">Sitemap</a>` + "\n")
		buf.WriteString("</footer>\n</body>\n</html>\n")
		return nil
	})
}

// Appearance is the theme, text size and width form. It posts to /prefs/
// and returns the reader to the current page.
func Appearance(ch pubwiki.Chrome) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<form class="appearance" method="post" action="/prefs/">` + "\n")
		buf.WriteString(`<input type="hidden" name="_csrf" value="` + esc(ch.CSRFToken) + `">` + "\n")
		buf.WriteString(`<input type="hidden" name="return" value="` + esc(ch.Path) + `">` + "\n")

		buf.WriteString(`<select name="theme" aria-label="Theme">`)
		for _, t := range themes {
			option(buf, string(t), t == ch.Prefs.Theme)
		}
		buf.WriteString("\n</select>\n")

		buf.WriteString(`<select name="textSize" aria-label="Text size">`)
		for _, ts := range textSizes {
			option(buf, string(ts), ts == ch.Prefs.TextSize)
		}
		buf.WriteString("\n</select>\n")

		buf.WriteString(`<select name="width" aria-label="Width">`)
		for _, w := range widths {
			option(buf, string(w), w == ch.Prefs.Width)
		}
		buf.WriteString("\n</select>\n")

		buf.WriteString(`<button type="submit">Apply</button>` + "\n</form>")
		return nil
	})
}

func option(buf *bytes.Buffer, value string, selected bool) {
	buf.WriteString("\n" + `<option value="` + esc(value) + `"`)
	if selected {
		buf.WriteString(" selected")
	}
	buf.WriteString(">" + esc(value) + "</option>")
}
