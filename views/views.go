// Package views is the built-in component set for pubwiki: the page
// layout with its appearance form, the index and listing pages, the
// article page and the two error pages.
package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubwiki"
	"github.com/eringen/pubwiki/prefs"
)

// Default returns the built-in views.
func Default() pubwiki.ViewFuncs {
	return pubwiki.ViewFuncs{
		Home:        Home,
		Page:        Page,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

// component renders into a buffer first, so a failing child leaves w
// untouched.
func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// href sanitizes and escapes a URL for an href attribute.
func href(u string) string {
	return esc(string(templ.URL(u)))
}

var (
	themes    = []prefs.Theme{prefs.ThemeDark, prefs.ThemeLight, prefs.ThemeAuto}
	textSizes = []prefs.TextSize{prefs.TextSmall, prefs.TextStandard, prefs.TextLarge}
	widths    = []prefs.Width{prefs.WidthStandard, prefs.WidthWide}
)
