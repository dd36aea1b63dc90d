package markdown

import (
	"regexp"
	"strings"
)

// jsSpace is the ECMAScript \s set (whitespace plus line terminators).
// Anchor ids must match the ones existing links were built with, so RE2's
// ASCII-only \s is not enough.
const (
	jsSpace      = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`
	jsTerminator = `\n\r\x{2028}\x{2029}`
)

var (
	reHeading    = regexp.MustCompile(`(?:^|[` + jsTerminator + `])(#{1,6})[` + jsSpace + `]+([^` + jsTerminator + `]+)`)
	reNonAnchor  = regexp.MustCompile(`[^\w` + jsSpace + `-]`)
	reWhitespace = regexp.MustCompile(`[` + jsSpace + `]+`)
	reHyphens    = regexp.MustCompile(`-+`)
)

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

// Heading is one table-of-contents entry.
type Heading struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// ExtractHeadings returns the ATX headings of body in document order.
// Headings with the same title share an id; no suffixes are added.
func ExtractHeadings(body string) []Heading {
	matches := reHeading.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	toc := make([]Heading, 0, len(matches))
	for _, m := range matches {
		title := strings.TrimFunc(m[2], isJSSpace)
		toc = append(toc, Heading{
			ID:    AnchorID(title),
			Title: title,
			Level: len(m[1]),
		})
	}
	return toc
}

// AnchorID derives the in-page anchor for a heading title. The result is
// lowercase, contains only word characters and single hyphens, and never
// starts or ends with a hyphen.
func AnchorID(title string) string {
	id := strings.ToLower(title)
	id = reNonAnchor.ReplaceAllString(id, "")
	id = reWhitespace.ReplaceAllString(id, "-")
	id = reHyphens.ReplaceAllString(id, "-")
	id = strings.TrimPrefix(id, "-")
	return strings.TrimSuffix(id, "-")
}
