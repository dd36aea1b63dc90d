// Package markdown turns page bodies into HTML and tables of contents.
//
// Rendering is done by goldmark. Heading ids use AnchorID so that the
// anchors produced here line up with the entries returned by
// ExtractHeadings.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// engine is safe for concurrent use; per-document state lives in the
// parser.Context created for each conversion.
var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Footnote,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(
			util.Prioritized(externalLinks{}, 500),
		),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderMarkdown(&buf, content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the HTML representation of md to w.
func RenderMarkdown(w io.Writer, md string) error {
	pc := parser.NewContext(parser.WithIDs(anchorIDs{}))
	return engine.Convert([]byte(md), w, parser.WithContext(pc))
}

// anchorIDs implements parser.IDs without de-duplication, so repeated
// titles share an id exactly as they do in ExtractHeadings.
type anchorIDs struct{}

func (anchorIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	id := AnchorID(string(value))
	if id == "" {
		if kind == ast.KindHeading {
			return []byte("heading")
		}
		return []byte("id")
	}
	return []byte(id)
}

func (anchorIDs) Put(value []byte) {}

// externalLinks marks absolute http(s) links to open in a new tab.
type externalLinks struct{}

func (externalLinks) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest []byte
		switch link := n.(type) {
		case *ast.Link:
			dest = link.Destination
		case *ast.AutoLink:
			if link.AutoLinkType != ast.AutoLinkURL {
				return ast.WalkContinue, nil
			}
			dest = link.URL(reader.Source())
		default:
			return ast.WalkContinue, nil
		}
		if IsExternal(string(dest)) {
			n.SetAttributeString("target", []byte("_blank"))
			n.SetAttributeString("rel", []byte("noopener noreferrer"))
		}
		return ast.WalkContinue, nil
	})
}

// IsExternal reports whether href points off-site.
func IsExternal(href string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "http")
}

// SafeURL validates a URL for use in an href attribute. It returns the
// trimmed, unescaped URL, or "" when the scheme is not allowed. Callers are
// responsible for attribute escaping.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}
