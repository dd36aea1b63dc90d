package views

import (
	"context"
	"strings"
	"testing"

	"github.com/eringen/pubwiki"
	"github.com/eringen/pubwiki/content"
	"github.com/eringen/pubwiki/markdown"
	"github.com/eringen/pubwiki/prefs"
)

func chrome(theme prefs.Theme) pubwiki.Chrome {
	root := prefs.NewDocumentRoot()
	s := prefs.New(prefs.NewMemoryStorage(), root, nil, prefs.WithDefaults(prefs.Defaults(theme)))
	if err := s.Initialize(); err != nil {
		panic(err)
	}
	defer s.Close()
	return pubwiki.Chrome{
		Site:      pubwiki.Site{Name: "Notes", URL: "https://notes.example.com"},
		Root:      root,
		Prefs:     s.Preferences(),
		CSRFToken: "tok",
		Path:      "/here/",
	}
}

func renderString(t *testing.T, fn func(*strings.Builder) error) string {
	t.Helper()
	var b strings.Builder
	if err := fn(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestPageView(t *testing.T) {
	body := "# Intro\n\nSee [docs](https://example.com).\n\n## Research & Development\n"
	data := pubwiki.PageData{
		Chrome: chrome(prefs.ThemeDark),
		Page: content.Page{
			Item: content.Item{
				Slug: "systems",
				Metadata: content.Metadata{
					Title:      "Systems",
					Tags:       []string{"design"},
					Categories: []string{"Concepts"},
					Notes:      "Work in progress.",
					ExternalLinks: []content.Link{
						{Title: "Call", URL: "tel:+15551234"},
						{Title: "Bad", URL: "javascript:alert(1)"},
					},
				},
				Content: body,
			},
			TOC:     markdown.ExtractHeadings(body),
			Related: []content.Item{{Slug: "loops", Metadata: content.Metadata{Title: "Feedback Loops"}}},
		},
	}

	out := renderString(t, func(b *strings.Builder) error {
		return Default().Page(data).Render(context.Background(), b)
	})

	for _, want := range []string{
		`<html lang="en" class="dark theme-dark" style="color-scheme: dark">`,
		`<title>Systems · Notes</title>`,
		`<a href="/category/Concepts/">Concepts</a>`,
		`<a href="/?tag=design">design</a>`,
		`<li class="level-2"><a href="#research-development">Research &amp; Development</a></li>`,
		`id="research-development"`,
		`<aside class="notes">Work in progress.</aside>`,
		`href="tel:+15551234"`,
		`<a href="/loops/">Feedback Loops</a>`,
		`<option value="dark" selected>dark</option>`,
		`<input type="hidden" name="return" value="/here/">`,
		`<body class="text-standard width-standard">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page output missing %q", want)
		}
	}
	if strings.Contains(out, "javascript:") || strings.Contains(out, ">Bad<") {
		t.Error("unsafe external link should be dropped")
	}
}

func TestHomeViewLightTheme(t *testing.T) {
	data := pubwiki.HomeData{
		Chrome:    chrome(prefs.ThemeLight),
		Items:     []content.Item{{Slug: "a", Metadata: content.Metadata{Title: "Alpha", Tags: []string{"x", "y"}}}},
		Tags:      []string{"x", "y"},
		ActiveTag: "x",
	}
	out := renderString(t, func(b *strings.Builder) error {
		return Default().Home(data).Render(context.Background(), b)
	})

	for _, want := range []string{
		`<html lang="en" class="theme-light" style="color-scheme: light">`,
		`<title>#x · Notes</title>`,
		`<a href="/?tag=x" class="active">x</a>`,
		`<a href="/a/">Alpha</a> <span class="muted">x, y</span>`,
		`<option value="light" selected>light</option>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("home output missing %q", want)
		}
	}
}

func TestHomeViewEmpty(t *testing.T) {
	out := renderString(t, func(b *strings.Builder) error {
		return Default().Home(pubwiki.HomeData{Chrome: chrome(prefs.ThemeDark), Category: "Empty"}).Render(context.Background(), b)
	})
	if !strings.Contains(out, "Nothing here yet.") || !strings.Contains(out, "<h1>Empty</h1>") {
		t.Errorf("unexpected empty listing: %s", out)
	}
}

func TestErrorViews(t *testing.T) {
	views := Default()
	notFound := renderString(t, func(b *strings.Builder) error {
		return views.NotFound(chrome(prefs.ThemeDark)).Render(context.Background(), b)
	})
	if !strings.Contains(notFound, "<h1>Not found</h1>") {
		t.Errorf("NotFound output = %s", notFound)
	}
	serverError := renderString(t, func(b *strings.Builder) error {
		return views.ServerError(chrome(prefs.ThemeDark)).Render(context.Background(), b)
	})
	if !strings.Contains(serverError, "Something went wrong") {
		t.Errorf("ServerError output = %s", serverError)
	}
}

func TestViewsEscapeContent(t *testing.T) {
	ch := chrome(prefs.ThemeAuto)
	ch.Site.Name = `Tom & "Jerry"`
	ch.Path = `/x/"><script>`
	data := pubwiki.PageData{
		Chrome: ch,
		Page: content.Page{
			Item: content.Item{
				Slug: "x",
				Metadata: content.Metadata{
					Title: "<b>Bold</b>",
					Tags:  []string{"a&b"},
				},
			},
		},
	}
	out := renderString(t, func(b *strings.Builder) error {
		return Page(data).Render(context.Background(), b)
	})

	for _, want := range []string{
		`<html lang="en" class="theme-auto" style="color-scheme: light">`,
		`<title>&lt;b&gt;Bold&lt;/b&gt; · Tom &amp; &#34;Jerry&#34;</title>`,
		`<h1>&lt;b&gt;Bold&lt;/b&gt;</h1>`,
		`<a href="/?tag=a%26b">a&amp;b</a>`,
		`value="/x/&#34;&gt;&lt;script&gt;"`,
		`<option value="auto" selected>auto</option>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<b>Bold</b>") || strings.Contains(out, "<script>") {
		t.Error("markup from content leaked unescaped")
	}
}
