package pubwiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubwiki/content"
	"github.com/eringen/pubwiki/prefs"
)

func stubViews() ViewFuncs {
	chromeLine := func(w io.Writer, ch Chrome) {
		fmt.Fprintf(w, "<html class=%q style=%q>theme=%s size=%s width=%s\n",
			ch.Root.Class(), ch.Root.Style(), ch.Prefs.Theme, ch.Prefs.TextSize, ch.Prefs.Width)
	}
	return ViewFuncs{
		Home: func(d HomeData) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				chromeLine(w, d.Chrome)
				var slugs []string
				for _, it := range d.Items {
					slugs = append(slugs, it.Slug)
				}
				fmt.Fprintf(w, "home tag=%s category=%s items=%s tags=%s", d.ActiveTag, d.Category,
					strings.Join(slugs, ","), strings.Join(d.Tags, ","))
				return nil
			})
		},
		Page: func(d PageData) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				chromeLine(w, d.Chrome)
				var ids, related []string
				for _, h := range d.Page.TOC {
					ids = append(ids, h.ID)
				}
				for _, it := range d.Page.Related {
					related = append(related, it.Slug)
				}
				fmt.Fprintf(w, "page=%s toc=%s related=%s csrf=%t", d.Page.Item.Slug,
					strings.Join(ids, ","), strings.Join(related, ","), d.CSRFToken != "")
				return nil
			})
		},
		NotFound: func(ch Chrome) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				chromeLine(w, ch)
				_, err := io.WriteString(w, "not found")
				return err
			})
		},
		ServerError: func(ch Chrome) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "server error")
				return err
			})
		},
	}
}

func setupTestApp(t *testing.T, cfg SiteConfig, opts ...Option) *App {
	t.Helper()
	files := fstest.MapFS{
		"alpha.mdx": {Data: []byte("---\ntitle: Alpha\ntags: [go, web]\ncategories: [Projects]\n---\n# Alpha\n\n## Getting Started\n")},
		"beta.md":   {Data: []byte("---\ntitle: Beta\ntags: [go]\n---\nBeta body\n")},
		"gamma.mdx": {Data: []byte("---\ntitle: Gamma\ntags: [rust]\ncategories: [Concepts]\n---\n")},
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	}
	opts = append([]Option{WithContentStore(content.NewStoreFS(files))}, opts...)
	a := New(cfg, stubViews(), opts...)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return serve(a, req)
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func TestHandleHome(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "items=alpha,beta,gamma") || !strings.Contains(body, "tags=go,rust,web") {
		t.Errorf("unexpected home body: %s", body)
	}
	if got := rec.Header().Get("Accept-CH"); got != HeaderPrefersColorScheme {
		t.Errorf("Accept-CH = %q, want %q", got, HeaderPrefersColorScheme)
	}

	rec = get(a, "/?tag=go")
	if !strings.Contains(rec.Body.String(), "tag=go category= items=alpha,beta ") {
		t.Errorf("tag filter body: %s", rec.Body.String())
	}
}

func TestHandleCategory(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/category/Concepts/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "category=Concepts items=gamma ") {
		t.Errorf("GET /category/Concepts/ = %d %s", rec.Code, rec.Body.String())
	}

	rec = get(a, "/category/Nope/")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("unknown category = %d %s, want 404 view", rec.Code, rec.Body.String())
	}
}

func TestHandlePage(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/alpha/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /alpha/ = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<html class="dark theme-dark" style="color-scheme: dark">`,
		"page=alpha toc=alpha,getting-started related=beta csrf=true",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page body missing %q: %s", want, body)
		}
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "private, no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestHandlePageTrailingSlashRedirect(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/alpha")
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/alpha/" {
		t.Errorf("GET /alpha = %d -> %q, want 301 -> /alpha/", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHandlePageNotFound(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/missing/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing/ = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("expected not found view, got %s", rec.Body.String())
	}

	rec = get(a, "/no/such/route/")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `<html class="dark theme-dark"`) {
		t.Errorf("unrouted path = %d %s, want themed 404 view", rec.Code, rec.Body.String())
	}
}

func TestAutoThemeFollowsClientHint(t *testing.T) {
	a := setupTestApp(t, SiteConfig{DefaultTheme: prefs.ThemeAuto})

	req := httptest.NewRequest(http.MethodGet, "/alpha/", nil)
	req.Header.Set(HeaderPrefersColorScheme, `"dark"`)
	rec := serve(a, req)
	if !strings.Contains(rec.Body.String(), `<html class="dark theme-auto" style="color-scheme: dark">theme=auto`) {
		t.Errorf("dark hint body: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/alpha/", nil)
	req.Header.Set(HeaderPrefersColorScheme, "light")
	rec = serve(a, req)
	if !strings.Contains(rec.Body.String(), `<html class="theme-auto" style="color-scheme: light">theme=auto`) {
		t.Errorf("light hint body: %s", rec.Body.String())
	}
}

func TestAutoThemeWithoutClientHint(t *testing.T) {
	a := setupTestApp(t, SiteConfig{DefaultTheme: prefs.ThemeAuto})

	rec := get(a, "/alpha/")
	if !strings.Contains(rec.Body.String(), `<html class="theme-auto" style="color-scheme: light">theme=auto`) {
		t.Errorf("no hint body: %s", rec.Body.String())
	}
	if got := rec.Header().Get("Critical-CH"); got != HeaderPrefersColorScheme {
		t.Errorf("Critical-CH = %q, want %q", got, HeaderPrefersColorScheme)
	}

	css := get(a, "/public/wiki.css").Body.String()
	dark := strings.Index(css, "@media (prefers-color-scheme: dark)")
	if dark < 0 || !strings.Contains(css[dark:], "html.theme-auto") {
		t.Errorf("stylesheet does not follow the system scheme for auto")
	}
}

func TestHandleAPIPage(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/api/pages/alpha")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/pages/alpha = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`"slug":"alpha"`, `"title":"Alpha"`, `"id":"getting-started"`, `"level":2`, `"related":[{"slug":"beta"`} {
		if !strings.Contains(body, want) {
			t.Errorf("API body missing %s: %s", want, body)
		}
	}

	rec = get(a, "/api/pages/missing")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"error":"not found"`) {
		t.Errorf("missing page = %d %s", rec.Code, rec.Body.String())
	}
}

// csrfSession performs a GET to obtain the CSRF cookie a form post needs.
func csrfSession(t *testing.T, a *App) *http.Cookie {
	t.Helper()
	c := cookie(get(a, "/"), "_csrf")
	if c == nil {
		t.Fatal("expected a _csrf cookie")
	}
	return c
}

func postPrefs(a *App, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/prefs/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return serve(a, req)
}

func TestHandlePrefsPersistsInCookie(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})
	csrf := csrfSession(t, a)

	rec := postPrefs(a, url.Values{
		"_csrf":    {csrf.Value},
		"theme":    {"light"},
		"textSize": {"large"},
		"width":    {"wide"},
		"return":   {"/alpha/"},
	}, csrf)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/alpha/" {
		t.Fatalf("POST /prefs/ = %d -> %q, want 303 -> /alpha/", rec.Code, rec.Header().Get("Location"))
	}
	prefsCookie := cookie(rec, prefsSession)
	if prefsCookie == nil {
		t.Fatal("expected the preferences cookie to be set")
	}
	saved := 0
	for _, c := range rec.Result().Cookies() {
		if c.Name == prefsSession {
			saved++
		}
	}
	if saved != 1 {
		t.Errorf("preferences cookie set %d times, want once", saved)
	}

	rec = get(a, "/alpha/", prefsCookie)
	want := `<html class="theme-light" style="color-scheme: light">theme=light size=large width=wide`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("reload body = %s, want %s", rec.Body.String(), want)
	}

	rec = get(a, "/api/prefs", prefsCookie)
	if !strings.Contains(rec.Body.String(), `"theme":"light"`) {
		t.Errorf("GET /api/prefs = %s", rec.Body.String())
	}
}

func TestHandlePrefsRequiresCSRF(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := postPrefs(a, url.Values{"theme": {"light"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without token = %d, want 403", rec.Code)
	}
}

func TestHandlePrefsRejectsInvalid(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})
	csrf := csrfSession(t, a)

	rec := postPrefs(a, url.Values{"_csrf": {csrf.Value}, "theme": {"sepia"}}, csrf)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid theme = %d, want 400", rec.Code)
	}

	// A valid field next to an invalid one is not saved either.
	rec = postPrefs(a, url.Values{"_csrf": {csrf.Value}, "theme": {"light"}, "width": {"huge"}}, csrf)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mixed form = %d, want 400", rec.Code)
	}
	if c := cookie(rec, prefsSession); c != nil {
		t.Fatalf("rejected form set the preferences cookie: %v", c)
	}
	rec = get(a, "/alpha/")
	if !strings.Contains(rec.Body.String(), "theme=dark size=standard width=standard") {
		t.Errorf("preferences changed by a rejected form: %s", rec.Body.String())
	}
}

func TestHandlePrefsJSON(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})
	csrf := csrfSession(t, a)

	form := url.Values{"_csrf": {csrf.Value}, "width": {"wide"}}
	req := httptest.NewRequest(http.MethodPost, "/prefs/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	req.AddCookie(csrf)
	rec := serve(a, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"width":"wide"`) {
		t.Errorf("JSON prefs = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePrefsRateLimited(t *testing.T) {
	a := setupTestApp(t, SiteConfig{PrefsRateLimit: 2})
	csrf := csrfSession(t, a)

	form := url.Values{"_csrf": {csrf.Value}, "theme": {"dark"}}
	for i := 0; i < 2; i++ {
		if rec := postPrefs(a, form, csrf); rec.Code != http.StatusSeeOther {
			t.Fatalf("attempt %d = %d, want 303", i+1, rec.Code)
		}
	}
	if rec := postPrefs(a, form, csrf); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt = %d, want 429", rec.Code)
	}
}

func TestSafeReturn(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/alpha/", "/alpha/"},
		{"/?tag=go", "/?tag=go"},
		{"", "/"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{`/\evil.example`, "/"},
		{"alpha", "/"},
	}
	for _, tt := range tests {
		if got := safeReturn(tt.in); got != tt.want {
			t.Errorf("safeReturn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandleSitemapAndRobots(t *testing.T) {
	a := setupTestApp(t, SiteConfig{URL: "https://wiki.example.com"})

	rec := get(a, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /sitemap.xml = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<loc>https://wiki.example.com</loc>",
		"<loc>https://wiki.example.com/alpha/</loc>",
		"<loc>https://wiki.example.com/gamma/</loc>",
		"<loc>https://wiki.example.com/category/Concepts/</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %s: %s", want, body)
		}
	}

	rec = get(a, "/robots.txt")
	if !strings.Contains(rec.Body.String(), "Sitemap: https://wiki.example.com/sitemap.xml") {
		t.Errorf("robots.txt = %s", rec.Body.String())
	}
}

func TestEmbeddedStylesheet(t *testing.T) {
	a := setupTestApp(t, SiteConfig{})

	rec := get(a, "/public/wiki.css")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "html.dark") {
		t.Errorf("GET /public/wiki.css = %d", rec.Code)
	}
}

func TestServerErrorView(t *testing.T) {
	a := setupTestApp(t, SiteConfig{}, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/boom/", func(c echo.Context) error {
			return fmt.Errorf("boom")
		})
	}))

	rec := get(a, "/boom/")
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "server error" {
		t.Errorf("GET /boom/ = %d %q", rec.Code, rec.Body.String())
	}
}
