package pubwiki

import (
	"errors"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/pubwiki/content"
	"github.com/eringen/pubwiki/prefs"
)

// SiteConfig holds all configuration for a pubwiki site.
type SiteConfig struct {
	Name        string // Site name (default "Wiki")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for the index page

	Addr       string   // Listen address (default ":3000")
	ContentDir string   // Directory of content files (default "content")
	Extensions []string // Recognized content extensions (default .mdx, .md)

	SessionSecret string // Required: cookie signing secret
	CookieSecure  bool   // Set true for HTTPS

	DefaultTheme   prefs.Theme   // Theme for first-time visitors (default "dark")
	PrefsRateLimit int           // Preference updates per client per window (default 30)
	PrefsWindow    time.Duration // Rate limit window (default 1min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Wiki"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if len(c.Extensions) == 0 {
		c.Extensions = content.DefaultExtensions
	}
	if c.DefaultTheme == "" {
		c.DefaultTheme = prefs.ThemeDark
	}
	if c.PrefsRateLimit == 0 {
		c.PrefsRateLimit = 30
	}
	if c.PrefsWindow == 0 {
		c.PrefsWindow = time.Minute
	}
}

// Validate reports configuration errors keyed by field.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.URL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.SessionSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.DefaultTheme, validation.In(prefs.ThemeLight, prefs.ThemeDark, prefs.ThemeAuto)),
		validation.Field(&c.PrefsRateLimit, validation.Min(1)),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentStore replaces the directory-backed content store, e.g. with
// one over an embedded filesystem.
func WithContentStore(s *content.Store) Option {
	return func(a *App) {
		a.Content = s
	}
}
