package pubwiki

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/pubwiki/prefs"
)

const (
	prefsSession = "wiki_prefs"
	prefsKey     = "prefs"
	rootKey      = "documentRoot"

	// HeaderPrefersColorScheme is the client hint carrying the system
	// color scheme.
	HeaderPrefersColorScheme = "Sec-CH-Prefers-Color-Scheme"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; form-action 'self'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:  middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		CookieName:  "_csrf",
		CookiePath:  "/",
		CookieSameSite: func() http.SameSite {
			return http.SameSiteLaxMode
		}(),
		CookieSecure: a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/") ||
				strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/public") ||
				strings.HasPrefix(path, "/api/") ||
				path == "/sitemap.xml" || path == "/robots.txt"
		},
	}))

	e.Use(cacheControlMiddleware)
	e.Use(a.prefsMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(path, "/public/"):
			h.Set("Cache-Control", "public, max-age=86400")
		case path == "/sitemap.xml" || path == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/api/"):
			h.Set("Cache-Control", "no-cache")
		default:
			// Pages are styled from the reader's cookie and client hints.
			h.Set("Cache-Control", "private, no-cache")
			h.Add("Vary", "Cookie")
			h.Add("Vary", HeaderPrefersColorScheme)
		}
		return next(c)
	}
}

// prefsMiddleware gives every page request its own preference store over
// the reader's cookie, initialized before any handler renders so the
// <html> element already carries the right theme.
func (a *App) prefsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/public/") {
			return next(c)
		}
		h := c.Response().Header()
		h.Set("Accept-CH", HeaderPrefersColorScheme)
		h.Set("Critical-CH", HeaderPrefersColorScheme)

		root := prefs.NewDocumentRoot()
		store := prefs.New(
			&cookieStorage{c: c},
			root,
			systemScheme(c.Request()),
			prefs.WithDefaults(prefs.Defaults(a.Config.DefaultTheme)),
			prefs.WithLogger(c.Logger()),
		)
		if err := store.Initialize(); err != nil {
			c.Logger().Warnf("initializing preferences: %v", err)
		}
		defer store.Close()

		c.Set(prefsKey, store)
		c.Set(rootKey, root)
		return next(c)
	}
}

// systemScheme reads the Sec-CH-Prefers-Color-Scheme client hint.
func systemScheme(r *http.Request) prefs.StaticScheme {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(HeaderPrefersColorScheme)), `"`)
	return prefs.StaticScheme(strings.EqualFold(v, "dark"))
}

// Prefs returns the request's preference store.
func Prefs(c echo.Context) *prefs.Store {
	s, _ := c.Get(prefsKey).(*prefs.Store)
	return s
}

// DocumentRoot returns the request's styled document root.
func DocumentRoot(c echo.Context) *prefs.DocumentRoot {
	if r, ok := c.Get(rootKey).(*prefs.DocumentRoot); ok {
		return r
	}
	return prefs.NewDocumentRoot()
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// cookieStorage keeps preferences in the reader's signed session cookie.
// It is scoped to one request. Writes are collected and the cookie is
// saved once, just before the response header is written.
type cookieStorage struct {
	c     echo.Context
	sess  *sessions.Session
	dirty bool
}

func (s *cookieStorage) session() (*sessions.Session, error) {
	if s.sess != nil {
		return s.sess, nil
	}
	sess, err := session.Get(prefsSession, s.c)
	if sess != nil {
		// A cookie that fails to decode yields a fresh session that
		// replaces it on the next save.
		s.sess = sess
	}
	return sess, err
}

func (s *cookieStorage) Get(key string) (string, bool, error) {
	sess, err := s.session()
	if err != nil {
		return "", false, err
	}
	v, ok := sess.Values[key].(string)
	return v, ok, nil
}

func (s *cookieStorage) Set(key, value string) error {
	sess, err := s.session()
	if sess == nil {
		return err
	}
	if s.c.Response().Committed {
		return fmt.Errorf("pubwiki: response already written, cannot save %s", key)
	}
	sess.Values[key] = value
	if !s.dirty {
		s.dirty = true
		s.c.Response().Before(s.save)
	}
	return nil
}

func (s *cookieStorage) save() {
	if err := s.sess.Save(s.c.Request(), s.c.Response()); err != nil {
		s.c.Logger().Errorf("saving preferences cookie: %v", err)
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
