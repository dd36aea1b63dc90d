// Package pubwiki serves a personal knowledge base built with Go, Echo and
// templ. Content is a flat directory of Markdown files with front matter;
// every page gets a table of contents, related pages ranked by shared tags
// and reader-controlled presentation preferences.
//
// Users provide their own templates via the ViewFuncs struct (the views
// package has a ready-made set), and pubwiki handles routing, middleware
// and content loading.
package pubwiki

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubwiki/content"
)

// ViewFuncs holds the templ components the framework calls when rendering
// pages. This is the inversion-of-control mechanism that lets users own and
// customize all templates.
type ViewFuncs struct {
	Home        func(data HomeData) templ.Component
	Page        func(data PageData) templ.Component
	NotFound    func(chrome Chrome) templ.Component
	ServerError func(chrome Chrome) templ.Component
}

// App is the central pubwiki application. It wires together the content
// store, handlers, middleware and user-provided templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content *content.Store
	Views   ViewFuncs

	prefsLimiter *RateLimiter
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates a new pubwiki App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.JSONSerializer = jsonSerializer{}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the configuration and registers middleware and routes.
// Start calls it; tests call it directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubwiki: invalid config: %w", err)
	}
	if a.Views.Home == nil || a.Views.Page == nil || a.Views.NotFound == nil || a.Views.ServerError == nil {
		return fmt.Errorf("pubwiki: all ViewFuncs are required")
	}

	if a.Content == nil {
		a.Content = content.NewStore(a.Config.ContentDir,
			content.WithExtensions(a.Config.Extensions...),
			content.WithLogger(a.Echo.Logger),
		)
	}

	a.prefsLimiter = NewRateLimiter(a.Config.PrefsRateLimit, a.Config.PrefsWindow)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully, waiting for in-flight requests
// until ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet, then the user's static assets.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/wiki.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)

	e.GET("/api/pages/:slug", a.handleAPIPage)
	e.GET("/api/prefs", a.handleAPIPrefs)

	e.POST("/prefs/", a.handlePrefs)

	e.GET("/", a.handleHome)
	e.GET("/category/:name/", a.handleCategory)
	e.GET("/:slug/", a.handlePage)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.prefsLimiter != nil {
		a.prefsLimiter.Stop()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubwiki: required environment variable %s is not set", key)
	}
	return v
}
