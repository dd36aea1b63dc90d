package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/pubwiki"
	"github.com/eringen/pubwiki/prefs"
	"github.com/eringen/pubwiki/views"
)

func runServe() error {
	cfg := pubwiki.SiteConfig{
		Name:          pubwiki.EnvOr("SITE_NAME", "Wiki"),
		URL:           pubwiki.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		Addr:          pubwiki.EnvOr("ADDR", ":3000"),
		ContentDir:    pubwiki.EnvOr("CONTENT_DIR", "content"),
		SessionSecret: pubwiki.MustEnv("SESSION_SECRET"),
		CookieSecure:  pubwiki.EnvOr("COOKIE_SECURE", "false") == "true",
		DefaultTheme:  prefs.Theme(pubwiki.EnvOr("DEFAULT_THEME", "dark")),
	}

	app := pubwiki.New(cfg, views.Default())
	app.Echo.Logger.SetLevel(log.INFO)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errc
}
