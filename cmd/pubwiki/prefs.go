package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/labstack/gommon/log"

	"github.com/eringen/pubwiki/prefs"
)

var prefsKeys = map[string]string{
	"theme":     prefs.KeyTheme,
	"textSize":  prefs.KeyTextSize,
	"text-size": prefs.KeyTextSize,
	"width":     prefs.KeyWidth,
}

func defaultPrefsPath() string {
	if p := os.Getenv("PUBWIKI_PREFS"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prefs.yaml"
	}
	return filepath.Join(dir, "pubwiki", "prefs.yaml")
}

func runPrefs(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("prefs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("file", defaultPrefsPath(), "preferences file (.yaml, or .db for SQLite)")
	defaultTheme := fs.String("default-theme", "dark", "theme used when none is stored (dark or auto)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: pubwiki prefs [-file path] get|set <key> <value>|watch")
	}
	theme, err := prefs.ParseTheme(*defaultTheme)
	if err != nil {
		return err
	}

	storage, err := prefs.OpenStorage(*path)
	if err != nil {
		return err
	}
	if c, ok := storage.(io.Closer); ok {
		defer c.Close()
	}

	logger := log.New("prefs")
	logger.SetOutput(stderr)
	root := prefs.NewDocumentRoot()
	store := prefs.New(storage, root, prefs.StaticScheme(false),
		prefs.WithDefaults(prefs.Defaults(theme)),
		prefs.WithLogger(logger),
	)
	if err := store.Initialize(); err != nil {
		return err
	}
	defer store.Close()

	switch cmd := fs.Arg(0); cmd {
	case "get":
		printPrefs(stdout, store.Preferences(), root)
		return nil
	case "set":
		if fs.NArg() != 3 {
			return fmt.Errorf("usage: pubwiki prefs set <theme|textSize|width> <value>")
		}
		key, ok := prefsKeys[fs.Arg(1)]
		if !ok {
			key = fs.Arg(1)
		}
		if err := store.Set(key, fs.Arg(2)); err != nil {
			return err
		}
		printPrefs(stdout, store.Preferences(), root)
		return nil
	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(stdout, "watching %s (Ctrl-C to stop)\n", *path)
		printPrefs(stdout, store.Preferences(), root)
		unsubscribe := store.Subscribe(func(p prefs.Preferences) {
			printPrefs(stdout, p, root)
		})
		defer unsubscribe()
		<-ctx.Done()
		return nil
	default:
		return fmt.Errorf("unknown prefs command %q", cmd)
	}
}

func printPrefs(w io.Writer, p prefs.Preferences, root *prefs.DocumentRoot) {
	fmt.Fprintf(w, "theme=%s textSize=%s width=%s (%s)\n", p.Theme, p.TextSize, p.Width, root.ColorScheme())
}
