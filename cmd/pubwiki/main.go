package main

import (
	"fmt"
	"io"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	var err error
	switch args[0] {
	case "serve":
		err = runServe()
	case "new":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: pubwiki new <directory>")
			return 1
		}
		err = runNew(args[1], stdout)
	case "list":
		err = runList(dirArg(args, 1), stdout)
	case "show":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: pubwiki show <slug> [content-dir]")
			return 1
		}
		err = runShow(args[1], dirArg(args, 2), stdout)
	case "prefs":
		err = runPrefs(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "pubwiki %s\n", version)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dirArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return envOr("CONTENT_DIR", "content")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `pubwiki - A personal knowledge base built with Go, Echo, and templ

Usage:
  pubwiki <command> [arguments]

Commands:
  serve                        Serve the wiki (configured by environment)
  new <dir>                    Create a new wiki with starter pages
  list [content-dir]           List pages
  show <slug> [content-dir]    Show a page's outline and related pages
  prefs [-file path] get       Print stored presentation preferences
  prefs [-file path] set <key> <value>
                               Change a preference (theme, textSize, width)
  prefs [-file path] watch     Print preference changes made elsewhere
  version                      Print the pubwiki version
  help                         Show this help message

Environment (serve):
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, CONTENT_DIR, ADDR,
  SESSION_SECRET (required), COOKIE_SECURE, DEFAULT_THEME

Examples:
  pubwiki new mywiki
  pubwiki show welcome mywiki/content
  pubwiki prefs set theme light`)
}
