package pubwiki

import (
	"github.com/eringen/pubwiki/content"
	"github.com/eringen/pubwiki/prefs"
)

// Site is the public part of SiteConfig handed to every view.
type Site struct {
	Name        string
	URL         string
	Description string
}

// Chrome carries the per-request state shared by every page: the site,
// the reader's preferences and the styled document root.
type Chrome struct {
	Site      Site
	Root      *prefs.DocumentRoot
	Prefs     prefs.Preferences
	CSRFToken string
	Path      string // request path, used to return after a preference change
}

// HomeData is rendered by ViewFuncs.Home for the index, tag and category
// listings.
type HomeData struct {
	Chrome
	Items     []content.Item
	Tags      []string
	ActiveTag string
	Category  string
}

// PageData is rendered by ViewFuncs.Page.
type PageData struct {
	Chrome
	Page content.Page
}
