package pubwiki

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubwiki/prefs"
)

func (a *App) chrome(c echo.Context) Chrome {
	ch := Chrome{
		Site: Site{
			Name:        a.Config.Name,
			URL:         a.Config.URL,
			Description: a.Config.Description,
		},
		Root:      DocumentRoot(c),
		Prefs:     prefs.Defaults(a.Config.DefaultTheme),
		CSRFToken: CsrfToken(c),
		Path:      c.Request().URL.Path,
	}
	if s := Prefs(c); s != nil {
		ch.Prefs = s.Preferences()
	}
	return ch
}

func (a *App) handleHome(c echo.Context) error {
	tag := c.QueryParam("tag")
	return Render(c, a.Views.Home(HomeData{
		Chrome:    a.chrome(c),
		Items:     a.Content.ListByTag(tag),
		Tags:      a.Content.ListTags(),
		ActiveTag: tag,
	}))
}

func (a *App) handleCategory(c echo.Context) error {
	name := c.Param("name")
	items := a.Content.ListByCategory(name)
	if len(items) == 0 {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.Home(HomeData{
		Chrome:   a.chrome(c),
		Items:    items,
		Tags:     a.Content.ListTags(),
		Category: name,
	}))
}

func (a *App) handlePage(c echo.Context) error {
	page, ok := a.Content.Resolve(c.Param("slug"))
	if !ok {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.chrome(c)))
	}
	return Render(c, a.Views.Page(PageData{
		Chrome: a.chrome(c),
		Page:   page,
	}))
}

func (a *App) handleAPIPage(c echo.Context) error {
	page, ok := a.Content.Resolve(c.Param("slug"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, page)
}

func (a *App) handleAPIPrefs(c echo.Context) error {
	return c.JSON(http.StatusOK, a.chrome(c).Prefs)
}

// prefsForm maps form fields to storage keys.
var prefsForm = []struct{ field, key string }{
	{"theme", prefs.KeyTheme},
	{"textSize", prefs.KeyTextSize},
	{"width", prefs.KeyWidth},
}

func (a *App) handlePrefs(c echo.Context) error {
	if !a.prefsLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many preference changes")
	}
	store := Prefs(c)
	if store == nil {
		return fmt.Errorf("pubwiki: preference store missing from context")
	}
	// Validate the whole form first so a rejected request changes nothing.
	var updates [][2]string
	for _, f := range prefsForm {
		v := strings.TrimSpace(c.FormValue(f.field))
		if v == "" {
			continue
		}
		if err := prefs.Validate(f.key, v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		updates = append(updates, [2]string{f.key, v})
	}
	for _, u := range updates {
		if err := store.Set(u[0], u[1]); err != nil {
			return err
		}
	}
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, store.Preferences())
	}
	return c.Redirect(http.StatusSeeOther, safeReturn(c.FormValue("return")))
}

// safeReturn accepts only local absolute paths, so the redirect cannot leave
// the site.
func safeReturn(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}

func (a *App) handleRobots(c echo.Context) error {
	sitemap := strings.TrimSuffix(a.Config.URL, "/") + "/sitemap.xml"
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nSitemap: "+sitemap+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.chrome(c)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.chrome(c)))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
