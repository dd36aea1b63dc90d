package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/pubwiki"
)

func NotFound(ch pubwiki.Chrome) templ.Component {
	return Layout(ch, "Not found · "+ch.Site.Name, templ.Raw(
		"<h1>Not found</h1>\n"+
			`<p>There is no page at this address. <a href="/">Back to the index</a>.</p>`+"\n"))
}

func ServerError(ch pubwiki.Chrome) templ.Component {
	return Layout(ch, "Error · "+ch.Site.Name, templ.Raw(
		"<h1>Something went wrong</h1>\n"+
			"<p>The page could not be rendered. Please try again later.</p>\n"))
}
