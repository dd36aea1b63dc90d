package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eringen/pubwiki/content"
)

func runList(dir string, out io.Writer) error {
	store := content.NewStore(dir)
	items := store.ListAll()
	if len(items) == 0 {
		fmt.Fprintf(out, "no pages in %s\n", dir)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tTAGS")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Slug, it.Metadata.Title, strings.Join(it.Metadata.Tags, ", "))
	}
	return tw.Flush()
}

func runShow(slug, dir string, out io.Writer) error {
	store := content.NewStore(dir)
	page, ok := store.Resolve(slug)
	if !ok {
		return fmt.Errorf("no page %q in %s", slug, dir)
	}
	m := page.Item.Metadata
	fmt.Fprintf(out, "%s (%s)\n", m.Title, page.Item.Link())
	if len(m.Tags) > 0 {
		fmt.Fprintf(out, "tags: %s\n", strings.Join(m.Tags, ", "))
	}
	if len(m.Categories) > 0 {
		fmt.Fprintf(out, "categories: %s\n", strings.Join(m.Categories, ", "))
	}
	if m.Notes != "" {
		fmt.Fprintf(out, "notes: %s\n", m.Notes)
	}

	if len(page.TOC) > 0 {
		fmt.Fprintln(out, "\ncontents:")
		for _, h := range page.TOC {
			fmt.Fprintf(out, "%s- %s #%s\n", strings.Repeat("  ", h.Level), h.Title, h.ID)
		}
	}
	if len(m.ExternalLinks) > 0 {
		fmt.Fprintln(out, "\nlinks:")
		for _, l := range m.ExternalLinks {
			fmt.Fprintf(out, "  - %s <%s>\n", l.Title, l.URL)
		}
	}
	if len(page.Related) > 0 {
		fmt.Fprintln(out, "\nrelated:")
		for _, it := range page.Related {
			fmt.Fprintf(out, "  - %s (%s)\n", it.Metadata.Title, it.Link())
		}
	}
	return nil
}
