package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/eringen/pubwiki/scaffold"
)

func runNew(dir string, out io.Writer) error {
	name := filepath.Base(filepath.Clean(dir))
	data := scaffold.Data{
		ProjectName: name,
		SiteName:    scaffold.ToTitle(name),
	}

	fmt.Fprintf(out, "Creating new pubwiki site: %s\n\n", dir)
	err := scaffold.Write(dir, data, func(path string) {
		fmt.Fprintf(out, "  created %s\n", path)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", dir)
	fmt.Fprintln(out, "  cp .env.example .env   # then set SESSION_SECRET")
	fmt.Fprintln(out, "  pubwiki serve")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Add pages as Markdown files under content/.")
	return nil
}
