// Package web holds the few server-rendered pages that emailed links land
// on.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
)

//go:embed templates
var TemplatesFS embed.FS

const layoutPath = "templates/layouts/base.html"

// Pages maps a page file name such as "review.html" to its template. Each
// page is parsed into its own set so their blocks do not collide.
type Pages struct {
	pages map[string]*template.Template
}

func LoadPages() (*Pages, error) {
	base, err := fs.ReadFile(TemplatesFS, layoutPath)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(TemplatesFS, "templates/pages")
	if err != nil {
		return nil, err
	}

	p := &Pages{pages: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(TemplatesFS, path.Join("templates/pages", entry.Name()))
		if err != nil {
			return nil, err
		}

		t, err := template.New(entry.Name()).Funcs(funcs).Parse(string(base))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", entry.Name(), err)
		}
		if _, err := t.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		p.pages[entry.Name()] = t
	}
	return p, nil
}

func MustLoadPages() *Pages {
	p, err := LoadPages()
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pages) Render(w io.Writer, name string, data interface{}) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.Execute(w, data)
}

var funcs = template.FuncMap{
	"stars": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}
