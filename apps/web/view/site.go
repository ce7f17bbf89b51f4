package view

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PageTemplate is the layout every page is rendered with.
const PageTemplate = "page"

// Site renders pages from the component templates of a directory.
// Templates are parsed once; a Site is safe for concurrent use.
type Site struct {
	tmpl *template.Template
}

// NewSite parses every `*.gohtml` file of `dir` in `fsys`. Each component kind must be defined by one of them,
// along with the "page" layout.
func NewSite(fsys fs.FS, dir string) (*Site, error) {
	s := new(Site)
	tmpl := template.New("site").Funcs(template.FuncMap{
		"render": s.render,
	})
	tmpl, err := tmpl.ParseFS(fsys, path.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing web templates")
	}
	if tmpl.Lookup(PageTemplate) == nil {
		return nil, errors.Errorf("web templates: %q is not defined", PageTemplate)
	}
	s.tmpl = tmpl.Option("missingkey=error")
	return s, nil
}

// render executes the template of a component, it is called from the templates themselves.
func (s *Site) render(c Component) (template.HTML, error) {
	if c == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, c.Kind(), c); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil // nolint:gosec // already escaped by its own template
}

// Render writes the full page. The page is rendered in a buffer first so a failure writes nothing.
func (s *Site) Render(w io.Writer, page *Page) error {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, PageTemplate, page); err != nil {
		return errors.Wrapf(err, "rendering page %q", page.ViewID)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Renderer adapts a Site to echo.Renderer; data must be a *Page.
type Renderer struct {
	Site *Site
}

var _ echo.Renderer = (*Renderer)(nil)

func (r *Renderer) Render(w io.Writer, _ string, data interface{}, _ echo.Context) error {
	page, ok := data.(*Page)
	if !ok {
		return errors.Errorf("view.Renderer: unexpected data %T", data)
	}
	return r.Site.Render(w, page)
}
