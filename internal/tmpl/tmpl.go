// Package tmpl renders admin pages from html/template files. Templates are
// looked up by slash-separated name ("admin/detail.html") in an optional
// override directory first and then in the embedded defaults.
package tmpl

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"
)

// BaseTemplate is the page skeleton every page template invokes.
const BaseTemplate = "admin/base.html"

// ErrNotFound is returned when none of the candidate templates exist.
var ErrNotFound = errors.New("tmpl: template not found")

//go:embed templates
var embedded embed.FS

//go:embed static
var static embed.FS

// Static returns the embedded static assets rooted at "exadmin/".
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer parses and caches templates.
type Renderer struct {
	fsys  fs.FS
	funcs template.FuncMap
	cache sync.Map // name -> *template.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// New creates a Renderer. When overrideDir is non-empty its files shadow
// the embedded templates of the same name.
func New(overrideDir string, opts ...Option) *Renderer {
	defaults, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	layers := []fs.FS{defaults}
	if overrideDir != "" {
		layers = append([]fs.FS{os.DirFS(overrideDir)}, layers...)
	}
	return NewFS(layered(layers), opts...)
}

// NewFS creates a Renderer reading templates from fsys only.
func NewFS(fsys fs.FS, opts ...Option) *Renderer {
	r := &Renderer{fsys: fsys, funcs: template.FuncMap{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Exists reports whether a template file named name can be read.
func (r *Renderer) Exists(name string) bool {
	_, err := fs.Stat(r.fsys, name)
	return err == nil
}

// Select returns the first of names that exists.
func (r *Renderer) Select(names ...string) (string, error) {
	for _, n := range names {
		if r.Exists(n) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: tried %q", ErrNotFound, names)
}

// Render executes the first existing template of names into w. The output
// is buffered so a failing template writes nothing.
func (r *Renderer) Render(w io.Writer, names []string, data any) error {
	name, err := r.Select(names...)
	if err != nil {
		return err
	}
	t, err := r.page(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("tmpl: execute %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Partial renders a template fragment that does not use the base page.
func (r *Renderer) Partial(name string, data any) (template.HTML, error) {
	t, err := r.load(name, false)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("tmpl: execute %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Flush drops every cached template, so edits to override files are
// picked up on the next render.
func (r *Renderer) Flush() {
	r.cache.Clear()
}

func (r *Renderer) page(name string) (*template.Template, error) {
	return r.load(name, name != BaseTemplate)
}

func (r *Renderer) load(name string, withBase bool) (*template.Template, error) {
	if t, ok := r.cache.Load(name); ok {
		return t.(*template.Template), nil
	}
	t := template.New("").Funcs(r.funcs)
	if withBase {
		if err := r.parse(t, BaseTemplate); err != nil {
			return nil, err
		}
	}
	if err := r.parse(t, name); err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(name, t)
	return actual.(*template.Template), nil
}

func (r *Renderer) parse(t *template.Template, name string) error {
	b, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("tmpl: read %s: %w", name, err)
	}
	if _, err := t.New(name).Parse(string(b)); err != nil {
		return fmt.Errorf("tmpl: parse %s: %w", name, err)
	}
	return nil
}

// layered is an fs.FS that opens a name from the first layer holding it.
type layered []fs.FS

func (l layered) Open(name string) (fs.File, error) {
	for _, fsys := range l {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
