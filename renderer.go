package hubx

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Renderer renders the local UI's views from HTML templates. Templates
// are loaded lazily from an fs.FS and cached until Reload is called.
// Views may be wrapped in a layout, which receives the rendered view as
// .Content.
//
// Usage:
//
//	//go:embed templates
//	var templatesFS embed.FS
//
//	sub, _ := fs.Sub(templatesFS, "templates")
//	renderer := hubx.NewRenderer(sub, ".html")
//	renderer.Funcs(template.FuncMap{"price": formatPrice})
//
//	renderer.Html(w, http.StatusOK, "listings", hubx.Vals{"Listings": ls}, "layout")
type Renderer struct {
	dir       fs.FS
	pattern   string
	templates *template.Template
	loaded    atomic.Bool
	mu        sync.Mutex
	funcs     template.FuncMap
}

// NewRenderer creates a Renderer loading every file of dir ending in
// pattern (e.g. ".html"). Templates are named by their path relative to
// dir with the pattern suffix removed, so "auth/login.html" is
// "auth/login".
func NewRenderer(dir fs.FS, pattern string) *Renderer {
	return &Renderer{
		dir:       dir,
		pattern:   pattern,
		templates: template.New(""),
		funcs:     template.FuncMap{},
	}
}

// Vals is a convenience type for passing data to templates.
type Vals map[string]any

var buffers = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Funcs registers template functions. It must be called before the first
// render or after Reload.
func (v *Renderer) Funcs(funcs template.FuncMap) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for n, f := range funcs {
		v.funcs[n] = f
	}
}

// Html renders the named view, optionally wrapped in layout, and writes
// it with the given status. Nothing is written if rendering fails.
func (v *Renderer) Html(w http.ResponseWriter, status int, name string, vals Vals, layout ...string) error {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer buffers.Put(buf)

	if err := v.Render(buf, name, vals, layout...); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// Render executes the named view with vals and writes the output to w.
// When a layout is given the view is rendered first and handed to the
// layout as .Content, next to the same vals.
func (v *Renderer) Render(w io.Writer, name string, vals Vals, layout ...string) error {
	if !v.loaded.Load() {
		if err := v.load(); err != nil {
			return err
		}
	}

	if len(layout) == 0 {
		return v.templates.ExecuteTemplate(w, name, vals)
	}

	var content bytes.Buffer
	if err := v.templates.ExecuteTemplate(&content, name, vals); err != nil {
		return err
	}

	wrapped := Vals{}
	for k, val := range vals {
		wrapped[k] = val
	}
	wrapped["Content"] = template.HTML(content.String())
	return v.templates.ExecuteTemplate(w, layout[0], wrapped)
}

// Reload drops the cached templates; they are read again on the next
// render.
func (v *Renderer) Reload() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.templates = template.New("")
	v.loaded.Store(false)
}

func (v *Renderer) load() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded.Load() {
		return nil
	}

	v.templates.Funcs(v.funcs)

	err := fs.WalkDir(v.dir, ".", func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if e.IsDir() || filepath.Ext(path) != v.pattern {
			return nil
		}

		buf, err := fs.ReadFile(v.dir, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path, v.pattern)
		_, err = v.templates.New(name).Parse(string(buf))
		return err
	})

	if err != nil {
		return err
	}

	v.loaded.Store(true)
	return nil
}
