package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Page names.
const (
	PageHome     = "home"
	PageProducts = "products"
	PageProduct  = "product"
	PagePosts    = "posts"
	PagePost     = "post"
	PageContact  = "contact"
	PageSearch   = "search"
	PageNotFound = "notfound"
	PageAdmin    = "admin"
)

const rootTemplate = "layout"

//go:embed templates
var embedded embed.FS

//go:embed static
var static embed.FS

var ErrUnknownPage = errors.New("unknown page")

type Options struct {
	StorageURL string
	// Dir loads templates from disk instead of the embedded copy.
	Dir string
	// Watch reloads templates from Dir when they change.
	Watch bool
}

// Renderer executes the page templates. Every page is its own clone of the
// layout and partials, so pages may each define "content".
type Renderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
	fsys  fs.FS
	funcs template.FuncMap

	watcher *watcher
}

func New(opts Options) (*Renderer, error) {
	fsys, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
	}

	r := &Renderer{
		fsys:  fsys,
		funcs: Funcs(opts.StorageURL),
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}

	if opts.Watch && opts.Dir != "" {
		w, err := watch(opts.Dir, r.Reload)
		if err != nil {
			return nil, err
		}
		r.watcher = w
	}

	return r, nil
}

// Reload parses every template again. On failure the previous set stays live.
func (r *Renderer) Reload() error {
	pages, err := parsePages(r.fsys, r.funcs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

func parsePages(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(fsys, "layout.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", file, err)
		}
		if _, err := t.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	return pages, nil
}

// StaticFS serves the stylesheet and other assets the layout links to.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func (r *Renderer) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}

func (r *Renderer) Render(w io.Writer, page string, data any) error {
	r.mu.RLock()
	t, ok := r.pages[page]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, page)
	}

	if err := t.ExecuteTemplate(w, rootTemplate, data); err != nil {
		return fmt.Errorf("failed to execute %s: %w", page, err)
	}
	return nil
}

// HTML renders page into a buffer first so a template error becomes a clean
// 500 instead of a half-written page.
func (r *Renderer) HTML(c *gin.Context, status int, page string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, page, data); err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("page", page).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
