// Package render provides HTML template rendering for the blog's
// server-rendered pages. Each page template is paired with the base
// layout; templates are embedded into the binary.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"seoroblog/internal/middleware"
	"seoroblog/internal/session"
)

//go:embed templates/*.html
var pagesFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active nav section (e.g., "home", "categories")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
	Meta      string         // Meta description for the page
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing all page templates from the embedded
// filesystem, each paired with the base layout. When devMode is true,
// templates load CDN-hosted assets instead of compiled local files.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"isDev": func() bool {
				return devMode
			},
			"formatDate": func(t time.Time) string {
				return t.Format("Jan 2, 2006")
			},
			"formatDateTime": func(t time.Time) string {
				return t.Format("Jan 2, 2006 15:04")
			},
			// derefTime safely dereferences an optional timestamp.
			"derefTime": func(t *time.Time) time.Time {
				if t == nil {
					return time.Time{}
				}
				return *t
			},
			// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
			"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
				return ptr != nil && *ptr == val
			},
			// pageSeq yields the page numbers for pagination controls.
			"pageSeq": func(total int) []int {
				seq := make([]int, total)
				for i := range seq {
					seq[i] = i + 1
				}
				return seq
			},
			"add": func(a, b int) int { return a + b },
			"sub": func(a, b int) int { return a - b },
		},
	}

	entries, err := pagesFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || e.Name() == "base.html" {
			continue
		}
		name := e.Name()
		tmplName := name[:len(name)-len(filepath.Ext(name))]

		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			pagesFS, "templates/base.html", "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full page inside the base layout. The CSRF token and
// session are injected from the request context when not already set.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.GetCSRFToken(r)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := executeTemplate(w, tmpl, "base.html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// Error renders the error page with the given status code.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	rn.Page(w, r, "error", &PageData{
		Title: http.StatusText(status),
		Data:  map[string]any{"Status": status, "Message": message},
	})
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}
