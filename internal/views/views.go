// Package views renders the HTML pages of the catalog
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/bookshelf/backend/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageLanding = "landing"
	PageHome    = "home"
	PageLogin   = "login"
	PageSignup  = "signup"
	PageAddBook = "add_book"
)

var pages = []string{PageLanding, PageHome, PageLogin, PageSignup, PageAddBook}

// Page is the data every template receives
type Page struct {
	HideNav     bool
	Notices     []models.Notice
	Session     *models.Session
	Books       []models.Book
	Query       string
	CurrentUser string
}

// Renderer holds the parsed page templates
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"pathEscape": url.PathEscape,
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the named page and writes it with status.
// Nothing is written when the template fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data *Page) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
