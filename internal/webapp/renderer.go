package webapp

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the embedded html/template pages for fiber.
type Renderer struct {
	fsys fs.FS
	tmpl *template.Template
}

var _ fiber.Views = (*Renderer)(nil)

// NewRenderer returns a renderer over the embedded templates.
func NewRenderer() *Renderer {
	return &Renderer{fsys: templateFS}
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
}

// Load parses the templates. fiber calls it once at startup.
func (r *Renderer) Load() error {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(r.fsys, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	r.tmpl = tmpl
	return nil
}

// Render executes the page template name (without extension).
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if r.tmpl == nil {
		if err := r.Load(); err != nil {
			return err
		}
	}
	return r.tmpl.ExecuteTemplate(w, name+".html", data)
}
