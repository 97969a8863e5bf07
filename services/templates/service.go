package templates

import (
	"embed"
	"html/template"
	"io"
	"path/filepath"

	"github.com/coro-biz/journey-coach/config"
	"github.com/labstack/echo/v4"
)

//go:embed html/*.html
var builtin embed.FS

// Service renders the small HTML surface of the token flows (reset form,
// reset/verify result pages). Pages ship embedded; a configured directory
// overrides them for custom branding.
type Service struct {
	templates *template.Template
}

func New(cfg config.TemplatesConfig) (*Service, error) {
	tmpl, err := template.ParseFS(builtin, "html/*.html")
	if err != nil {
		return nil, err
	}

	if cfg.Dir != "" {
		pattern := filepath.Join(cfg.Dir, "*"+cfg.Extension)
		if override, err := tmpl.ParseGlob(pattern); err == nil {
			tmpl = override
		}
	}

	return &Service{templates: tmpl}, nil
}

func (s *Service) Renderer() echo.Renderer {
	return &renderer{templates: s.templates}
}

type renderer struct {
	templates *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
