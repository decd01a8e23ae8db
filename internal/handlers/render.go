package handlers

import (
	"html/template"
	"net/http"
	"path/filepath"
)

// View names the handlers render.
const (
	ViewLogin      = "login"
	ViewAdminLogin = "adminlogin"
	ViewRegister   = "register"
	ViewUser       = "user"
	ViewAdmin      = "admin"
	ViewUpdate     = "update"
)

// Renderer is the view collaborator. Handlers only know view names
// and data; how a view becomes HTML is not their concern.
type Renderer interface {
	Render(w http.ResponseWriter, name string, data any) error
}

// HTMLRenderer renders html/template files from a views directory,
// one "<name>.html" file per view.
type HTMLRenderer struct {
	templates *template.Template
}

// NewHTMLRenderer parses every template under dir.
func NewHTMLRenderer(dir string) (*HTMLRenderer, error) {
	templates, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{templates: templates}, nil
}

func (h *HTMLRenderer) Render(w http.ResponseWriter, name string, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return h.templates.ExecuteTemplate(w, name+".html", data)
}
