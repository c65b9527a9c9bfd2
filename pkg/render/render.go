package render

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"
)

// View names every renderer must understand.
const (
	ViewList        = "list"
	ViewListContent = "list_content"
	ViewCreate      = "create"
	ViewUpdate      = "update"
)

// Renderer writes the response for a named admin view.
type Renderer interface {
	Render(c *gin.Context, status int, view string, data gin.H)
}

// JSONRenderer ignores the view name and writes data as JSON.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Render(c *gin.Context, status int, view string, data gin.H) {
	c.JSON(status, data)
}

// HTMLRenderer executes the template defined under the view name.
type HTMLRenderer struct {
	templates *template.Template
}

func NewHTMLRenderer(templates *template.Template) (*HTMLRenderer, error) {
	if templates == nil {
		return nil, fmt.Errorf("templates cannot be nil")
	}
	for _, view := range []string{ViewList, ViewListContent, ViewCreate, ViewUpdate} {
		if templates.Lookup(view) == nil {
			return nil, fmt.Errorf("template %q is not defined", view)
		}
	}
	return &HTMLRenderer{templates: templates}, nil
}

// LoadHTMLRenderer parses every file matching pattern.
func LoadHTMLRenderer(pattern string) (*HTMLRenderer, error) {
	t, err := template.New("admin").Funcs(FuncMap()).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return NewHTMLRenderer(t)
}

func (r *HTMLRenderer) Render(c *gin.Context, status int, view string, data gin.H) {
	if r.templates.Lookup(view) == nil {
		c.String(http.StatusInternalServerError, "unknown view %s", view)
		return
	}
	c.Render(status, ginrender.HTML{Template: r.templates, Name: view, Data: data})
}

// FuncMap holds the helpers available to admin templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"cell": func(row map[string]interface{}, column string) interface{} {
			if v, ok := row[column]; ok && v != nil {
				return v
			}
			return ""
		},
		"add": func(a, b int) int { return a + b },
	}
}
