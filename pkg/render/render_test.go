package render

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukryu/pAdmin/pkg/admin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testTemplates = `
{{define "list"}}<h1>{{.entity}}</h1>{{template "list_content" .}}{{end}}
{{define "list_content"}}<table>{{range .page.Items}}<tr><td>{{cell . "name"}}</td></tr>{{end}}</table>{{end}}
{{define "create"}}<form>{{.error}}</form>{{end}}
{{define "update"}}<form>{{.id}}</form>{{end}}
`

func TestJSONRenderer(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewJSONRenderer().Render(c, http.StatusUnprocessableEntity, ViewCreate, gin.H{"error": "bad"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"bad"}`, w.Body.String())
}

func TestHTMLRenderer(t *testing.T) {
	tmpl := template.Must(template.New("admin").Funcs(FuncMap()).Parse(testTemplates))
	r, err := NewHTMLRenderer(tmpl)
	require.NoError(t, err)

	t.Run("named view", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		r.Render(c, http.StatusOK, ViewListContent, gin.H{
			"page": struct{ Items []map[string]interface{} }{
				Items: []map[string]interface{}{{"name": "Lamp"}, {"name": nil}},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<table><tr><td>Lamp</td></tr><tr><td></td></tr></table>", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	})

	t.Run("unknown view", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		r.Render(c, http.StatusOK, "dashboard", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestNewHTMLRenderer_MissingView(t *testing.T) {
	tmpl := template.Must(template.New("admin").Parse(`{{define "list"}}x{{end}}`))
	_, err := NewHTMLRenderer(tmpl)
	assert.ErrorContains(t, err, "list_content")
}

func TestLoadHTMLRenderer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin.html"), []byte(testTemplates), 0o644))

	_, err := LoadHTMLRenderer(filepath.Join(dir, "*.html"))
	assert.NoError(t, err)

	_, err = LoadHTMLRenderer(filepath.Join(dir, "*.tmpl"))
	assert.Error(t, err)
}

func TestShippedTemplates(t *testing.T) {
	r, err := LoadHTMLRenderer(filepath.Join("..", "..", "templates", "*.html"))
	require.NoError(t, err)

	base := gin.H{
		"entity":      "products",
		"primary_key": "id",
		"columns":     []string{"id", "name"},
		"actions":     map[string]bool{"view": true, "update": true, "delete": true},
		"base_path":   "/admin/products/",
	}
	with := func(extra gin.H) gin.H {
		data := gin.H{}
		for k, v := range base {
			data[k] = v
		}
		for k, v := range extra {
			data[k] = v
		}
		return data
	}

	tests := []struct {
		name string
		view string
		data gin.H
		want string
	}{
		{
			name: "list",
			view: ViewList,
			data: with(gin.H{"filter_column": "", "filter_value": "", "page": &admin.PageResult{
				Items:         []map[string]interface{}{{"id": int64(7), "name": "Lamp"}},
				TotalCount:    11,
				EffectivePage: 1,
				PageSize:      10,
				TotalPages:    2,
			}}),
			want: `href="/admin/products/update/7">Lamp</a>`,
		},
		{
			name: "create with errors",
			view: ViewCreate,
			data: with(gin.H{
				"fields":       []admin.FieldMeta{{Name: "name", Label: "name", Required: true, Value: "L"}},
				"field_errors": admin.FieldErrors{"name": "failed on the 'min=2' rule"},
				"error":        "please correct the errors below",
			}),
			want: "failed on the &#39;min=2&#39; rule",
		},
		{
			name: "update",
			view: ViewUpdate,
			data: with(gin.H{"id": "7", "fields": []admin.FieldMeta{{Name: "name", Label: "name", Value: "Lamp"}}}),
			want: `action="/admin/products/form_update/7"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			r.Render(c, http.StatusOK, tt.view, tt.data)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}
