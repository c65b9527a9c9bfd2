package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/render"
)

// EntityHandler serves the admin pages of one entity.
type EntityHandler struct {
	view     *admin.EntityView
	renderer render.Renderer
	listPath string
}

func NewEntityHandler(view *admin.EntityView, renderer render.Renderer) *EntityHandler {
	if renderer == nil {
		renderer = render.NewJSONRenderer()
	}
	return &EntityHandler{view: view, renderer: renderer}
}

func (h *EntityHandler) Name() string {
	return h.view.Name()
}

// Register mounts the entity's route table on group. guard runs in front of
// every route that writes.
func (h *EntityHandler) Register(group *gin.RouterGroup, guard ...gin.HandlerFunc) {
	h.listPath = strings.TrimSuffix(group.BasePath(), "/") + "/"

	handlers := map[string]gin.HandlerFunc{
		"list":         h.ListPage,
		"list_content": h.ListContent,
		"meta":         h.Meta,
		"create_page":  h.CreatePage,
		"form_create":  h.FormCreate,
		"update_page":  h.UpdatePage,
		"form_update":  h.FormUpdate,
		"bulk_delete":  h.BulkDelete,
		"delete_item":  h.DeleteItem,
	}

	desc := h.view.Descriptor()
	for _, r := range RouteTable(desc.AllowedActions) {
		chain := []gin.HandlerFunc{}
		if r.Method != http.MethodGet {
			chain = append(chain, guard...)
		}
		chain = append(chain, handlers[r.Name])
		group.Handle(r.Method, r.Path, chain...)
	}
}

func (h *EntityHandler) ListPage(c *gin.Context) {
	view := render.ViewList
	if isHTMX(c) {
		view = render.ViewListContent
	}
	h.renderList(c, view)
}

func (h *EntityHandler) ListContent(c *gin.Context) {
	h.renderList(c, render.ViewListContent)
}

func (h *EntityHandler) renderList(c *gin.Context, view string) {
	req := admin.ListRequest{
		Page:          pageRequest(c),
		SortColumn:    query(c, "sortColumn", "sort_by"),
		SortDirection: query(c, "sortDirection", "sort_order"),
		FilterColumn:  query(c, "filterColumn", "column-to-search"),
		FilterValue:   query(c, "filterValue", "search-input"),
	}
	page := h.view.List(c.Request.Context(), req)

	data := h.baseData()
	data["page"] = page
	data["sort_column"] = req.SortColumn
	data["sort_direction"] = req.SortDirection
	data["filter_column"] = req.FilterColumn
	data["filter_value"] = req.FilterValue
	h.renderer.Render(c, http.StatusOK, view, data)
}

// Meta describes the entity for clients that build their own forms.
func (h *EntityHandler) Meta(c *gin.Context) {
	desc := h.view.Descriptor()
	columns := make([]gin.H, 0, len(h.view.TableSchema().Fields))
	for _, f := range h.view.TableSchema().Fields {
		columns = append(columns, gin.H{"name": f.Name, "type": f.Type, "primary_key": f.PrimaryKey})
	}

	c.JSON(http.StatusOK, gin.H{
		"entity":        desc.Name,
		"primary_key":   desc.PrimaryKey,
		"pk_type":       desc.PKType,
		"columns":       columns,
		"list_columns":  h.view.Columns(),
		"actions":       actionNames(desc),
		"create_fields": admin.Fields(desc.CreateSchema),
		"update_fields": admin.Fields(desc.UpdateSchema),
	})
}

func (h *EntityHandler) CreatePage(c *gin.Context) {
	data := h.baseData()
	data["fields"] = admin.Fields(h.view.Descriptor().CreateSchema)
	h.renderer.Render(c, http.StatusOK, render.ViewCreate, data)
}

func (h *EntityHandler) FormCreate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	out := h.view.Create(c.Request.Context(), c.Request.PostForm)
	if out.OK() {
		h.redirectToList(c)
		return
	}

	data := h.baseData()
	data["fields"] = admin.FieldsWithRecord(h.view.Descriptor().CreateSchema, out.Values)
	data["field_errors"] = out.FieldErrors
	data["error"] = out.Message()
	h.renderer.Render(c, http.StatusUnprocessableEntity, render.ViewCreate, data)
}

func (h *EntityHandler) UpdatePage(c *gin.Context) {
	id := c.Param("id")
	record, err := h.view.Lookup(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	data := h.baseData()
	data["id"] = id
	data["record"] = record
	data["fields"] = admin.FieldsWithRecord(h.view.Descriptor().UpdateSchema, record)
	h.renderer.Render(c, http.StatusOK, render.ViewUpdate, data)
}

func (h *EntityHandler) FormUpdate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	id := c.Param("id")
	out := h.view.Update(c.Request.Context(), id, c.Request.PostForm)
	if out.OK() {
		h.redirectToList(c)
		return
	}
	// 없는 레코드는 폼을 다시 그리지 않는다
	if out.Err != nil && errors.Is(out.Err, errors.ErrNotFound) {
		c.Error(out.Err)
		return
	}

	data := h.baseData()
	data["id"] = id
	data["fields"] = admin.FieldsWithRecord(h.view.Descriptor().UpdateSchema, out.Values)
	data["field_errors"] = out.FieldErrors
	data["error"] = out.Message()
	h.renderer.Render(c, http.StatusBadRequest, render.ViewUpdate, data)
}

type bulkDeleteRequest struct {
	IDs []interface{} `json:"ids"`
}

func (h *EntityHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	// ids stay json.Number so large integer keys are not rounded through float64
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	res, err := h.view.BulkDelete(c.Request.Context(), admin.BulkDeleteRequest{
		IDs:  req.IDs,
		Page: pageRequest(c),
	})
	if err != nil {
		c.Error(err)
		return
	}

	data := h.baseData()
	data["page"] = res.Page
	data["deleted"] = res.Deleted
	h.renderer.Render(c, http.StatusOK, render.ViewListContent, data)
}

func (h *EntityHandler) DeleteItem(c *gin.Context) {
	out := h.view.Delete(c.Request.Context(), c.Param("id"))
	if !out.OK() {
		c.Error(out.Err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": out.Record})
}

func (h *EntityHandler) baseData() gin.H {
	desc := h.view.Descriptor()
	return gin.H{
		"entity":      desc.Name,
		"primary_key": desc.PrimaryKey,
		"columns":     h.view.Columns(),
		"actions":     actionNames(desc),
		"base_path":   h.listPath,
	}
}

func (h *EntityHandler) redirectToList(c *gin.Context) {
	if isHTMX(c) {
		c.Header("HX-Redirect", h.listPath)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, h.listPath)
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// query returns the first non-empty query parameter among names.
func query(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.Query(n); v != "" {
			return v
		}
	}
	return ""
}

func pageRequest(c *gin.Context) admin.PageRequest {
	return admin.ParsePageRequest(query(c, "page"), query(c, "pageSize", "rows-per-page-select"))
}

func actionNames(desc admin.EntityDescriptor) map[string]bool {
	names := make(map[string]bool, desc.AllowedActions.Len())
	for a := range desc.AllowedActions {
		names[string(a)] = true
	}
	return names
}
