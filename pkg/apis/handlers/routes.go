package handlers

import (
	"net/http"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/sukryu/pAdmin/pkg/admin"
)

// Route is one endpoint exposed for an entity, relative to its group.
type Route struct {
	Method string
	Path   string
	Action admin.Action
	Name   string
}

var allRoutes = []Route{
	{Method: http.MethodGet, Path: "/", Action: admin.ActionView, Name: "list"},
	{Method: http.MethodGet, Path: "/list", Action: admin.ActionView, Name: "list_content"},
	{Method: http.MethodGet, Path: "/meta", Action: admin.ActionView, Name: "meta"},
	{Method: http.MethodGet, Path: "/create_page", Action: admin.ActionCreate, Name: "create_page"},
	{Method: http.MethodPost, Path: "/form_create", Action: admin.ActionCreate, Name: "form_create"},
	{Method: http.MethodGet, Path: "/update/:id", Action: admin.ActionUpdate, Name: "update_page"},
	{Method: http.MethodPost, Path: "/form_update/:id", Action: admin.ActionUpdate, Name: "form_update"},
	{Method: http.MethodDelete, Path: "/bulk-delete", Action: admin.ActionDelete, Name: "bulk_delete"},
	{Method: http.MethodDelete, Path: "/item/:id", Action: admin.ActionDelete, Name: "delete_item"},
}

// RouteTable returns the routes of the given actions, in a stable order.
func RouteTable(actions sets.Set[admin.Action]) []Route {
	routes := make([]Route, 0, len(allRoutes))
	for _, r := range allRoutes {
		if actions.Has(r.Action) {
			routes = append(routes, r)
		}
	}
	return routes
}
