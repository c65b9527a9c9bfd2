package admin

import (
	"strconv"
	"strings"

	"github.com/sukryu/pAdmin/pkg/store/dynamic"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ParsePageRequest reads raw page parameters. Absent values take their
// default; a malformed value resets both to page=1, size=10.
func ParsePageRequest(rawPage, rawSize string) PageRequest {
	req := PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}

	if rawPage = strings.TrimSpace(rawPage); rawPage != "" {
		p, err := strconv.Atoi(rawPage)
		if err != nil {
			return PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}
		}
		req.Page = p
	}
	if rawSize = strings.TrimSpace(rawSize); rawSize != "" {
		s, err := strconv.Atoi(rawSize)
		if err != nil {
			return PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}
		}
		req.PageSize = s
	}
	return req.normalized()
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	return r
}

// Capped limits the page size to limit. A non-positive limit disables the cap.
func (r PageRequest) Capped(limit int) PageRequest {
	r = r.normalized()
	if limit > 0 && r.PageSize > limit {
		r.PageSize = limit
	}
	return r
}

// PagePlan is the window actually read for a request.
type PagePlan struct {
	Offset        int
	Limit         int
	EffectivePage int
	TotalPages    int
}

// Plan clamps the requested page to the last page that exists for total
// and derives the offset from the clamped page.
func Plan(req PageRequest, total int64) PagePlan {
	req = req.normalized()
	size := int64(req.PageSize)

	pages := int((total + size - 1) / size)
	if pages < 1 {
		pages = 1
	}
	page := req.Page
	if page > pages {
		page = pages
	}
	return PagePlan{
		Offset:        (page - 1) * req.PageSize,
		Limit:         req.PageSize,
		EffectivePage: page,
		TotalPages:    pages,
	}
}

type PageResult struct {
	Items         []map[string]interface{} `json:"items"`
	TotalCount    int64                    `json:"totalCount"`
	EffectivePage int                      `json:"page"`
	PageSize      int                      `json:"pageSize"`
	TotalPages    int                      `json:"totalPages"`
}

func emptyPage(req PageRequest) *PageResult {
	req = req.normalized()
	return &PageResult{
		Items:         []map[string]interface{}{},
		EffectivePage: 1,
		PageSize:      req.PageSize,
		TotalPages:    1,
	}
}

// ParseSort returns no sort for an empty, "None" or unknown column.
func ParseSort(column, direction string, table *schema.EntitySchema) (dynamic.Sort, bool) {
	column = strings.TrimSpace(column)
	if column == "" || column == "None" || table == nil {
		return dynamic.Sort{}, false
	}
	if _, ok := table.Field(column); !ok {
		return dynamic.Sort{}, false
	}
	return dynamic.Sort{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(direction), "desc"),
	}, true
}
