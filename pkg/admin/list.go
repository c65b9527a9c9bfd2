package admin

import (
	"context"
	"log"

	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
)

// ListRequest carries the raw list parameters of one request.
type ListRequest struct {
	Page          PageRequest
	SortColumn    string
	SortDirection string
	FilterColumn  string
	FilterValue   string
}

// List reads one page. Invalid sort and filter input is ignored, and a
// store failure degrades to an empty page.
func (v *EntityView) List(ctx context.Context, req ListRequest) *PageResult {
	page := req.Page.Capped(v.maxPageSize)

	var filters []dynamic.Filter
	if f, ok := BuildPredicate(req.FilterColumn, req.FilterValue, v.table); ok {
		filters = append(filters, f)
	}
	var sorts []dynamic.Sort
	if s, ok := ParseSort(req.SortColumn, req.SortDirection, v.table); ok {
		sorts = append(sorts, s)
	}

	result, err := v.readSnapshot(ctx, page, sorts, filters)
	if err != nil {
		log.Printf("list %s: %v", v.desc.Name, err)
		return emptyPage(page)
	}
	return result
}

var snapshotRead = dynamic.TransactionOptions{IsolationLevel: dynamic.RepeatableRead, ReadOnly: true}

// readSnapshot reads the total and the page inside one read-only
// transaction so both come from the same snapshot.
func (v *EntityView) readSnapshot(ctx context.Context, page PageRequest, sorts []dynamic.Sort, filters []dynamic.Filter) (*PageResult, error) {
	var result *PageResult
	err := v.store.TransactionWithOptions(ctx, snapshotRead, func(tx dynamic.DynamicStore) error {
		var err error
		result, err = v.readPage(ctx, tx, page, sorts, filters)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (v *EntityView) readPage(ctx context.Context, store dynamic.DynamicStore, page PageRequest, sorts []dynamic.Sort, filters []dynamic.Filter) (*PageResult, error) {
	total, err := store.Count(ctx, v.desc.Table, filters)
	if err != nil {
		return nil, err
	}
	plan := Plan(page, total)

	items, _, err := store.GetMany(ctx, v.desc.Table, dynamic.ListQuery{
		Offset:  plan.Offset,
		Limit:   plan.Limit,
		Sorts:   sorts,
		Filters: filters,
		Columns: v.desc.Projection(),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []map[string]interface{}{}
	}
	return &PageResult{
		Items:         items,
		TotalCount:    total,
		EffectivePage: plan.EffectivePage,
		PageSize:      plan.Limit,
		TotalPages:    plan.TotalPages,
	}, nil
}

// Lookup fetches one projected record by its raw identifier.
func (v *EntityView) Lookup(ctx context.Context, rawID string) (map[string]interface{}, error) {
	id, err := CoerceID(rawID, v.desc.PKType)
	if err != nil {
		return nil, err
	}
	record, err := v.store.Get(ctx, v.desc.Table, id, v.desc.Projection())
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrNotFound.WithReason("Item with id " + rawID + " not found")
		}
		return nil, storageError(err)
	}
	return record, nil
}
