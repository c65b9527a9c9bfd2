package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/sukryu/pAdmin/pkg/audit"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
)

type BulkDeleteRequest struct {
	IDs  []interface{}
	Page PageRequest
}

type BulkDeleteResult struct {
	Deleted []map[string]interface{} `json:"deleted"`
	Page    *PageResult              `json:"page"`
}

// BulkDelete removes every identified record or none of them, then returns
// the requested page re-clamped to the new total.
func (v *EntityView) BulkDelete(ctx context.Context, req BulkDeleteRequest) (res *BulkDeleteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in bulk delete %s: %v", v.desc.Name, r)
			res, err = nil, errors.ErrInternal
		}
	}()

	if len(req.IDs) == 0 {
		return nil, errors.ErrNoIdentifiers
	}
	ids, err := CoerceIDs(req.IDs, v.desc.PKType)
	if err != nil {
		return nil, err
	}

	var deleted []map[string]interface{}
	err = v.store.TransactionWithOptions(ctx, dynamic.TransactionOptions{}, func(tx dynamic.DynamicStore) error {
		snapshot, _, err := tx.GetMany(ctx, v.desc.Table, dynamic.ListQuery{
			Limit:   len(ids),
			Filters: []dynamic.Filter{{Column: v.desc.PrimaryKey, Operator: dynamic.OpIn, Value: ids}},
			Columns: v.desc.DeleteProjection(),
		})
		if err != nil {
			return err
		}
		deleted = snapshot

		for _, id := range ids {
			if err := tx.Delete(ctx, v.desc.Table, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrStorageOperation.WithReason(fmt.Sprintf("Error during deletion: %s", reasonOf(err)))
	}

	v.notify(ctx, audit.KindBulkDelete, deleted, nil)

	page, err := v.readSnapshot(ctx, req.Page.Capped(v.maxPageSize), nil, nil)
	if err != nil {
		log.Printf("bulk delete %s: reading page after delete: %v", v.desc.Name, err)
		page = emptyPage(req.Page)
	}
	if deleted == nil {
		deleted = []map[string]interface{}{}
	}
	return &BulkDeleteResult{Deleted: deleted, Page: page}, nil
}

func reasonOf(err error) string {
	if se := errors.AsStatus(err); se.Reason != "" {
		return se.Reason
	}
	return err.Error()
}
