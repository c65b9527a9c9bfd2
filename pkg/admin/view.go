package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/sukryu/pAdmin/pkg/audit"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// Auditor is notified after a write commits.
type Auditor = audit.Auditor

// EntityView is the generic engine for one entity. It holds only data that
// is immutable after construction and is safe for concurrent requests.
type EntityView struct {
	desc        EntityDescriptor
	table       *schema.EntitySchema
	store       dynamic.DynamicStore
	auditor     Auditor
	maxPageSize int
}

type Option func(*EntityView)

func WithAuditor(a Auditor) Option {
	return func(v *EntityView) { v.auditor = a }
}

// WithMaxPageSize caps the page size of list and bulk-delete responses.
func WithMaxPageSize(n int) Option {
	return func(v *EntityView) { v.maxPageSize = n }
}

func NewEntityView(ctx context.Context, desc EntityDescriptor, store dynamic.DynamicStore, opts ...Option) (*EntityView, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if err := desc.Validate(); err != nil {
		return nil, errors.ErrInvalidSchema.WithReason(err.Error())
	}
	table, err := store.GetSchema(ctx, desc.Table)
	if err != nil {
		return nil, err
	}
	if err := desc.resolve(table); err != nil {
		return nil, errors.ErrInvalidSchema.WithReason(err.Error())
	}

	v := &EntityView{
		desc:        desc,
		table:       table,
		store:       store,
		maxPageSize: 100,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *EntityView) Name() string { return v.desc.Name }

func (v *EntityView) Descriptor() EntityDescriptor { return v.desc }

func (v *EntityView) TableSchema() *schema.EntitySchema { return v.table }

// Columns lists the columns shown by list views, in table order.
func (v *EntityView) Columns() []string {
	if p := v.desc.Projection(); p != nil {
		return p
	}
	return v.table.ColumnNames()
}

// notify runs after commit, so neither an audit error nor a panic may change
// the outcome of the write.
func (v *EntityView) notify(ctx context.Context, kind audit.Kind, before, after interface{}) {
	if v.auditor == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in audit %s %s: %v", kind, v.desc.Name, r)
		}
	}()
	actor, _ := ActorFrom(ctx)
	ev := audit.NewEvent(kind, v.desc.Name, actor.ID)
	ev.Before = before
	ev.After = after
	if err := v.auditor.Record(ctx, ev); err != nil {
		log.Printf("audit %s %s: %v", kind, v.desc.Name, err)
	}
}

// recoverOutcome degrades a panic inside an operation to a generic error.
func (v *EntityView) recoverOutcome(op string, out *Outcome) {
	if r := recover(); r != nil {
		log.Printf("panic in %s %s: %v", op, v.desc.Name, r)
		*out = OutcomeError(errors.ErrInternal)
	}
}

func storageError(err error) error {
	if errors.Is(err, errors.ErrNotFound) {
		return err
	}
	if errors.Is(err, errors.ErrStorageOperation) {
		return err
	}
	return errors.ErrStorageOperation.WithReason(err.Error())
}
