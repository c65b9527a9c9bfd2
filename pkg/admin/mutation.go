package admin

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sukryu/pAdmin/pkg/audit"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
)

const updatedAtField = "updated_at"

// Create validates, transforms and inserts one record inside a single
// transaction. Validation failures never reach the store.
func (v *EntityView) Create(ctx context.Context, form url.Values) (out Outcome) {
	defer v.recoverOutcome("create", &out)

	fs := v.desc.CreateSchema
	raw := NewFieldMap()
	submitted := make(map[string]interface{})

	for _, f := range fs.Fields {
		values := form[f.Name]
		switch {
		case len(values) == 1:
			if values[0] != "" {
				raw.Set(f.Name, values[0])
			} else {
				raw.Set(f.Name, f.Default)
			}
			submitted[f.Name] = values[0]
		case len(values) > 1:
			raw.Set(f.Name, values)
			submitted[f.Name] = values
		default:
			raw.Set(f.Name, f.Default)
		}
	}

	validated, fieldErrs := fs.Check(raw.Map(), false)
	if fieldErrs != nil {
		return OutcomeValidationFailure(fieldErrs).withValues(submitted)
	}

	payload, fieldErrs, err := v.payload(raw, validated, true)
	if fieldErrs != nil {
		return OutcomeValidationFailure(fieldErrs).withValues(submitted)
	}
	if err != nil {
		return OutcomeError(err).withValues(submitted)
	}

	var record map[string]interface{}
	err = v.store.TransactionWithOptions(ctx, dynamic.TransactionOptions{}, func(tx dynamic.DynamicStore) error {
		created, err := tx.Create(ctx, v.desc.Table, payload.Map())
		if err != nil {
			return err
		}
		record = created
		return nil
	})
	if err != nil {
		return OutcomeError(storageError(err)).withValues(submitted)
	}

	v.notify(ctx, audit.KindCreate, nil, record)
	return OutcomeSuccess(record)
}

// Update applies the non-blank submitted fields to an existing record.
func (v *EntityView) Update(ctx context.Context, rawID string, form url.Values) (out Outcome) {
	defer v.recoverOutcome("update", &out)

	id, err := CoerceID(rawID, v.desc.PKType)
	if err != nil {
		return OutcomeError(err)
	}
	current, err := v.Lookup(ctx, rawID)
	if err != nil {
		return OutcomeError(err)
	}

	fs := v.desc.UpdateSchema
	raw := NewFieldMap()
	submitted := make(map[string]interface{})
	for _, f := range fs.Fields {
		var kept []string
		for _, s := range form[f.Name] {
			if s = strings.TrimSpace(s); s != "" {
				kept = append(kept, s)
			}
		}
		switch len(kept) {
		case 0:
		case 1:
			raw.Set(f.Name, kept[0])
			submitted[f.Name] = kept[0]
		default:
			raw.Set(f.Name, kept)
			submitted[f.Name] = kept
		}
	}
	refill := v.refill(submitted, current)

	if raw.Len() == 0 {
		return OutcomeError(errors.ErrNoChanges.WithReason("No changes were provided for update")).withValues(refill)
	}

	validated, fieldErrs := fs.Check(raw.Map(), true)
	if fieldErrs != nil {
		return OutcomeValidationFailure(fieldErrs).withValues(refill)
	}

	payload, fieldErrs, err := v.payload(raw, validated, false)
	if fieldErrs != nil {
		return OutcomeValidationFailure(fieldErrs).withValues(refill)
	}
	if err != nil {
		return OutcomeError(err).withValues(refill)
	}

	var record map[string]interface{}
	err = v.store.TransactionWithOptions(ctx, dynamic.TransactionOptions{}, func(tx dynamic.DynamicStore) error {
		if err := tx.Update(ctx, v.desc.Table, id, payload.Map()); err != nil {
			return err
		}
		updated, err := tx.Get(ctx, v.desc.Table, id, v.desc.Projection())
		if err != nil {
			return err
		}
		record = updated
		return nil
	})
	if err != nil {
		return OutcomeError(storageError(err)).withValues(refill)
	}

	v.notify(ctx, audit.KindUpdate, current, record)
	return OutcomeSuccess(record)
}

// Delete removes one record and returns its last projected state.
func (v *EntityView) Delete(ctx context.Context, rawID string) (out Outcome) {
	defer v.recoverOutcome("delete", &out)

	id, err := CoerceID(rawID, v.desc.PKType)
	if err != nil {
		return OutcomeError(err)
	}

	var before map[string]interface{}
	err = v.store.TransactionWithOptions(ctx, dynamic.TransactionOptions{}, func(tx dynamic.DynamicStore) error {
		record, err := tx.Get(ctx, v.desc.Table, id, v.desc.DeleteProjection())
		if err != nil {
			return err
		}
		before = record
		return tx.Delete(ctx, v.desc.Table, id)
	})
	if err != nil {
		return OutcomeError(storageError(err))
	}

	v.notify(ctx, audit.KindDelete, before, nil)
	return OutcomeSuccess(before)
}

// payload turns the validated form into the map handed to the store: the
// transformer output when one is configured, then restricted to the internal
// schema when one is declared.
func (v *EntityView) payload(raw, validated *FieldMap, create bool) (*FieldMap, FieldErrors, error) {
	out := validated
	if t := v.desc.Transformer; t != nil {
		var err error
		if create {
			out, err = t.TransformCreate(raw, validated)
		} else {
			out, err = t.TransformUpdate(raw, validated)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	internal := v.desc.UpdateInternalSchema
	if !create && internal != nil && internal.Has(updatedAtField) {
		if _, ok := out.Get(updatedAtField); !ok {
			out = out.Clone()
			out.Set(updatedAtField, time.Now().UTC())
		}
	}
	if internal != nil {
		checked, fieldErrs := internal.Check(out.Map(), true)
		if fieldErrs != nil {
			return nil, fieldErrs, nil
		}
		out = checked
	}
	return out.Compact(), nil, nil
}

// refill fills the fields the user did not submit from the stored record.
func (v *EntityView) refill(submitted, current map[string]interface{}) map[string]interface{} {
	values := make(map[string]interface{}, len(submitted))
	for k, val := range submitted {
		values[k] = val
	}
	for _, f := range v.desc.UpdateSchema.Fields {
		if _, ok := values[f.Name]; ok {
			continue
		}
		if val, ok := current[f.Name]; ok {
			values[f.Name] = val
		}
	}
	return values
}
