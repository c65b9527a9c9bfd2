package admin

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// Action is an operation an entity can expose.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var knownActions = sets.New(ActionView, ActionCreate, ActionUpdate, ActionDelete)

// DefaultActions is used when a descriptor configures none.
func DefaultActions() sets.Set[Action] {
	return knownActions.Clone()
}

// ParseActions converts configured action names into a set, rejecting
// unknown names.
func ParseActions(names []string) (sets.Set[Action], error) {
	actions := sets.New[Action]()
	for _, n := range names {
		a := Action(n)
		if !knownActions.Has(a) {
			return nil, fmt.Errorf("unknown action %q", n)
		}
		actions.Insert(a)
	}
	return actions, nil
}

// PKType is the native type of an entity's primary key.
type PKType string

const (
	PKInteger PKType = "integer"
	PKText    PKType = "text"
	PKFloat   PKType = "float"
	PKOpaque  PKType = "opaque"
)

// PKTypeFor maps a column type to the key type used for coercion.
func PKTypeFor(t schema.FieldType) PKType {
	switch t {
	case schema.FieldTypeInteger:
		return PKInteger
	case schema.FieldTypeNumber:
		return PKFloat
	case schema.FieldTypeUUID:
		return PKOpaque
	default:
		return PKText
	}
}

// EntityDescriptor declares one managed entity. It is built once at start-up
// and never modified after NewEntityView resolves it.
type EntityDescriptor struct {
	Name  string
	Table string

	CreateSchema *FormSchema
	UpdateSchema *FormSchema
	// UpdateInternalSchema restricts and converts the persisted payload when set.
	UpdateInternalSchema *FormSchema
	// DeleteSchema is the projection of records echoed back by deletes.
	DeleteSchema *FormSchema
	// SelectSchema is the projection used by reads; nil selects every column.
	SelectSchema *FormSchema

	PrimaryKey string
	PKType     PKType

	AllowedActions sets.Set[Action]

	// AdminModel opts the entity into the default password transformer.
	AdminModel  bool
	Transformer Transformer
}

func (d *EntityDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("entity name cannot be empty")
	}
	if d.Table == "" {
		return fmt.Errorf("%s: table cannot be empty", d.Name)
	}
	if d.CreateSchema == nil || d.UpdateSchema == nil {
		return fmt.Errorf("%s: create and update schemas are required", d.Name)
	}
	for _, fs := range []*FormSchema{d.CreateSchema, d.UpdateSchema, d.UpdateInternalSchema, d.DeleteSchema, d.SelectSchema} {
		if fs == nil {
			continue
		}
		if err := fs.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	if d.PKType != "" {
		switch d.PKType {
		case PKInteger, PKText, PKFloat, PKOpaque:
		default:
			return fmt.Errorf("%s: unknown primary key type %q", d.Name, d.PKType)
		}
	}
	for a := range d.AllowedActions {
		if !knownActions.Has(a) {
			return fmt.Errorf("%s: unknown action %q", d.Name, a)
		}
	}
	return nil
}

// Allows reports whether a is configured for the entity.
func (d *EntityDescriptor) Allows(a Action) bool {
	return d.AllowedActions.Has(a)
}

// Projection returns the columns selected by reads, or nil for all. The
// primary key is always part of a projection.
func (d *EntityDescriptor) Projection() []string {
	return d.keyed(d.SelectSchema)
}

// DeleteProjection returns the columns echoed back for deleted records. It
// follows DeleteSchema when one is declared and Projection otherwise.
func (d *EntityDescriptor) DeleteProjection() []string {
	if d.DeleteSchema == nil {
		return d.Projection()
	}
	return d.keyed(d.DeleteSchema)
}

func (d *EntityDescriptor) keyed(fs *FormSchema) []string {
	if fs == nil {
		return nil
	}
	names := fs.Names()
	if d.PrimaryKey != "" && !fs.Has(d.PrimaryKey) {
		names = append([]string{d.PrimaryKey}, names...)
	}
	return names
}

// resolve fills the fields derivable from the stored table and checks the
// descriptor against it.
func (d *EntityDescriptor) resolve(table *schema.EntitySchema) error {
	pk, ok := table.PrimaryKey()
	if !ok {
		return fmt.Errorf("%s: table %s has no primary key", d.Name, table.Name)
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = pk.Name
	} else if d.PrimaryKey != pk.Name {
		return fmt.Errorf("%s: primary key %q does not match table key %q", d.Name, d.PrimaryKey, pk.Name)
	}
	if d.PKType == "" {
		d.PKType = PKTypeFor(pk.Type)
	}

	for _, name := range d.Projection() {
		if _, ok := table.Field(name); !ok {
			return fmt.Errorf("%s: select schema references unknown column %q", d.Name, name)
		}
	}
	if d.DeleteSchema != nil {
		for _, name := range d.DeleteProjection() {
			if _, ok := table.Field(name); !ok {
				return fmt.Errorf("%s: delete schema references unknown column %q", d.Name, name)
			}
		}
	}

	if d.AllowedActions == nil {
		d.AllowedActions = DefaultActions()
	}
	if d.AdminModel && d.Transformer == nil {
		d.Transformer = DefaultAdminTransformer()
	}
	return nil
}
