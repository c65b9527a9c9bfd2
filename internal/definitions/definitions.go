package definitions

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// File is the top level of an entity definitions document.
type File struct {
	Entities []Entity `yaml:"entities"`
}

// Entity declares one managed table together with its admin forms.
type Entity struct {
	Name        string             `yaml:"name"`
	Table       string             `yaml:"table"`
	Description string             `yaml:"description"`
	AdminModel  bool               `yaml:"admin_model"`
	Actions     []string           `yaml:"actions"`
	Columns     []schema.FieldDef  `yaml:"columns"`
	Indexes     []schema.IndexDef  `yaml:"indexes"`
	PrimaryKey  string             `yaml:"primary_key"`
	Create      *admin.FormSchema  `yaml:"create"`
	Update      *admin.FormSchema  `yaml:"update"`
	Internal    *admin.FormSchema  `yaml:"update_internal"`
	Delete      *admin.FormSchema  `yaml:"delete"`
	Select      *admin.FormSchema  `yaml:"select"`
	Transformer *TransformerConfig `yaml:"transformer"`
}

// TransformerConfig configures a SecretTransformer.
type TransformerConfig struct {
	Source     string   `yaml:"source"`
	Target     string   `yaml:"target"`
	Required   []string `yaml:"required"`
	Timestamp  string   `yaml:"timestamp"`
	Hash       string   `yaml:"hash"`
	BcryptCost int      `yaml:"bcrypt_cost"`
}

// Definition is a parsed entity ready for migration and registration.
type Definition struct {
	Table      *schema.EntitySchema
	Descriptor admin.EntityDescriptor
}

func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	return Parse(data)
}

// Parse decodes a definitions document. Unknown keys are rejected.
func Parse(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}
	if len(f.Entities) == 0 {
		return nil, fmt.Errorf("no entities defined")
	}

	defs := make([]Definition, 0, len(f.Entities))
	seen := make(map[string]struct{}, len(f.Entities))
	for _, e := range f.Entities {
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		def, err := e.build()
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (e Entity) build() (Definition, error) {
	table := e.Table
	if table == "" {
		table = e.Name
	}

	ts := &schema.EntitySchema{
		Name:        table,
		Description: e.Description,
		Fields:      e.Columns,
		Indexes:     e.Indexes,
	}
	if err := ts.Validate(); err != nil {
		return Definition{}, err
	}

	desc := admin.EntityDescriptor{
		Name:                 e.Name,
		Table:                table,
		CreateSchema:         e.Create,
		UpdateSchema:         e.Update,
		UpdateInternalSchema: e.Internal,
		DeleteSchema:         e.Delete,
		SelectSchema:         e.Select,
		PrimaryKey:           e.PrimaryKey,
		AdminModel:           e.AdminModel,
	}
	if len(e.Actions) > 0 {
		actions, err := admin.ParseActions(e.Actions)
		if err != nil {
			return Definition{}, err
		}
		desc.AllowedActions = actions
	}
	if e.Transformer != nil {
		t, err := e.Transformer.build()
		if err != nil {
			return Definition{}, err
		}
		desc.Transformer = t
	}
	if err := desc.Validate(); err != nil {
		return Definition{}, err
	}

	return Definition{Table: ts, Descriptor: desc}, nil
}

func (c *TransformerConfig) build() (*admin.SecretTransformer, error) {
	if c.Source == "" || c.Target == "" {
		return nil, fmt.Errorf("transformer requires source and target")
	}
	t := &admin.SecretTransformer{
		SourceField:    c.Source,
		TargetField:    c.Target,
		RequiredFields: c.Required,
		TimestampField: c.Timestamp,
	}

	switch c.Hash {
	case "", "bcrypt":
		cost := c.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt_cost %d out of range", cost)
		}
		t.Hash = admin.BcryptHash(cost)
	case "none":
	default:
		return nil, fmt.Errorf("unknown hash %q", c.Hash)
	}
	return t, nil
}
