package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntitySchema describes one persisted table: its columns in declaration
// order and the column acting as primary key.
type EntitySchema struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Fields      []FieldDef `json:"fields" yaml:"fields"`
	Indexes     []IndexDef `json:"indexes" yaml:"indexes"`
}

type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeNumber    FieldType = "number"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
	FieldTypeUUID      FieldType = "uuid"
)

// Valid reports whether t is one of the known column types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeNumber, FieldTypeBoolean,
		FieldTypeTimestamp, FieldTypeJSON, FieldTypeUUID:
		return true
	}
	return false
}

// Numeric reports whether values of t are parsed as numbers.
func (t FieldType) Numeric() bool {
	return t == FieldTypeInteger || t == FieldTypeNumber
}

type FieldDef struct {
	Name          string      `json:"name" yaml:"name"`
	Type          FieldType   `json:"type" yaml:"type"`
	Required      bool        `json:"required" yaml:"required"`
	Unique        bool        `json:"unique" yaml:"unique"`
	PrimaryKey    bool        `json:"primaryKey,omitempty" yaml:"primary_key"`
	AutoIncrement bool        `json:"autoIncrement,omitempty" yaml:"auto_increment"`
	DefaultValue  interface{} `json:"defaultValue,omitempty" yaml:"default"`
}

type IndexDef struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
	Unique bool     `json:"unique" yaml:"unique"`
}

// EntitySchemaModel is the row stored in the entity_schemas registry table.
type EntitySchemaModel struct {
	ID          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	Fields      string `gorm:"type:text"`
	Indexes     string `gorm:"type:text"`
}

func (EntitySchemaModel) TableName() string { return "entity_schemas" }

// PrimaryKey returns the primary-key column. Schemas validated by Validate
// always have exactly one.
func (s *EntitySchema) PrimaryKey() (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Field looks a column up by name.
func (s *EntitySchema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// ColumnNames returns the column names in declaration order.
func (s *EntitySchema) ColumnNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks the structural rules the store relies on.
func (s *EntitySchema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	pks := 0
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%s: field name cannot be empty", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.Valid() {
			return fmt.Errorf("%s.%s: unknown type %q", s.Name, f.Name, f.Type)
		}
		if f.PrimaryKey {
			pks++
		}
		if f.AutoIncrement && f.Type != FieldTypeInteger {
			return fmt.Errorf("%s.%s: auto_increment requires an integer column", s.Name, f.Name)
		}
	}
	if pks != 1 {
		return fmt.Errorf("%s: exactly one primary key column required, found %d", s.Name, pks)
	}
	for _, idx := range s.Indexes {
		for _, col := range idx.Fields {
			if _, ok := seen[col]; !ok {
				return fmt.Errorf("%s: index %s references unknown column %q", s.Name, idx.Name, col)
			}
		}
	}
	return nil
}

// ToModel serializes the schema for the registry table.
func (s *EntitySchema) ToModel() (*EntitySchemaModel, error) {
	fieldsBytes, err := json.Marshal(s.Fields)
	if err != nil {
		return nil, err
	}
	indexesBytes, err := json.Marshal(s.Indexes)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &EntitySchemaModel{
		ID:          s.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
		Name:        s.Name,
		Description: s.Description,
		Fields:      string(fieldsBytes),
		Indexes:     string(indexesBytes),
	}, nil
}

// FromModel is the inverse of ToModel.
func FromModel(m *EntitySchemaModel) (*EntitySchema, error) {
	var fields []FieldDef
	var indexes []IndexDef
	if err := json.Unmarshal([]byte(m.Fields), &fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", m.Name, err)
	}
	if m.Indexes != "" {
		if err := json.Unmarshal([]byte(m.Indexes), &indexes); err != nil {
			return nil, fmt.Errorf("decode indexes of %s: %w", m.Name, err)
		}
	}
	return &EntitySchema{
		Name:        m.Name,
		Description: m.Description,
		Fields:      fields,
		Indexes:     indexes,
	}, nil
}
