package admin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sukryu/pAdmin/pkg/store/schema"
)

var validate = validator.New()

// FieldSpec is one field of a create/update/select schema.
type FieldSpec struct {
	Name     string           `json:"name" yaml:"name"`
	Type     schema.FieldType `json:"type" yaml:"type"`
	Required bool             `json:"required" yaml:"required"`
	Default  interface{}      `json:"default,omitempty" yaml:"default"`
	// Rules holds go-playground/validator tags, e.g. "email,max=64".
	Rules string `json:"rules,omitempty" yaml:"rules"`
	Label string `json:"label,omitempty" yaml:"label"`
}

// FormSchema is an ordered set of fields. Declared order is preserved by
// every operation that walks it.
type FormSchema struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

func (s *FormSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (s *FormSchema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

func (s *FormSchema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (s *FormSchema) Validate() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field name cannot be empty", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Type == "" {
			continue
		}
		if !f.Type.Valid() {
			return fmt.Errorf("schema %s: field %s has unknown type %q", s.Name, f.Name, f.Type)
		}
	}
	return nil
}

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

// Check parses every supplied value into its declared type and applies the
// field's rules. Fields not declared by the schema are dropped. When partial
// is true only supplied fields are checked, which is how updates behave.
func (s *FormSchema) Check(values map[string]interface{}, partial bool) (*FieldMap, FieldErrors) {
	out := NewFieldMap()
	errs := FieldErrors{}

	for _, f := range s.Fields {
		value, present := values[f.Name]
		if !present || isBlank(value) {
			if f.Required && !partial {
				errs[f.Name] = "field required"
				continue
			}
			if present {
				out.Set(f.Name, value)
			}
			continue
		}

		parsed, err := parseValue(value, f.Type)
		if err != nil {
			errs[f.Name] = err.Error()
			continue
		}
		if f.Rules != "" {
			if err := validate.Var(parsed, f.Rules); err != nil {
				errs[f.Name] = ruleMessage(err)
				continue
			}
		}
		out.Set(f.Name, parsed)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func ruleMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return err.Error()
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

// parseValue converts submitted form text into the field's native type.
func parseValue(v interface{}, t schema.FieldType) (interface{}, error) {
	if list, ok := v.([]string); ok {
		if t != schema.FieldTypeJSON {
			if len(list) != 1 {
				return nil, fmt.Errorf("expected a single value")
			}
			v = list[0]
		} else {
			items := make([]interface{}, len(list))
			for i, s := range list {
				items[i] = s
			}
			return items, nil
		}
	}

	s, isString := v.(string)
	if !isString {
		return v, nil
	}
	s = strings.TrimSpace(s)

	switch t {
	case schema.FieldTypeInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a valid integer")
		}
		return i, nil
	case schema.FieldTypeNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a valid number")
		}
		return f, nil
	case schema.FieldTypeBoolean:
		b, ok := parseBool(s)
		if !ok {
			return nil, fmt.Errorf("must be a valid boolean")
		}
		return b, nil
	case schema.FieldTypeTimestamp:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("must be a valid datetime")
	case schema.FieldTypeJSON:
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("must be valid JSON")
		}
		return decoded, nil
	default:
		return s, nil
	}
}

var (
	trueLiterals  = map[string]struct{}{"true": {}, "yes": {}, "1": {}, "t": {}, "y": {}, "on": {}}
	falseLiterals = map[string]struct{}{"false": {}, "no": {}, "0": {}, "f": {}, "n": {}, "off": {}}
)

func parseBool(s string) (bool, bool) {
	l := strings.ToLower(strings.TrimSpace(s))
	if _, ok := trueLiterals[l]; ok {
		return true, true
	}
	if _, ok := falseLiterals[l]; ok {
		return false, true
	}
	return false, false
}

// FieldMap is an ordered field map. It is the validated form instance and,
// when no internal schema is declared, the persistence payload itself.
type FieldMap struct {
	keys   []string
	values map[string]interface{}
}

func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]interface{})}
}

func (m *FieldMap) Set(key string, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *FieldMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *FieldMap) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *FieldMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *FieldMap) Len() int {
	return len(m.keys)
}

// Map returns a copy of the entries as a plain map.
func (m *FieldMap) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *FieldMap) Clone() *FieldMap {
	cp := NewFieldMap()
	for _, k := range m.keys {
		cp.Set(k, m.values[k])
	}
	return cp
}

// Compact drops entries whose value is nil.
func (m *FieldMap) Compact() *FieldMap {
	cp := NewFieldMap()
	for _, k := range m.keys {
		if m.values[k] != nil {
			cp.Set(k, m.values[k])
		}
	}
	return cp
}
