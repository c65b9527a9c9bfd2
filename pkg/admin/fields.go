package admin

import "github.com/sukryu/pAdmin/pkg/store/schema"

// FieldMeta describes one form field for rendering.
type FieldMeta struct {
	Name     string           `json:"name"`
	Type     schema.FieldType `json:"type"`
	Required bool             `json:"required"`
	Default  interface{}      `json:"default,omitempty"`
	Value    interface{}      `json:"value,omitempty"`
	Label    string           `json:"label"`
}

// Fields derives field metadata in declared order.
func Fields(s *FormSchema) []FieldMeta {
	if s == nil {
		return nil
	}
	metas := make([]FieldMeta, 0, len(s.Fields))
	for _, f := range s.Fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		metas = append(metas, FieldMeta{
			Name:     f.Name,
			Type:     f.Type,
			Required: f.Required,
			Default:  f.Default,
			Value:    f.Default,
			Label:    label,
		})
	}
	return metas
}

// FieldsWithRecord overlays the record's current values. Fields missing
// from the record keep their default.
func FieldsWithRecord(s *FormSchema, record map[string]interface{}) []FieldMeta {
	metas := Fields(s)
	for i := range metas {
		if v, ok := record[metas[i].Name]; ok {
			metas[i].Value = v
		}
	}
	return metas
}
