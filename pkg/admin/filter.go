package admin

import (
	"strconv"
	"strings"

	"github.com/sukryu/pAdmin/pkg/store/dynamic"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

var (
	filterTrue  = map[string]struct{}{"true": {}, "yes": {}, "1": {}, "t": {}, "y": {}}
	filterFalse = map[string]struct{}{"false": {}, "no": {}, "0": {}, "f": {}, "n": {}}
)

// BuildPredicate turns a search box pair into a typed filter. It never
// fails: unknown columns, empty values, unparseable numbers or booleans and
// columns without a text form produce no predicate, so the list stays
// unfiltered.
func BuildPredicate(column, raw string, table *schema.EntitySchema) (dynamic.Filter, bool) {
	value := strings.TrimSpace(raw)
	if column == "" || value == "" || table == nil {
		return dynamic.Filter{}, false
	}
	field, ok := table.Field(column)
	if !ok {
		return dynamic.Filter{}, false
	}

	switch field.Type {
	case schema.FieldTypeInteger:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return dynamic.Filter{}, false
		}
		return dynamic.Filter{Column: column, Operator: dynamic.OpEquals, Value: i}, true
	case schema.FieldTypeNumber:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return dynamic.Filter{}, false
		}
		return dynamic.Filter{Column: column, Operator: dynamic.OpEquals, Value: f}, true
	case schema.FieldTypeBoolean:
		l := strings.ToLower(value)
		if _, ok := filterTrue[l]; ok {
			return dynamic.Filter{Column: column, Operator: dynamic.OpEquals, Value: true}, true
		}
		if _, ok := filterFalse[l]; ok {
			return dynamic.Filter{Column: column, Operator: dynamic.OpEquals, Value: false}, true
		}
		return dynamic.Filter{}, false
	case schema.FieldTypeString, schema.FieldTypeUUID:
		return dynamic.Filter{Column: column, Operator: dynamic.OpIContains, Value: value}, true
	default:
		// timestamp and json columns have no text search
		return dynamic.Filter{}, false
	}
}
