package gormstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sukryu/pAdmin/pkg/store/schema"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// convertValueToType converts a caller-supplied value into the form written
// to a column of fieldType. nil stays nil.
func convertValueToType(value interface{}, fieldType schema.FieldType) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case schema.FieldTypeString:
		return toString(value)
	case schema.FieldTypeUUID:
		s, err := toString(value)
		if err != nil {
			return nil, err
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("invalid uuid %q", s)
		}
		return s, nil
	case schema.FieldTypeInteger:
		return toInteger(value)
	case schema.FieldTypeNumber:
		return toNumber(value)
	case schema.FieldTypeBoolean:
		return toBool(value)
	case schema.FieldTypeTimestamp:
		return toTimestamp(value)
	case schema.FieldTypeJSON:
		return toJSONText(value)
	default:
		return nil, fmt.Errorf("unsupported field type: %s", fieldType)
	}
}

func toString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func toInteger(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return toInteger(float64(v))
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, fmt.Errorf("cannot convert %v to integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to integer", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert type %T to integer", value)
	}
}

func toNumber(value interface{}) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		return 0, fmt.Errorf("cannot convert string '%s' to number", v)
	default:
		return 0, fmt.Errorf("cannot convert type %T to number", value)
	}
}

func toBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert type %T to boolean", value)
	}
}

func toTimestamp(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", v)
	default:
		return time.Time{}, fmt.Errorf("cannot convert type %T to timestamp", value)
	}
}

// toJSONText returns the textual JSON stored in the column.
func toJSONText(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		if !json.Valid([]byte(v)) {
			return "", fmt.Errorf("invalid JSON string")
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return "", fmt.Errorf("invalid JSON string")
		}
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cannot convert type %T to JSON: %v", value, err)
		}
		return string(b), nil
	}
}

// fromDB normalizes a driver value read back from a column of fieldType.
// Values that cannot be normalized are returned unchanged.
func fromDB(value interface{}, fieldType schema.FieldType) interface{} {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	if value == nil {
		return nil
	}
	switch fieldType {
	case schema.FieldTypeInteger:
		if i, err := toInteger(value); err == nil {
			return i
		}
	case schema.FieldTypeNumber:
		if f, err := toNumber(value); err == nil {
			return f
		}
	case schema.FieldTypeBoolean:
		if b, err := toBool(value); err == nil {
			return b
		}
	case schema.FieldTypeTimestamp:
		if t, err := toTimestamp(value); err == nil {
			return t
		}
	case schema.FieldTypeJSON:
		if s, ok := value.(string); ok {
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	case schema.FieldTypeString, schema.FieldTypeUUID:
		if s, err := toString(value); err == nil {
			return s
		}
	}
	return value
}

func normalizeRow(row map[string]interface{}, sch *schema.EntitySchema) map[string]interface{} {
	for _, field := range sch.Fields {
		if value, exists := row[field.Name]; exists {
			row[field.Name] = fromDB(value, field.Type)
		}
	}
	return row
}
