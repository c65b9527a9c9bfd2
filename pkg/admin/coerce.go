package admin

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sukryu/pAdmin/pkg/errors"
)

const maxExactFloat = 1 << 53

// CoerceID converts an externally supplied identifier into the key's native
// type. Lossy or unparseable input fails with ErrInvalidIdentifier.
func CoerceID(raw interface{}, t PKType) (interface{}, error) {
	if raw == nil {
		return nil, invalidID(raw)
	}
	if n, ok := raw.(json.Number); ok {
		raw = n.String()
	}

	switch t {
	case PKInteger:
		switch v := raw.(type) {
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, invalidID(raw)
			}
			return i, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			// beyond 2^53 a float no longer names a single integer
			if v != math.Trunc(v) || math.Abs(v) > maxExactFloat {
				return nil, invalidID(raw)
			}
			return int64(v), nil
		}
	case PKFloat:
		switch v := raw.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, invalidID(raw)
			}
			return f, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		}
	case PKText, PKOpaque:
		switch v := raw.(type) {
		case string:
			return v, nil
		case bool:
			// rejected below
		default:
			return FormatID(v), nil
		}
	}
	return nil, invalidID(raw)
}

// CoerceIDs coerces every identifier, failing on the first invalid one.
func CoerceIDs(raws []interface{}, t PKType) ([]interface{}, error) {
	ids := make([]interface{}, 0, len(raws))
	for _, raw := range raws {
		id, err := CoerceID(raw, t)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatID renders a coerced identifier back to text.
func FormatID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func invalidID(raw interface{}) error {
	return errors.ErrInvalidIdentifier.WithReason(fmt.Sprintf("Invalid ID value: %v", raw))
}
