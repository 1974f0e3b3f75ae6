package tablestore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is one record of a remote table. Field values are untyped at the source
// and coerced by the consumer.
type Row struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Has reports whether the field is present with a non-nil value.
func (r Row) Has(field string) bool {
	v, ok := r.Fields[field]
	return ok && v != nil
}

// String returns the field as a string. Numbers and booleans are formatted;
// a single-element list yields its element.
func (r Row) String(field string) (string, bool) {
	return coerceString(r.Fields[field])
}

// Strings returns a list-valued field. A scalar string is treated as a list of one.
func (r Row) Strings(field string) []string {
	switch v := r.Fields[field].(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := coerceString(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := coerceString(v); ok && s != "" {
			return []string{s}
		}
		return nil
	}
}

// Int returns an integral field value.
func (r Row) Int(field string) (int, bool) {
	switch v := r.Fields[field].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool returns a checkbox-like field; absent fields are false.
func (r Row) Bool(field string) bool {
	switch v := r.Fields[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	case []any:
		if len(v) == 1 {
			return coerceString(v[0])
		}
		return "", false
	case []string:
		if len(v) == 1 {
			return v[0], true
		}
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
