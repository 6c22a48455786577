package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayouts are the textual time formats produced by the supported
// drivers (SQLite stores times as text).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Serialize converts a Go value to the value bound as a statement argument
// for a column of type t. Nil stays nil.
func (t Type) Serialize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeString, TypeEnum:
		switch v := v.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case TypeInt, TypeInt64:
		n, err := toInt64(v)
		if err == nil {
			return n, nil
		}
	case TypeFloat64:
		f, err := toFloat64(v)
		if err == nil {
			return f, nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeTime:
		if tm, ok := v.(time.Time); ok {
			return tm, nil
		}
	case TypeUUID:
		switch v := v.(type) {
		case uuid.UUID:
			return v.String(), nil
		case string:
			u, err := uuid.Parse(v)
			if err != nil {
				return nil, err
			}
			return u.String(), nil
		}
	case TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("field: cannot serialize %T as %s", v, t)
}

// Parse converts a raw driver value read from a column of type t to its Go
// value. Nil stays nil. Any integer kind is accepted, as row caches may
// decode integers into their smallest representation.
func (t Type) Parse(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch t {
	case TypeString, TypeEnum:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case TypeInt:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case TypeInt64:
		return toInt64(raw)
	case TypeFloat64:
		return toFloat64(raw)
	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		case []byte:
			return strconv.ParseBool(string(v))
		}
		if n, err := toInt64(raw); err == nil {
			return n != 0, nil
		}
	case TypeTime:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			return parseTime(v)
		case []byte:
			return parseTime(string(v))
		}
	case TypeUUID:
		switch v := raw.(type) {
		case uuid.UUID:
			return v, nil
		case [16]byte:
			return uuid.UUID(v), nil
		case string:
			return uuid.Parse(v)
		case []byte:
			if len(v) == 16 {
				return uuid.FromBytes(v)
			}
			return uuid.ParseBytes(v)
		}
	case TypeBytes:
		switch v := raw.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case TypeJSON:
		var data []byte
		switch v := raw.(type) {
		case []byte:
			data = v
		case string:
			data = []byte(v)
		default:
			return raw, nil
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, fmt.Errorf("field: cannot parse %T as %s", raw, t)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("field: unrecognized time format %q", s)
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("field: %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	}
	return 0, fmt.Errorf("field: cannot convert %T to int64", v)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("field: %v is not an integer", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("field: cannot convert %T to float64", v)
	}
	return float64(n), nil
}
