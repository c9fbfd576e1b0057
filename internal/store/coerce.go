package store

import (
	"fmt"
	"strconv"
	"time"

	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// timeLayouts are the textual forms SQLite drivers hand back for time columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// coerce normalises a value scanned from the database, or decoded from a
// fixture file, into the Go type the admin expects for t.
func coerce(t field.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch {
	case t == field.TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case string:
			return strconv.ParseBool(x)
		}
	case t == field.TypeTime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			for _, layout := range timeLayouts {
				if ts, err := time.Parse(layout, x); err == nil {
					return ts, nil
				}
			}
			return nil, fmt.Errorf("store: cannot parse time %q", x)
		}
	case t == field.TypeUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case string:
			return uuid.Parse(x)
		}
	case t.Integer():
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case float64:
			return int64(x), nil
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case t.Float():
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}
	default:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("store: cannot convert %T to %s", v, t)
}
