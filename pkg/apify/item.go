package apify

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Item is one dataset record returned by an actor. Actor schemas drift and
// fields go missing, so callers read through the accessors below, which
// always say whether a value was found.
type Item map[string]any

// Lookup walks a nested path of object keys.
func (it Item) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(it)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// field resolves a key that may be dotted ("user.username"). The nested path
// is tried first, then the literal flat key, since some actors flatten
// nested objects into dotted column names.
func (it Item) field(key string) (any, bool) {
	if strings.Contains(key, ".") {
		if v, ok := it.Lookup(strings.Split(key, ".")...); ok {
			return v, true
		}
	}
	v, ok := it[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the first of keys holding a scalar that renders to a
// non-empty string.
func (it Item) String(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := it.field(key)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// StringOr is String with a fallback for when none of keys is present.
func (it Item) StringOr(fallback string, keys ...string) string {
	if s, ok := it.String(keys...); ok {
		return s
	}
	return fallback
}

// Int returns the first of keys holding a value convertible to an integer.
// Fractions are truncated.
func (it Item) Int(keys ...string) (int64, bool) {
	for _, key := range keys {
		v, ok := it.field(key)
		if !ok {
			continue
		}
		if n, ok := toInt64(v); ok {
			return n, true
		}
	}
	return 0, false
}

// IntOr is Int with a fallback.
func (it Item) IntOr(fallback int64, keys ...string) int64 {
	if n, ok := it.Int(keys...); ok {
		return n
	}
	return fallback
}

// Objects returns the entries of an array field that are themselves
// objects. Anything else in the array is skipped.
func (it Item) Objects(key string) []Item {
	v, ok := it.field(key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(arr))
	for _, el := range arr {
		if obj, ok := asObject(el); ok {
			out = append(out, Item(obj))
		}
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case Item:
		return o, true
	default:
		return nil, false
	}
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
