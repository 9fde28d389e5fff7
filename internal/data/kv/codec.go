package kv

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Encode turns a tagged struct into an attribute map. Numbers come back as
// float64, the same shape both gateways decode into.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("kv encode: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("kv encode: %w", err)
	}
	return out, nil
}

// Decode fills out (a pointer to a tagged struct) from attrs.
func Decode(attrs map[string]any, out any) error {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("kv decode: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kv decode: %w", err)
	}
	return nil
}

// conditionHolds evaluates cond against stored attrs (nil attrs means the
// item does not exist).
func conditionHolds(attrs map[string]any, cond *Condition) bool {
	if cond == nil {
		return true
	}
	v, present := attrs[cond.Attr]
	if present && v == nil {
		present = false
	}
	if cond.Equals == nil {
		return !present
	}
	if !present {
		return cond.OrMissing
	}
	return valuesEqual(v, cond.Equals)
}

func matchesFilter(attrs map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := attrs[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func mergeAttrs(base map[string]any, set map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(set))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range set {
		out[k] = v
	}
	return out
}
