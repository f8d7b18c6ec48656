package subscription

import (
	"reflect"
)

// MergeReplaceRecursive returns a copy of base with override applied on top.
// Nested maps are merged key by key and lists are merged index by index;
// any other override value replaces the base value. Neither input is
// modified.
func MergeReplaceRecursive(base map[string]any, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for key, value := range base {
		out[key] = cloneValue(value)
	}
	for key, value := range override {
		out[key] = mergeValue(out[key], value)
	}
	return out
}

func mergeValue(base any, override any) any {
	if baseMap, ok := asMap(base); ok {
		if overrideMap, ok := asMap(override); ok {
			return MergeReplaceRecursive(baseMap, overrideMap)
		}
	}
	if baseList, ok := asList(base); ok {
		if overrideList, ok := asList(override); ok {
			return mergeList(baseList, overrideList)
		}
	}
	return cloneValue(override)
}

func mergeList(base []any, override []any) []any {
	size := len(base)
	if len(override) > size {
		size = len(override)
	}
	out := make([]any, size)
	for i := range out {
		switch {
		case i < len(override) && i < len(base):
			out[i] = mergeValue(base[i], override[i])
		case i < len(override):
			out[i] = cloneValue(override[i])
		default:
			out[i] = cloneValue(base[i])
		}
	}
	return out
}

// StripEmpty drops top-level entries holding nil, false, zero numbers, "",
// "0", or empty maps and lists. Nested values are left as they are.
func StripEmpty(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if isEmpty(value) {
			continue
		}
		out[key] = value
	}
	return out
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch typed := value.(type) {
	case string:
		return typed == "" || typed == "0"
	case bool:
		return !typed
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func cloneValue(value any) any {
	if typed, ok := asMap(value); ok {
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	}
	if typed, ok := asList(value); ok {
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	}
	return value
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = item
		}
		return out, true
	}
	return nil, false
}

func asList(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}
