package engine

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// lookupField resolves a dotted field path on maps, slices and structs.
// Missing keys resolve to (nil, false).
func lookupField(container any, path string) (any, bool) {
	cur := container
	for _, name := range strings.Split(path, ".") {
		next, ok := lookupOne(cur, name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lookupOne(container any, name string) (any, bool) {
	switch c := container.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[name]
		return v, ok
	case map[string]string:
		v, ok := c[name]
		return v, ok
	}

	v := reflect.ValueOf(container)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !item.IsValid() {
			// http.Header 风格的键
			for _, key := range v.MapKeys() {
				if strings.EqualFold(key.String(), name) {
					item = v.MapIndex(key)
					break
				}
			}
		}
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= v.Len() {
			return nil, false
		}
		return v.Index(i).Interface(), true
	case reflect.Struct:
		f := v.FieldByNameFunc(func(field string) bool {
			return strings.EqualFold(field, name)
		})
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
