package pipe

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

const maxDumpDepth = 32

// Dump renders any value as a string: strings pass through, everything else
// is JSON encoded. Leaves JSON can't encode are rendered with fmt.
func Dump(in any) (ret any) {
	defer degrade("dump", &ret, "")
	switch v := in.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	}
	if b, err := json.Marshal(in); err == nil {
		return string(b)
	}
	if b, err := json.Marshal(sanitize(reflect.ValueOf(in), 0)); err == nil {
		return string(b)
	}
	return fmt.Sprint(in)
}

// sanitize rebuilds v out of JSON friendly values.
func sanitize(v reflect.Value, depth int) any {
	if !v.IsValid() {
		return nil
	}
	if depth > maxDumpDepth {
		return fmt.Sprint(v.Interface())
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return sanitize(v.Elem(), depth+1)
	case reflect.Map:
		ret := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			ret[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value(), depth+1)
		}
		return ret
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		ret := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			ret[i] = sanitize(v.Index(i), depth+1)
		}
		return ret
	case reflect.Struct:
		if !v.CanInterface() {
			return fmt.Sprint(v)
		}
		if b, err := json.Marshal(v.Interface()); err == nil {
			return json.RawMessage(b)
		}
		ret := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			ret[t.Field(i).Name] = sanitize(v.Field(i), depth+1)
		}
		return ret
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(f)
		}
		return f
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v.Interface())
	}
	if v.CanInterface() {
		return v.Interface()
	}
	return fmt.Sprint(v)
}

// Cut bounds a dumped payload to config.MaxDumpLength bytes.
func Cut(in any) any {
	return CutWith(config.MaxDumpLength)(in)
}

// CutWith returns a Func bounding its dumped input to limit bytes. Longer
// payloads end with config.CutMarker; the result never exceeds limit.
func CutWith(limit int) schema.Func {
	return func(in any) (ret any) {
		defer degrade("cut", &ret, "")
		s, _ := Dump(in).(string)
		return cut(s, limit)
	}
}

func cut(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	marker := config.CutMarker
	if limit <= len(marker) {
		marker = ""
	}
	end := limit - len(marker)
	// 不要截断多字节字符
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + marker
}
