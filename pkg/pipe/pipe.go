package pipe

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/schema"
)

// degrade is deferred by every pipe function; it turns a panic into def.
func degrade(name string, ret *any, def any) {
	if p := recover(); p != nil {
		logrus.WithField("pipe", name).Debugf("tracuni pipe degraded: %v", p)
		*ret = def
	}
}

// tuple normalizes a pipeline input into positional values.
func tuple(in any) []any {
	switch v := in.(type) {
	case []any:
		return v
	case []string:
		ret := make([]any, len(v))
		for i := range v {
			ret[i] = v[i]
		}
		return ret
	case nil:
		return nil
	}
	return []any{in}
}

// Head returns the first origin value.
func Head(in any) (ret any) {
	defer degrade("head", &ret, nil)
	values := tuple(in)
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// Nth returns a Func picking the i-th origin value.
func Nth(i int) schema.Func {
	return func(in any) (ret any) {
		defer degrade("nth", &ret, nil)
		values := tuple(in)
		if i < 0 || i >= len(values) {
			return nil
		}
		return values[i]
	}
}

// Const ignores its input. Used by rules without origins.
func Const(v any) schema.Func {
	return func(any) any { return v }
}

// Prefix puts v in front of the origin values, e.g. the protocol part of a
// span name.
func Prefix(v any) schema.Func {
	return func(in any) (ret any) {
		defer degrade("prefix", &ret, []any{v})
		return append([]any{v}, tuple(in)...)
	}
}

// Each applies fns[i] to the i-th origin value. nil entries and values past
// the end of fns are passed through.
func Each(fns ...schema.Func) schema.Func {
	return func(in any) (ret any) {
		values := tuple(in)
		defer degrade("each", &ret, values)
		out := make([]any, len(values))
		for i, v := range values {
			if i < len(fns) && fns[i] != nil {
				v = fns[i](v)
			}
			out[i] = v
		}
		return out
	}
}

// Len returns the length of a string, slice or map, 0 otherwise.
func Len(in any) (ret any) {
	defer degrade("len", &ret, 0)
	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	}
	return 0
}

// NilIfEmpty turns zero values into nil so the write is skipped.
func NilIfEmpty(in any) (ret any) {
	defer degrade("nil_if_empty", &ret, nil)
	if in == nil {
		return nil
	}
	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
		return in
	}
	if rv.IsZero() {
		return nil
	}
	return in
}

func Str(in any) (ret any) {
	defer degrade("str", &ret, "")
	return toString(in)
}

func Lower(in any) (ret any) {
	defer degrade("lower", &ret, "")
	return strings.ToLower(toString(in))
}

func Upper(in any) (ret any) {
	defer degrade("upper", &ret, "")
	return strings.ToUpper(toString(in))
}

// ErrorMessage returns the message of an error value, "" otherwise.
func ErrorMessage(in any) (ret any) {
	defer degrade("error_message", &ret, "")
	if err, ok := Head(in).(error); ok && err != nil {
		return err.Error()
	}
	return ""
}

// IsError reports whether the value is a non-nil error.
func IsError(in any) (ret any) {
	defer degrade("is_error", &ret, false)
	err, ok := Head(in).(error)
	return ok && err != nil
}

func toString(in any) string {
	switch v := in.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(in)
}
