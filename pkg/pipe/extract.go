package pipe

import (
	"database/sql"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

// Call stack

func stackOf(in any) schema.CallStack {
	switch v := in.(type) {
	case schema.CallStack:
		return v
	case []schema.Frame:
		return v
	case []any:
		if len(v) > 0 {
			return stackOf(v[0])
		}
	}
	return nil
}

func internalFrame(f schema.Frame) bool {
	for _, prefix := range config.InternalFramePrefixes {
		if strings.HasPrefix(f.Function, prefix) {
			return true
		}
	}
	return false
}

// businessFrame returns the index of the innermost frame outside the
// instrumentation, -1 when every frame is internal.
func businessFrame(stack schema.CallStack) int {
	for i, f := range stack {
		if !internalFrame(f) {
			return i
		}
	}
	return -1
}

func shortFunc(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ExtTracerPath names the business function which made the call, e.g.
// "orders.(*Service).Create".
func ExtTracerPath(in any) (ret any) {
	defer degrade("ext_tracer_path", &ret, "")
	stack := stackOf(in)
	if i := businessFrame(stack); i >= 0 {
		return shortFunc(stack[i].Function)
	}
	return ""
}

// ExtTracerFullPath is ExtTracerPath with the full package path and the
// source position.
func ExtTracerFullPath(in any) (ret any) {
	defer degrade("ext_tracer_full_path", &ret, "")
	stack := stackOf(in)
	if i := businessFrame(stack); i >= 0 {
		return stack[i].String()
	}
	return ""
}

// ExtTracerOutPoint names the instrumented entry point the business code
// called into, i.e. the internal frame right below the business frame.
func ExtTracerOutPoint(in any) (ret any) {
	defer degrade("ext_tracer_out_point", &ret, "")
	stack := stackOf(in)
	if i := businessFrame(stack); i > 0 {
		return shortFunc(stack[i-1].Function)
	}
	return ""
}

// SQL

var (
	sqlTablePattern = regexp.MustCompile("(?i)\\b(?:from|into|update|join|table)\\s+([`\"\\w.]+)")
)

// argsEntry unwraps a POINT_ARGS map down to one entry, or passes the
// value through when it isn't such a map.
func argsEntry(in any, key string) any {
	v := Head(in)
	if m, ok := v.(map[string]any); ok {
		return m[key]
	}
	return v
}

// ExtSQLArgs returns the positional or named arguments of a SQL call.
func ExtSQLArgs(in any) (ret any) {
	defer degrade("ext_sql_args", &ret, []any{})
	switch v := argsEntry(in, "args").(type) {
	case []any:
		return append([]any{}, v...)
	case map[string]any:
		cp := make(map[string]any, len(v))
		for k, item := range v {
			cp[k] = item
		}
		return cp
	case nil:
		return []any{}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			ret := make([]any, rv.Len())
			for i := range ret {
				ret[i] = rv.Index(i).Interface()
			}
			return ret
		}
		return []any{v}
	}
}

// ExtSQLResponse summarizes the result of a SQL call.
func ExtSQLResponse(in any) (ret any) {
	defer degrade("ext_sql_response", &ret, map[string]any{})
	switch v := Head(in).(type) {
	case nil:
		return map[string]any{}
	case error:
		return map[string]any{"error": v.Error()}
	case sql.Result:
		summary := map[string]any{}
		if n, err := v.RowsAffected(); err == nil {
			summary["rows_affected"] = n
		}
		if id, err := v.LastInsertId(); err == nil {
			summary["last_insert_id"] = id
		}
		return summary
	case map[string]any:
		return v
	case int64:
		return map[string]any{"rows_affected": v}
	case int:
		return map[string]any{"rows_affected": int64(v)}
	default:
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return map[string]any{"rows": rv.Len()}
		}
		return map[string]any{"row": Dump(v)}
	}
}

// ExtSQLVerb returns the lowercased leading keyword of a statement.
func ExtSQLVerb(in any) (ret any) {
	defer degrade("ext_sql_verb", &ret, "")
	fields := strings.Fields(toString(argsEntry(in, "query")))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], "("))
}

// ExtSQLTable returns the first table a statement touches.
func ExtSQLTable(in any) (ret any) {
	defer degrade("ext_sql_table", &ret, "")
	m := sqlTablePattern.FindStringSubmatch(toString(argsEntry(in, "query")))
	if len(m) < 2 {
		return ""
	}
	return strings.Trim(m[1], "`\"")
}

// HTTP / AMQP

// ExtOutHeaders flattens the headers of a call into map[string]string.
// It accepts http.Header, amqp tables and plain maps.
func ExtOutHeaders(in any) (ret any) {
	defer degrade("ext_out_headers", &ret, map[string]string{})
	return flattenHeaders(argsEntry(in, "headers"))
}

func flattenHeaders(v any) map[string]string {
	ret := make(map[string]string)
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return ret
	}
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		switch val := iter.Value().Interface().(type) {
		case []string:
			ret[key] = strings.Join(val, ", ")
		default:
			ret[key] = toString(val)
		}
	}
	return ret
}

// ExtURLPath returns the path of a URL value.
func ExtURLPath(in any) (ret any) {
	defer degrade("ext_url_path", &ret, "")
	switch v := argsEntry(in, "url").(type) {
	case *url.URL:
		if v == nil {
			return ""
		}
		return v.Path
	case string:
		u, err := url.Parse(v)
		if err != nil {
			return ""
		}
		return u.Path
	}
	return ""
}

// ExtStatusCode returns the status code of an HTTP call outcome: an int,
// an *http.Response or a map holding "status_code". 0 when unknown.
func ExtStatusCode(in any) (ret any) {
	defer degrade("ext_status_code", &ret, 0)
	switch v := Head(in).(type) {
	case int:
		return v
	case *http.Response:
		if v == nil {
			return 0
		}
		return v.StatusCode
	case map[string]any:
		if code, ok := v["status_code"].(int); ok {
			return code
		}
	}
	return 0
}

// variantCarrier is implemented by point client sections.
type variantCarrier interface {
	PointVariant() schema.Variant
}

// ExtAPIKind returns "http", "amqp" or "db" for the point the value comes from.
func ExtAPIKind(in any) (ret any) {
	defer degrade("ext_api_kind", &ret, "")
	var kind schema.APIKind
	switch v := Head(in).(type) {
	case schema.Variant:
		kind = v.API
	case schema.APIKind:
		kind = v
	case variantCarrier:
		kind = v.PointVariant().API
	case map[string]any:
		s, _ := v["api_kind"].(string)
		if k, err := schema.ParseAPIKind(s); err == nil {
			kind = k
		}
	}
	if !kind.Valid() || kind == schema.APIAll {
		return ""
	}
	return strings.ToLower(kind.String())
}

// ExtSpanKind maps the side of a point to the OpenTracing span.kind value.
func ExtSpanKind(in any) (ret any) {
	defer degrade("ext_span_kind", &ret, "")
	var side schema.SpanSide
	switch v := Head(in).(type) {
	case schema.Variant:
		side = v.Side
	case schema.SpanSide:
		side = v
	case variantCarrier:
		side = v.PointVariant().Side
	}
	switch side {
	case schema.SideIn:
		return "server"
	case schema.SideOut:
		return "client"
	}
	return ""
}
