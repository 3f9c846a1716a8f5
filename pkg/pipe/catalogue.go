package pipe

import (
	"sort"

	"github.com/stleox/tracuni/pkg/schema"
)

// Catalogue maps the names usable in rule files to pipe functions.
var Catalogue = map[string]schema.Func{
	"head":                 Head,
	"str":                  Str,
	"lower":                Lower,
	"upper":                Upper,
	"sep_string":           SepString,
	"dump":                 Dump,
	"cut":                  Cut,
	"mask":                 MaskSecretCatchEssentials,
	"error_message":        ErrorMessage,
	"is_error":             IsError,
	"len":                  Len,
	"nil_if_empty":         NilIfEmpty,
	"ext_tracer_path":      ExtTracerPath,
	"ext_tracer_full_path": ExtTracerFullPath,
	"ext_tracer_out_point": ExtTracerOutPoint,
	"ext_sql_args":         ExtSQLArgs,
	"ext_sql_response":     ExtSQLResponse,
	"ext_sql_verb":         ExtSQLVerb,
	"ext_sql_table":        ExtSQLTable,
	"ext_out_headers":      ExtOutHeaders,
	"ext_url_path":         ExtURLPath,
	"ext_status_code":      ExtStatusCode,
	"ext_api_kind":         ExtAPIKind,
	"ext_span_kind":        ExtSpanKind,
	"inject_headers":       InjectHeaders,
}

func Lookup(name string) (schema.Func, bool) {
	fn, ok := Catalogue[name]
	return fn, ok
}

// Names lists the catalogue in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(Catalogue))
	for name := range Catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AsExtract lets a pipe function serve as an origin getter.
func AsExtract(fn schema.Func) schema.Extract {
	return func(section any) (any, error) {
		return fn(section), nil
	}
}
