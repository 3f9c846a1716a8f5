package pipe

import (
	"strings"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

// SepString joins the origin values with config.SpanNameSeparators, e.g.
// ("db", "select", "users") -> "db::select (users)".
func SepString(in any) any {
	return SepStringWith(config.SpanNameSeparators[:]...)(in)
}

// SepStringWith joins parts as p0 sep0 p1 sep1 p2 ... Trailing empty parts
// are dropped. When every separator has been used the last one closes the
// string, so (" (", ")") brackets the final part.
func SepStringWith(sep ...string) schema.Func {
	return func(in any) (ret any) {
		defer degrade("sep_string", &ret, "")
		values := tuple(in)
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, toString(v))
		}
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		if len(parts) == 0 {
			return ""
		}

		var b strings.Builder
		b.WriteString(parts[0])
		for i := 1; i < len(parts); i++ {
			if i-1 < len(sep) {
				b.WriteString(sep[i-1])
			}
			b.WriteString(parts[i])
		}
		if len(parts) == len(sep) {
			b.WriteString(sep[len(sep)-1])
		}
		return b.String()
	}
}
