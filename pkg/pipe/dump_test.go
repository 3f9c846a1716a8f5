package pipe

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stleox/tracuni/pkg/config"

	r "github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"bytes", []byte("raw"), "raw"},
		{"error", errors.New("boom"), "boom"},
		{"map", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"slice", []any{1, "two"}, `[1,"two"]`},
		{"func leaf", map[string]any{"f": func() {}, "n": 1}, ""},
		{"nan leaf", []any{math.NaN()}, `["NaN"]`},
		{"chan", make(chan int), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Dump(tt.in).(string)
			r.True(t, ok)
			if tt.want != "" {
				r.Equal(t, tt.want, got)
			}
		})
	}

	// un-serializable leaves fall back to fmt and keep the rest
	got := Dump(map[string]any{"f": func() {}, "n": 1}).(string)
	r.Contains(t, got, `"n":1`)
	r.Contains(t, got, `"f":"0x`)
}

func TestDump_Struct(t *testing.T) {
	type inner struct {
		Name string
		Fn   func()
	}
	got := Dump(&inner{Name: "x"}).(string)
	r.Contains(t, got, `"Name":"x"`)
}

func TestCut_Boundary(t *testing.T) {
	inputs := []any{
		"",
		"short",
		strings.Repeat("x", 100),
		strings.Repeat("é", 100),
		map[string]any{"body": strings.Repeat("y", 500)},
		[]any{1, 2, 3},
	}
	for _, limit := range []int{1, 2, 3, 4, 10, 64, 1000} {
		for _, in := range inputs {
			dumped := Dump(in).(string)
			got := CutWith(limit)(Dump(in)).(string)
			r.LessOrEqual(t, len(got), limit)
			if len(dumped) <= limit {
				r.Equal(t, dumped, got)
			} else if limit > len(config.CutMarker) {
				r.True(t, strings.HasSuffix(got, config.CutMarker), got)
			}
		}
	}
	r.Equal(t, "", CutWith(0)("anything"))
}

func TestCut_Default(t *testing.T) {
	long := strings.Repeat("z", config.MaxDumpLength*2)
	r.Len(t, Cut(long), config.MaxDumpLength)
	r.Equal(t, "abc", Cut("abc"))
}
