package pipe

import (
	"errors"
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestHead(t *testing.T) {
	r.Equal(t, "a", Head([]any{"a", "b"}))
	r.Nil(t, Head([]any{}))
	r.Nil(t, Head(nil))
	r.Equal(t, 3, Head(3))
	r.Equal(t, "b", Nth(1)([]any{"a", "b"}))
	r.Nil(t, Nth(5)([]any{"a"}))
}

func TestSepString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"amqp", []any{"amqp", "orders", "created"}, "amqp::orders (created)"},
		{"db", []any{"db", "select", "users"}, "db::select (users)"},
		{"no detail", []any{"http", "GET", ""}, "http::GET"},
		{"two parts", []string{"http", "GET"}, "http::GET"},
		{"non strings", []any{"db", 42, nil}, "db::42"},
		{"empty", []any{}, ""},
		{"scalar", "alone", "alone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Equal(t, tt.want, SepString(tt.in))
		})
	}
	r.Equal(t, "a-b-c", SepStringWith("-", "-")([]any{"a", "b", "c"}))
}

func TestStrings(t *testing.T) {
	r.Equal(t, "get", Lower([]byte("GET")))
	r.Equal(t, "POST", Upper("post"))
	r.Equal(t, "", Str(nil))
	r.Equal(t, "boom", ErrorMessage([]any{errors.New("boom")}))
	r.Equal(t, "", ErrorMessage([]any{nil}))
	r.Equal(t, true, IsError(errors.New("boom")))
	r.Equal(t, false, IsError([]any{"fine"}))
	r.Equal(t, 7, Const(7)(nil))
}

func TestCatalogue(t *testing.T) {
	for _, name := range Names() {
		fn, ok := Lookup(name)
		r.True(t, ok, name)
		r.NotPanics(t, func() { fn(nil) }, name)
		r.NotPanics(t, func() { fn([]any{struct{}{}, 1}) }, name)
	}
	_, ok := Lookup("nope")
	r.False(t, ok)

	v, err := AsExtract(Head)([]any{"x"})
	r.NoError(t, err)
	r.Equal(t, "x", v)
}

func TestShape(t *testing.T) {
	r.Equal(t, []any{"db", "select", "users"}, Prefix("db")([]any{"select", "users"}))
	r.Equal(t, []any{"db", "q"}, Prefix("db")("q"))
	r.Equal(t, 2, Len([]any{1, 2}))
	r.Equal(t, 3, Len("abc"))
	r.Equal(t, 0, Len(42))

	r.Nil(t, NilIfEmpty(""))
	r.Nil(t, NilIfEmpty(false))
	r.Nil(t, NilIfEmpty(map[string]any{}))
	r.Nil(t, NilIfEmpty(0))
	r.Equal(t, true, NilIfEmpty(true))
	r.Equal(t, "x", NilIfEmpty("x"))
}

func TestEach(t *testing.T) {
	r.Equal(t, []any{"GET", "/orders"}, Each(Upper)([]any{"get", "/orders"}))
	r.Equal(t, []any{"a", "B"}, Each(nil, Upper)([]any{"a", "b"}))
	r.Equal(t, []any{"x"}, Each(func(any) any { panic("no") })([]any{"x"}))
}
