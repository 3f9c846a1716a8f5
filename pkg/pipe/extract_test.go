package pipe

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stleox/tracuni/pkg/schema"

	r "github.com/stretchr/testify/require"
)

func mockStack() schema.CallStack {
	return schema.CallStack{
		{Function: "runtime.Callers", File: "/go/src/runtime/extern.go", Line: 331},
		{Function: "github.com/stleox/tracuni/pkg/engine.NewPointContext", File: "/src/pkg/engine/context.go", Line: 60},
		{Function: "github.com/stleox/tracuni/pkg/instrument/amqpx.(*Publisher).Publish", File: "/src/pkg/instrument/amqpx/publisher.go", Line: 40},
		{Function: "example.com/shop/orders.(*Service).Create", File: "/src/orders/service.go", Line: 88},
		{Function: "main.main", File: "/src/main.go", Line: 12},
	}
}

func TestExtTracer(t *testing.T) {
	stack := mockStack()
	r.Equal(t, "orders.(*Service).Create", ExtTracerPath(stack))
	r.Equal(t, "example.com/shop/orders.(*Service).Create /src/orders/service.go:88", ExtTracerFullPath([]any{stack}))
	r.Equal(t, "amqpx.(*Publisher).Publish", ExtTracerOutPoint(stack))

	internal := stack[:3]
	r.Equal(t, "", ExtTracerPath(internal))
	r.Equal(t, "", ExtTracerFullPath(internal))
	r.Equal(t, "", ExtTracerOutPoint(internal))
	r.Equal(t, "", ExtTracerOutPoint(stack[3:]))
	r.Equal(t, "", ExtTracerPath("not a stack"))
}

type mockResult struct{}

func (mockResult) LastInsertId() (int64, error) { return 7, nil }
func (mockResult) RowsAffected() (int64, error) { return 1, nil }

func TestExtSQL(t *testing.T) {
	args := map[string]any{
		"query": "SELECT id FROM `users` WHERE name = ?",
		"args":  []any{"bob"},
	}
	r.Equal(t, []any{"bob"}, ExtSQLArgs(args))
	r.Equal(t, []any{"bob"}, ExtSQLArgs([]any{args}))
	r.Equal(t, []any{1, 2}, ExtSQLArgs([]int{1, 2}))
	r.Equal(t, []any{}, ExtSQLArgs(nil))
	r.Equal(t, "select", ExtSQLVerb(args))
	r.Equal(t, "users", ExtSQLTable(args))
	r.Equal(t, "orders", ExtSQLTable("INSERT INTO orders (id) VALUES (?)"))
	r.Equal(t, "update", ExtSQLVerb("  UPDATE accounts SET x = 1"))
	r.Equal(t, "", ExtSQLTable("BEGIN"))
	r.Equal(t, "", ExtSQLVerb(""))

	r.Equal(t, map[string]any{"rows_affected": int64(1), "last_insert_id": int64(7)}, ExtSQLResponse(mockResult{}))
	r.Equal(t, map[string]any{"rows": 3}, ExtSQLResponse([]any{[]string{"a", "b", "c"}}))
	r.Equal(t, map[string]any{"error": "deadlock"}, ExtSQLResponse(errors.New("deadlock")))
	r.Equal(t, map[string]any{}, ExtSQLResponse(nil))
	r.Equal(t, map[string]any{"rows_affected": int64(2)}, ExtSQLResponse(2))
}

type mockTable map[string]any

func TestExtOutHeaders(t *testing.T) {
	h := http.Header{}
	h.Add("Accept", "json")
	h.Add("Accept", "xml")
	r.Equal(t, map[string]string{"Accept": "json, xml"}, ExtOutHeaders(map[string]any{"headers": h}))
	r.Equal(t, map[string]string{"x-retry": "3"}, ExtOutHeaders(mockTable{"x-retry": 3}))
	r.Equal(t, map[string]string{}, ExtOutHeaders(42))
	r.Equal(t, map[string]string{}, ExtOutHeaders(map[int]string{1: "a"}))
}

func TestExtURLPath(t *testing.T) {
	u, _ := url.Parse("http://svc/orders/1?x=1")
	r.Equal(t, "/orders/1", ExtURLPath(u))
	r.Equal(t, "/a", ExtURLPath(map[string]any{"url": "http://h/a"}))
	r.Equal(t, "", ExtURLPath(3))
	var nilURL *url.URL
	r.Equal(t, "", ExtURLPath(nilURL))
}

type mockClient struct{ v schema.Variant }

func (c mockClient) PointVariant() schema.Variant { return c.v }

func TestExtAPIKind(t *testing.T) {
	r.Equal(t, "db", ExtAPIKind(schema.NewVariant(schema.SideOut, schema.APIDB)))
	r.Equal(t, "amqp", ExtAPIKind([]any{mockClient{schema.NewVariant(schema.SideOut, schema.APIAMQP)}}))
	r.Equal(t, "http", ExtAPIKind(map[string]any{"api_kind": "HTTP"}))
	r.Equal(t, "", ExtAPIKind(schema.APIAll))
	r.Equal(t, "", ExtAPIKind("http"))

	r.Equal(t, "server", ExtSpanKind(schema.NewVariant(schema.SideIn, schema.APIHTTP)))
	r.Equal(t, "client", ExtSpanKind(mockClient{schema.NewVariant(schema.SideOut, schema.APIDB)}))
	r.Equal(t, "", ExtSpanKind(nil))
}

func TestExtStatusCode(t *testing.T) {
	r.Equal(t, 201, ExtStatusCode([]any{201}))
	r.Equal(t, 404, ExtStatusCode(&http.Response{StatusCode: 404}))
	r.Equal(t, 500, ExtStatusCode(map[string]any{"status_code": 500}))
	r.Equal(t, 0, ExtStatusCode(errors.New("refused")))
	r.Equal(t, 0, ExtStatusCode(nil))
}
