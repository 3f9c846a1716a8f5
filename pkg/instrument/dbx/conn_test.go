package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/rules"
	attr "go.opentelemetry.io/otel/attribute"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	r "github.com/stretchr/testify/require"
)

type mockResult int64

func (m mockResult) LastInsertId() (int64, error) { return int64(m), nil }
func (m mockResult) RowsAffected() (int64, error) { return 1, nil }

type user struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type mockSession struct {
	queries []string
	err     error
}

func (s *mockSession) ExecCtx(_ context.Context, query string, _ ...any) (sql.Result, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return mockResult(42), nil
}

func (s *mockSession) QueryRowCtx(_ context.Context, v any, query string, _ ...any) error {
	s.queries = append(s.queries, query)
	*(v.(*user)) = user{ID: 7, Name: "bob"}
	return s.err
}

func (s *mockSession) QueryRowsCtx(_ context.Context, v any, query string, _ ...any) error {
	s.queries = append(s.queries, query)
	*(v.(*[]user)) = []user{{ID: 1}, {ID: 2}, {ID: 3}}
	return s.err
}

func mockConn(s Session) (*Conn, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktr.NewTracerProvider(sdktr.WithSpanProcessor(sr))
	return NewConn(s, engine.New(rules.Default()), tp.Tracer("test")), sr
}

func attrsOf(span sdktr.ReadOnlySpan) map[string]attr.Value {
	ret := make(map[string]attr.Value)
	for _, kv := range span.Attributes() {
		ret[string(kv.Key)] = kv.Value
	}
	return ret
}

func logsOf(span sdktr.ReadOnlySpan) map[string]string {
	ret := make(map[string]string)
	for _, ev := range span.Events() {
		for _, kv := range ev.Attributes {
			ret[string(kv.Key)] = kv.Value.Emit()
		}
	}
	return ret
}

func TestConn_Exec(t *testing.T) {
	session := &mockSession{}
	conn, sr := mockConn(session)

	res, err := conn.ExecCtx(context.Background(), "INSERT INTO users (name, password) VALUES (?, ?)", "bob", "hunter2")
	r.NoError(t, err)
	id, _ := res.LastInsertId()
	r.Equal(t, int64(42), id)
	r.Len(t, session.queries, 1)

	spans := sr.Ended()
	r.Len(t, spans, 1)
	r.Equal(t, "db::insert (users)", spans[0].Name())
	attrs := attrsOf(spans[0])
	r.Equal(t, int64(2), attrs["db.args.count"].AsInt64())
	r.Equal(t, "INSERT INTO users (name, password) VALUES (?, ?)", attrs["db.statement"].AsString())
	r.Equal(t, `{"last_insert_id":42,"rows_affected":1}`, logsOf(spans[0])["db.response"])
}

func TestConn_Query(t *testing.T) {
	conn, sr := mockConn(&mockSession{})

	var one user
	r.NoError(t, conn.QueryRowCtx(context.Background(), &one, "SELECT id, name FROM users WHERE id = ?", 7))
	r.Equal(t, "bob", one.Name)

	var many []user
	r.NoError(t, conn.QueryRowsCtx(context.Background(), &many, "SELECT id FROM users"))
	r.Len(t, many, 3)

	spans := sr.Ended()
	r.Len(t, spans, 2)
	r.Equal(t, "db::select (users)", spans[0].Name())
	r.Equal(t, `{"rows":3}`, logsOf(spans[1])["db.response"])
}

func TestConn_Error(t *testing.T) {
	boom := errors.New("deadlock found")
	conn, sr := mockConn(&mockSession{err: boom})

	_, err := conn.ExecCtx(context.Background(), "DELETE FROM users")
	r.ErrorIs(t, err, boom)

	spans := sr.Ended()
	r.Len(t, spans, 1)
	r.True(t, attrsOf(spans[0])["error"].AsBool())
	r.Equal(t, "deadlock found", logsOf(spans[0])["error.message"])
}
