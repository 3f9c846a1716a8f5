package dbx

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	tr "go.opentelemetry.io/otel/trace"
)

var Variant = schema.NewVariant(schema.SideOut, schema.APIDB)

// Session is the part of sqlx.SqlConn that gets traced.
type Session interface {
	ExecCtx(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowCtx(ctx context.Context, v any, query string, args ...any) error
	QueryRowsCtx(ctx context.Context, v any, query string, args ...any) error
}

// Conn traces every statement sent through it.
type Conn struct {
	session Session
	engine  *engine.Engine
	tracer  tr.Tracer
}

func NewConn(session Session, eng *engine.Engine, t tr.Tracer) *Conn {
	return &Conn{session: session, engine: eng, tracer: t}
}

// NewMysql opens a traced MySQL connection on dsn.
func NewMysql(dsn string, eng *engine.Engine, t tr.Tracer) (*Conn, sqlx.SqlConn) {
	if dsn == "" {
		dsn = config.DefaultDSN
	}
	db := sqlx.NewMysql(dsn)
	return NewConn(db, eng, t), db
}

func (c *Conn) ExecCtx(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := c.do(ctx, "ExecCtx", query, args, func(ctx context.Context) (any, error) {
		var err error
		res, err = c.session.ExecCtx(ctx, query, args...)
		return res, err
	})
	return res, err
}

func (c *Conn) QueryRowCtx(ctx context.Context, v any, query string, args ...any) error {
	return c.do(ctx, "QueryRowCtx", query, args, func(ctx context.Context) (any, error) {
		return v, c.session.QueryRowCtx(ctx, v, query, args...)
	})
}

func (c *Conn) QueryRowsCtx(ctx context.Context, v any, query string, args ...any) error {
	return c.do(ctx, "QueryRowsCtx", query, args, func(ctx context.Context) (any, error) {
		return v, c.session.QueryRowsCtx(ctx, v, query, args...)
	})
}

func (c *Conn) do(ctx context.Context, ref, query string, args []any, call func(ctx context.Context) (any, error)) error {
	ctx, span := tracer.Start(ctx, c.tracer, config.NameUnknown, tr.WithSpanKind(tr.SpanKindClient))
	defer span.End()

	p := c.engine.NewPoint(Variant, span, map[string]any{
		"query": query,
		"args":  args,
	}, engine.WithRef(ref), engine.WithAdapter(c.session))
	p.Init()
	p.Pre()
	result, err := call(ctx)
	p.Post(result, err)
	p.Finish()
	return err
}
