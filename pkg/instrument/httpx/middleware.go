package httpx

import (
	"context"
	"net/http"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/pipe"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
	"go.opentelemetry.io/otel/propagation"
	tr "go.opentelemetry.io/otel/trace"
)

var (
	VariantIn  = schema.NewVariant(schema.SideIn, schema.APIHTTP)
	VariantOut = schema.NewVariant(schema.SideOut, schema.APIHTTP)

	propagator = propagation.TraceContext{}
)

// Middleware traces inbound requests. The span continues the caller's
// trace when the request carries a traceparent header.
func Middleware(eng *engine.Engine, t tr.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := remoteContext(req)
			ctx, span := tracer.Start(ctx, t, config.NameUnknown, tr.WithSpanKind(tr.SpanKindServer))
			defer span.End()

			p := eng.NewPoint(VariantIn, span, map[string]any{
				"method":  req.Method,
				"url":     req.URL.String(),
				"headers": req.Header,
				"peer":    req.RemoteAddr,
			}, engine.WithRef(req.URL.Path), engine.WithAdapter(next))
			p.Init()
			p.Pre()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, req.WithContext(ctx))

			p.Post(sw.status, nil)
			p.Finish()
		})
	}
}

// remoteContext continues the caller's trace: W3C traceparent first, then
// B3 headers.
func remoteContext(req *http.Request) context.Context {
	ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))
	if tr.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	sc := pipe.B3SpanContext(req.Header.Get(pipe.HeaderB3TraceID), req.Header.Get(pipe.HeaderB3SpanID))
	if !sc.IsValid() {
		return ctx
	}
	return tr.ContextWithRemoteSpanContext(ctx, sc)
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
