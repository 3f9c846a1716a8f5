package httpx

import (
	"net/http"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/pipe"
	"github.com/stleox/tracuni/pkg/tracer"
	tr "go.opentelemetry.io/otel/trace"
)

// Transport traces outbound requests and sends the headers left by the
// rules in REUSE "headers" along with them.
type Transport struct {
	Base   http.RoundTripper
	Engine *engine.Engine
	Tracer tr.Tracer
}

func NewTransport(base http.RoundTripper, eng *engine.Engine, t tr.Tracer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Engine: eng, Tracer: t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := tracer.Start(req.Context(), t.Tracer, config.NameUnknown, tr.WithSpanKind(tr.SpanKindClient))
	defer span.End()

	p := t.Engine.NewPoint(VariantOut, span, map[string]any{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": req.Header,
		"peer":    req.URL.Host,
	}, engine.WithRef(req.URL.Path), engine.WithAdapter(t.Base))
	p.Init()
	p.Pre()

	// RoundTripper must not modify the caller's request
	out := req.Clone(ctx)
	if headers, ok := p.Context().Reuse["headers"].(map[string]string); ok {
		for k, v := range pipe.TracingHeaders(headers) {
			out.Header.Set(k, v)
		}
	}

	resp, err := t.Base.RoundTrip(out)
	p.Post(resp, err)
	p.Finish()
	return resp, err
}
