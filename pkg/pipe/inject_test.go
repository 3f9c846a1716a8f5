package pipe

import (
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestInjectHeaders(t *testing.T) {
	existing := map[string]string{"Content-Type": "application/json"}
	ids := map[string]any{"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736", "span_id": "00f067aa0ba902b7"}

	got := InjectHeaders([]any{existing, ids}).(map[string]string)
	r.Equal(t, "application/json", got["Content-Type"])
	r.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", got["traceparent"])
	r.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", got[HeaderB3TraceID])
	r.Equal(t, "00f067aa0ba902b7", got[HeaderB3SpanID])
	r.Equal(t, "1", got[HeaderB3Sampled])
	// existing headers are copied, not mutated
	r.Len(t, existing, 1)
}

func TestInjectHeaders_ShortIDs(t *testing.T) {
	ids := map[string]string{"trace_id": "000000000000000a", "span_id": "00000000-0000-0000-0000-000000000001"}
	got := InjectHeaders([]any{nil, ids}).(map[string]string)
	r.Equal(t, "0000000000004000800000000000000a", got[HeaderB3TraceID])
	r.Equal(t, "0000000000000001", got[HeaderB3SpanID])
}

func TestInjectHeaders_Invalid(t *testing.T) {
	existing := map[string]string{"Accept": "*/*"}
	got := InjectHeaders([]any{existing, map[string]any{"trace_id": "zz"}}).(map[string]string)
	r.Equal(t, existing, got)
	r.Equal(t, map[string]string{}, InjectHeaders(nil))
}

func TestConvertTraceID(t *testing.T) {
	r.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", convertTraceID("4bf92f35-77b3-4da6-a3ce-929d0e0e4736").String())
	r.False(t, convertTraceID("bad").IsValid())
	r.False(t, convertSpanID("bad").IsValid())
}

func TestTracingHeaders(t *testing.T) {
	got := TracingHeaders(map[string]string{
		"Content-Type": "application/json",
		"traceparent":  "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		"Tracestate":   "k=v",
		"X-B3-Traceid": "4bf92f3577b34da6a3ce929d0e0e4736",
		"x-b3-spanid":  "00f067aa0ba902b7",
		"X-B3":         "not a b3 field",
	})
	r.Equal(t, map[string]string{
		"traceparent":  "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		"Tracestate":   "k=v",
		"X-B3-Traceid": "4bf92f3577b34da6a3ce929d0e0e4736",
		"x-b3-spanid":  "00f067aa0ba902b7",
	}, got)
	r.Empty(t, TracingHeaders(nil))
}
