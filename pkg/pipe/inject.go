package pipe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	tr "go.opentelemetry.io/otel/trace"
)

const (
	HeaderB3TraceID = "X-B3-Traceid"
	HeaderB3SpanID  = "X-B3-Spanid"
	HeaderB3Sampled = "X-B3-Sampled"
)

var traceContext = propagation.TraceContext{}

// TracingHeaders keeps only the headers InjectHeaders writes: traceparent,
// tracestate and X-B3-*. Calling wrappers set these on the outgoing call and
// leave its other headers alone.
func TracingHeaders(headers map[string]string) map[string]string {
	ret := make(map[string]string)
	for k, v := range headers {
		lower := strings.ToLower(k)
		if lower == "traceparent" || lower == "tracestate" || strings.HasPrefix(lower, "x-b3-") {
			ret[k] = v
		}
	}
	return ret
}

// InjectHeaders takes (headers, ids) and returns a copy of headers carrying
// the W3C traceparent and B3 headers for ids. ids is a span snapshot or a
// map holding "trace_id" and "span_id". Headers unrelated to tracing are
// kept as is; invalid ids leave the copy untouched.
func InjectHeaders(in any) (ret any) {
	defer degrade("inject_headers", &ret, map[string]string{})
	values := tuple(in)
	var headers map[string]string
	var ids any
	if len(values) > 0 {
		headers = flattenHeaders(values[0])
	} else {
		headers = map[string]string{}
	}
	if len(values) > 1 {
		ids = values[1]
	}

	traceID, spanID := idsOf(ids)
	sc := B3SpanContext(traceID, spanID)
	if !sc.IsValid() {
		return headers
	}

	ctx := tr.ContextWithSpanContext(context.Background(), sc)
	traceContext.Inject(ctx, propagation.MapCarrier(headers))
	headers[HeaderB3TraceID] = sc.TraceID().String()
	headers[HeaderB3SpanID] = sc.SpanID().String()
	headers[HeaderB3Sampled] = "1"
	return headers
}

// B3SpanContext builds the remote span context of B3 ids, 64 bits trace ids
// included. The result is invalid when either id can't be converted.
func B3SpanContext(traceID, spanID string) tr.SpanContext {
	return tr.NewSpanContext(tr.SpanContextConfig{
		TraceID:    convertTraceID(traceID),
		SpanID:     convertSpanID(spanID),
		TraceFlags: tr.FlagsSampled,
		Remote:     true,
	})
}

func idsOf(v any) (string, string) {
	switch ids := v.(type) {
	case map[string]any:
		traceID, _ := ids["trace_id"].(string)
		spanID, _ := ids["span_id"].(string)
		return traceID, spanID
	case map[string]string:
		return ids["trace_id"], ids["span_id"]
	}
	return "", ""
}

// convert to 128 bits
// demo input: "000000000000000a", a 64 bits B3 trace id.
// demo output: "0000000000004000800000000000000a", `zero` if fail to convert.
func convertTraceID(uuid string) tr.TraceID {
	if len(uuid) == 16 {
		validMiddle := "0000400080000000"
		uuid = uuid[:8] + validMiddle + uuid[8:]
	}
	if len(uuid) == 36 {
		uuid = uuid[:8] + uuid[9:13] + uuid[14:18] + uuid[19:23] + uuid[24:]
	}
	traceID, err := tr.TraceIDFromHex(uuid)
	if err != nil {
		return tr.TraceID{}
	}
	return traceID
}

// convert from UUID32 to UUID16
// demo input: "00000000-0000-0000-0000-00000000000a"
// demo output: "000000000000000a", zero if error.
func convertSpanID(uuid string) tr.SpanID {
	if len(uuid) == 36 {
		uuid = uuid[:8] + uuid[28:]
	}
	spanID, err := tr.SpanIDFromHex(uuid)
	if err != nil {
		return tr.SpanID{}
	}
	return spanID
}
