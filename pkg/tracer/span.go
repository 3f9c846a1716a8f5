package tracer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	attr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tr "go.opentelemetry.io/otel/trace"
)

const logEventName = "log"

// OTelSpan adapts an OpenTelemetry span to Span. Name and tags are kept on
// the side since the OTel API is write-only.
type OTelSpan struct {
	span tr.Span
	name string
	tags map[string]any
}

func NewOTelSpan(span tr.Span, name string) *OTelSpan {
	return &OTelSpan{
		span: span,
		name: name,
		tags: make(map[string]any),
	}
}

// Start opens a span on t and wraps it.
func Start(ctx context.Context, t tr.Tracer, name string, opts ...tr.SpanStartOption) (context.Context, *OTelSpan) {
	ctx, span := t.Start(ctx, name, opts...)
	return ctx, NewOTelSpan(span, name)
}

func (s *OTelSpan) Name() string { return s.name }

func (s *OTelSpan) SetName(name string) {
	s.name = name
	s.span.SetName(name)
}

func (s *OTelSpan) SetTag(key string, value any) {
	s.tags[key] = value
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *OTelSpan) AddLog(fields map[string]any) {
	attrs := make([]attr.KeyValue, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		attrs = append(attrs, toAttribute(k, fields[k]))
	}
	s.span.AddEvent(logEventName, tr.WithAttributes(attrs...))
}

func (s *OTelSpan) SetError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *OTelSpan) Tags() map[string]any { return s.tags }

func (s *OTelSpan) TraceID() string {
	return s.span.SpanContext().TraceID().String()
}

func (s *OTelSpan) SpanID() string {
	return s.span.SpanContext().SpanID().String()
}

// End finishes the underlying span.
func (s *OTelSpan) End(opts ...tr.SpanEndOption) {
	s.span.End(opts...)
}

// Unwrap returns the OTel span, e.g. to build a context for propagation.
func (s *OTelSpan) Unwrap() tr.Span { return s.span }

func toAttribute(key string, value any) attr.KeyValue {
	switch v := value.(type) {
	case string:
		return attr.String(key, v)
	case bool:
		return attr.Bool(key, v)
	case int:
		return attr.Int(key, v)
	case int32:
		return attr.Int64(key, int64(v))
	case int64:
		return attr.Int64(key, v)
	case uint32:
		return attr.Int64(key, int64(v))
	case float32:
		return attr.Float64(key, float64(v))
	case float64:
		return attr.Float64(key, v)
	case []string:
		return attr.StringSlice(key, v)
	case error:
		return attr.String(key, v.Error())
	case fmt.Stringer:
		return attr.String(key, v.String())
	case nil:
		return attr.String(key, "")
	}
	if b, err := json.Marshal(value); err == nil {
		return attr.String(key, string(b))
	}
	return attr.String(key, fmt.Sprint(value))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
