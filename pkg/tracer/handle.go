package tracer

// Span is the handle rules write into. Its life cycle (start, end, export)
// belongs to whoever created it.
type Span interface {
	Name() string
	SetName(name string)
	// SetTag upserts a tag.
	SetTag(key string, value any)
	// AddLog appends one structured log entry.
	AddLog(fields map[string]any)
	SetError(err error)
	Tags() map[string]any
	TraceID() string
	SpanID() string
}

// Snapshot is the read-only view of a span exposed to rule origins.
func Snapshot(span Span) map[string]any {
	if span == nil {
		return map[string]any{}
	}
	tags := make(map[string]any, len(span.Tags()))
	for k, v := range span.Tags() {
		tags[k] = v
	}
	return map[string]any{
		"name":     span.Name(),
		"trace_id": span.TraceID(),
		"span_id":  span.SpanID(),
		"tags":     tags,
	}
}
