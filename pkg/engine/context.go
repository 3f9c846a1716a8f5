package engine

import (
	"runtime"

	"github.com/google/uuid"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
)

// ClientInfo is the CLIENT origin section: what is known about the wrapped
// client and the instrumented point.
type ClientInfo struct {
	Variant schema.Variant
	// Ref identifies the instrumented point, usually its qualified name.
	Ref     string
	Adapter any
	Engine  any
}

func (c ClientInfo) PointVariant() schema.Variant { return c.Variant }

// PointContext is the per-call state threaded through INIT, PRE and POST.
// It is owned by one call and must not be shared.
type PointContext struct {
	ID      string
	Variant schema.Variant

	Args     map[string]any
	PointRef string
	Adapter  any
	Engine   any
	Result   any
	Err      error
	Stack    schema.CallStack

	Reuse  map[string]any
	Span   tracer.Span
	Logs   []map[string]any
	Tags   map[string]any
	SpanID map[string]string

	// names already written per upsert section, used by KeepFirst
	written map[schema.DestinationSection]map[string]struct{}
}

type PointOption func(pc *PointContext)

func WithRef(ref string) PointOption {
	return func(pc *PointContext) { pc.PointRef = ref }
}

func WithAdapter(adapter any) PointOption {
	return func(pc *PointContext) { pc.Adapter = adapter }
}

func WithClient(client any) PointOption {
	return func(pc *PointContext) { pc.Engine = client }
}

// WithStack replaces the captured call stack.
func WithStack(stack schema.CallStack) PointOption {
	return func(pc *PointContext) { pc.Stack = stack }
}

// NewPointContext creates the context of one instrumented call. args may be
// nil; span may be nil, in which case span destinations fail per rule.
func NewPointContext(variant schema.Variant, span tracer.Span, args map[string]any, opts ...PointOption) *PointContext {
	if args == nil {
		args = make(map[string]any)
	}
	pc := &PointContext{
		ID:      uuid.NewString(),
		Variant: variant,
		Args:    args,
		Reuse:   make(map[string]any),
		Span:    span,
		Logs:    make([]map[string]any, 0),
		Tags:    make(map[string]any),
		SpanID:  make(map[string]string),
		written: make(map[schema.DestinationSection]map[string]struct{}),
	}
	if span != nil {
		pc.SpanID["trace_id"] = span.TraceID()
		pc.SpanID["span_id"] = span.SpanID()
	}
	pc.Stack = captureStack(3)
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

// SetResult records the outcome of the wrapped call, before POST.
func (pc *PointContext) SetResult(result any, err error) {
	pc.Result = result
	pc.Err = err
}

func (pc *PointContext) Client() ClientInfo {
	return ClientInfo{
		Variant: pc.Variant,
		Ref:     pc.PointRef,
		Adapter: pc.Adapter,
		Engine:  pc.Engine,
	}
}

// section returns the container behind an origin section.
func (pc *PointContext) section(s schema.OriginSection) (any, bool) {
	switch s {
	case schema.OriginClient:
		return pc.Client(), true
	case schema.OriginPointArgs:
		return pc.Args, true
	case schema.OriginPointResult:
		// 错误优先于结果
		if pc.Err != nil {
			return pc.Err, true
		}
		return pc.Result, true
	case schema.OriginCallStack:
		return pc.Stack, true
	case schema.OriginSpan:
		snap := tracer.Snapshot(pc.Span)
		for k, v := range pc.SpanID {
			snap[k] = v
		}
		return snap, true
	case schema.OriginReuse:
		return pc.Reuse, true
	}
	return nil, false
}

func (pc *PointContext) markWritten(d schema.Destination) bool {
	names, ok := pc.written[d.Section]
	if !ok {
		names = make(map[string]struct{})
		pc.written[d.Section] = names
	}
	_, seen := names[d.Name]
	names[d.Name] = struct{}{}
	return seen
}

const maxStackDepth = 32

func captureStack(skip int) schema.CallStack {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	stack := make(schema.CallStack, 0, n)
	for {
		f, more := frames.Next()
		stack = append(stack, schema.Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return stack
}
