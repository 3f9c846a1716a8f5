package tracer

import (
	"fmt"
	"strings"
)

// Recorder is an in-memory Span. It backs the simulate command and tests, and
// can mirror every write into another Span.
type Recorder struct {
	name    string
	tags    map[string]any
	logs    []map[string]any
	err     error
	traceID string
	spanID  string

	next Span
}

func NewRecorder(traceID, spanID string) *Recorder {
	return &Recorder{
		tags:    make(map[string]any),
		logs:    make([]map[string]any, 0),
		traceID: traceID,
		spanID:  spanID,
	}
}

// Mirror returns a Recorder which forwards every write to next and reads
// its ids from it.
func Mirror(next Span) *Recorder {
	rec := NewRecorder(next.TraceID(), next.SpanID())
	rec.next = next
	rec.name = next.Name()
	return rec
}

func (s *Recorder) Name() string { return s.name }

func (s *Recorder) SetName(name string) {
	s.name = name
	if s.next != nil {
		s.next.SetName(name)
	}
}

func (s *Recorder) SetTag(key string, value any) {
	s.tags[key] = value
	if s.next != nil {
		s.next.SetTag(key, value)
	}
}

func (s *Recorder) AddLog(fields map[string]any) {
	s.logs = append(s.logs, fields)
	if s.next != nil {
		s.next.AddLog(fields)
	}
}

func (s *Recorder) SetError(err error) {
	s.err = err
	if s.next != nil {
		s.next.SetError(err)
	}
}

func (s *Recorder) Tags() map[string]any { return s.tags }

func (s *Recorder) Logs() []map[string]any { return s.logs }

func (s *Recorder) Err() error { return s.err }

func (s *Recorder) TraceID() string { return s.traceID }

func (s *Recorder) SpanID() string { return s.spanID }

func (s *Recorder) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "span %q trace=%s span=%s\n", s.name, s.traceID, s.spanID)
	for _, k := range sortedKeys(s.tags) {
		fmt.Fprintf(&b, "  tag  %s = %v\n", k, s.tags[k])
	}
	for _, l := range s.logs {
		for _, k := range sortedKeys(l) {
			fmt.Fprintf(&b, "  log  %s = %v\n", k, l[k])
		}
	}
	if s.err != nil {
		fmt.Fprintf(&b, "  error %v\n", s.err)
	}
	return b.String()
}
