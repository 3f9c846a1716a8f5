package engine

import (
	"fmt"

	"github.com/stleox/tracuni/pkg/schema"
)

// WritePolicy decides what happens when two rules of one point upsert the
// same name in SPAN_TAGS, TAGS or REUSE.
type WritePolicy int

const (
	// LastWriterWins lets the rule running later overwrite the value.
	LastWriterWins WritePolicy = iota
	// KeepFirst keeps the first value written. With the default precedence
	// this lets specific rule sets win over wildcard ones.
	KeepFirst
)

// Execute runs one rule against pc. Failures, including panics in getters
// and transforms, come back as a *RuleError and leave pc as the earlier
// writes made it.
func Execute(rule schema.Rule, pc *PointContext) *RuleError {
	return execute(rule, pc, LastWriterWins)
}

func execute(rule schema.Rule, pc *PointContext, policy WritePolicy) (rerr *RuleError) {
	step := "origin"
	defer func() {
		if p := recover(); p != nil {
			rerr = newRuleError(rule, pc, step, &PanicError{Value: p})
		}
	}()

	values := make([]any, len(rule.Origins))
	for i, origin := range rule.Origins {
		step = fmt.Sprintf("origin #%d", i)
		v, err := resolve(origin, pc)
		if err != nil {
			return newRuleError(rule, pc, step, err)
		}
		values[i] = v
	}

	var value any = values
	if len(rule.Pipeline) == 0 && len(values) == 1 {
		value = values[0]
	}
	for i, ps := range rule.Pipeline {
		step = fmt.Sprintf("step #%d", i)
		switch s := ps.(type) {
		case schema.Transform:
			value = s(value)
		case schema.Tee:
			if err := write(schema.Destination(s), value, pc, policy); err != nil {
				return newRuleError(rule, pc, step, err)
			}
		default:
			return newRuleError(rule, pc, step, fmt.Errorf("unknown pipe step %T", ps))
		}
	}

	step = "write"
	if err := write(rule.Destination, value, pc, policy); err != nil {
		return newRuleError(rule, pc, step, err)
	}
	return nil
}

func newRuleError(rule schema.Rule, pc *PointContext, step string, err error) *RuleError {
	return &RuleError{
		Rule:    rule.Description,
		Variant: pc.Variant,
		Stage:   rule.Stage,
		Step:    step,
		Err:     err,
	}
}

// resolve applies the origin getter to its section. A missing field is not
// an error, it resolves to nil.
func resolve(origin schema.Origin, pc *PointContext) (any, error) {
	container, ok := pc.section(origin.Section)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSection, origin.Section)
	}
	switch g := origin.Getter.(type) {
	case schema.Field:
		v, _ := lookupField(container, string(g))
		return v, nil
	case schema.Extract:
		return g(container)
	}
	return nil, fmt.Errorf("origin %s has no getter", origin)
}

// write stores value in d. nil values are skipped so a missing input
// doesn't blank a tag.
func write(d schema.Destination, value any, pc *PointContext, policy WritePolicy) error {
	if value == nil {
		return nil
	}
	switch d.Section {
	case schema.DestSpanName:
		if pc.Span == nil {
			return ErrNoSpan
		}
		pc.Span.SetName(fmt.Sprint(value))
	case schema.DestSpanTags:
		if pc.Span == nil {
			return ErrNoSpan
		}
		if pc.markWritten(d) && policy == KeepFirst {
			return nil
		}
		pc.Span.SetTag(d.Name, value)
	case schema.DestSpanLogs:
		if pc.Span == nil {
			return ErrNoSpan
		}
		pc.Span.AddLog(map[string]any{d.Name: value})
	case schema.DestTags:
		if pc.markWritten(d) && policy == KeepFirst {
			return nil
		}
		pc.Tags[d.Name] = value
	case schema.DestLogs:
		pc.Logs = append(pc.Logs, map[string]any{d.Name: value})
	case schema.DestReuse:
		// REUSE 总是覆盖，供后续阶段读取
		pc.Reuse[d.Name] = value
	default:
		return fmt.Errorf("%w: %s", ErrNoSection, d.Section)
	}
	return nil
}
