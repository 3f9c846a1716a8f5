package engine

import (
	"errors"
	"fmt"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

var (
	ErrSealed         = errors.New("registry is sealed")
	ErrInvalidVariant = errors.New("invalid variant")
	ErrNoSpan         = errors.New("point has no span")
	ErrNoSection      = errors.New("unknown section")
)

// RuleError is the outcome of a rule that failed at call time. It never
// leaves the engine as a panic or a business error.
type RuleError struct {
	Rule    string
	Variant schema.Variant
	Stage   schema.Stage
	// Step is where the rule failed: "origin #i", "step #i" or "write".
	Step string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q (%s, %s) failed at %s: %v", e.Rule, e.Variant, e.Stage, e.Step, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// Short returns the error message bounded to config.MaxErrorLength.
func (e *RuleError) Short() string {
	msg := e.Err.Error()
	if len(msg) > config.MaxErrorLength {
		msg = msg[:config.MaxErrorLength] + config.CutMarker
	}
	return msg
}

// PanicError wraps a value recovered from a panicking getter or transform.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
