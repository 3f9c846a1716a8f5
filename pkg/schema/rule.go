package schema

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRule  = errors.New("invalid rule")
	ErrEmptyOrigins = errors.New("rule has no origins and no pipeline")
	ErrNotRule      = errors.New("rule set element is not a Rule")
)

// Getter resolves one value out of an origin section. It is either a Field
// looked up by name or an Extract applied to the whole section.
type Getter interface {
	getter()
}

// Field is a key or attribute name. Dots walk nested containers, e.g.
// "config.exchange".
type Field string

// Extract derives a value from the whole section payload.
type Extract func(section any) (any, error)

func (Field) getter()   {}
func (Extract) getter() {}

// Origin declares where a rule input comes from.
type Origin struct {
	Section OriginSection
	Getter  Getter
}

func (o Origin) String() string {
	switch g := o.Getter.(type) {
	case Field:
		return fmt.Sprintf("%s.%s", o.Section, string(g))
	case Extract:
		return fmt.Sprintf("%s(extract)", o.Section)
	}
	return o.Section.String()
}

// Destination declares where a rule output goes. Name is ignored for
// DestSpanName.
type Destination struct {
	Section DestinationSection
	Name    string
}

func (d Destination) String() string {
	if d.Section == DestSpanName {
		return d.Section.String()
	}
	return fmt.Sprintf("%s[%s]", d.Section, d.Name)
}

// Func is a pipeline transformation. The first Func of a pipeline receives
// the origin values as []any.
type Func func(in any) any

// PipeStep is one element of a rule pipeline: a Transform or a Tee.
type PipeStep interface {
	pipeStep()
}

// Transform replaces the current value with Fn(value).
type Transform Func

// Tee writes a copy of the current value to its destination and leaves the
// main chain untouched.
type Tee Destination

func (Transform) pipeStep() {}
func (Tee) pipeStep()       {}

// Steps wraps plain functions as transforms.
func Steps(fns ...Func) []PipeStep {
	ret := make([]PipeStep, 0, len(fns))
	for _, fn := range fns {
		ret = append(ret, Transform(fn))
	}
	return ret
}

type Rule struct {
	Description string
	Stage       Stage
	Destination Destination
	Origins     []Origin
	Pipeline    []PipeStep
}

func (r Rule) String() string {
	return fmt.Sprintf("%s [%s -> %s]", r.Description, r.Stage, r.Destination)
}

// RuleSet is the ordered list of rules registered for one variant.
type RuleSet []Rule

// NewRuleSet builds a RuleSet out of loosely typed elements, e.g. decoded
// from a rule file. Any element that is not a Rule or *Rule fails the whole
// set.
func NewRuleSet(elems ...any) (RuleSet, error) {
	rs := make(RuleSet, 0, len(elems))
	for i, elem := range elems {
		switch e := elem.(type) {
		case Rule:
			rs = append(rs, e)
		case *Rule:
			if e == nil {
				return nil, fmt.Errorf("element #%d is a nil rule: %w", i, ErrNotRule)
			}
			rs = append(rs, *e)
		default:
			return nil, fmt.Errorf("element #%d has type %T: %w", i, elem, ErrNotRule)
		}
	}
	return rs, nil
}

// Validate checks the shape of a single rule.
func Validate(r Rule) error {
	if r.Description == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidRule)
	}
	if !r.Stage.Valid() {
		return fmt.Errorf("%w: %q has %s", ErrInvalidRule, r.Description, r.Stage)
	}
	if err := validateDestination(r.Destination); err != nil {
		return fmt.Errorf("%w: %q %v", ErrInvalidRule, r.Description, err)
	}
	if !StageAllows(r.Stage, r.Destination.Section) {
		return fmt.Errorf("%w: %q can't write %s at %s", ErrInvalidRule, r.Description, r.Destination.Section, r.Stage)
	}
	if len(r.Origins) == 0 && len(r.Pipeline) == 0 {
		return fmt.Errorf("%q: %w", r.Description, ErrEmptyOrigins)
	}
	for i, o := range r.Origins {
		if !o.Section.Valid() {
			return fmt.Errorf("%w: %q origin #%d has %s", ErrInvalidRule, r.Description, i, o.Section)
		}
		if o.Section == OriginPointResult && r.Stage != StagePost {
			return fmt.Errorf("%w: %q reads POINT_RESULT before POST", ErrInvalidRule, r.Description)
		}
		switch g := o.Getter.(type) {
		case Field:
			if g == "" {
				return fmt.Errorf("%w: %q origin #%d has an empty field", ErrInvalidRule, r.Description, i)
			}
		case Extract:
			if g == nil {
				return fmt.Errorf("%w: %q origin #%d has a nil extractor", ErrInvalidRule, r.Description, i)
			}
		default:
			return fmt.Errorf("%w: %q origin #%d has no getter", ErrInvalidRule, r.Description, i)
		}
	}
	for i, step := range r.Pipeline {
		switch s := step.(type) {
		case Transform:
			if s == nil {
				return fmt.Errorf("%w: %q step #%d is a nil transform", ErrInvalidRule, r.Description, i)
			}
		case Tee:
			if err := validateDestination(Destination(s)); err != nil {
				return fmt.Errorf("%w: %q tee #%d %v", ErrInvalidRule, r.Description, i, err)
			}
			if !StageAllows(r.Stage, s.Section) {
				return fmt.Errorf("%w: %q tee #%d can't write %s at %s", ErrInvalidRule, r.Description, i, s.Section, r.Stage)
			}
		default:
			return fmt.Errorf("%w: %q step #%d has type %T", ErrInvalidRule, r.Description, i, step)
		}
	}
	return nil
}

// ValidateSet validates every rule of rs, stopping at the first error.
func ValidateSet(rs RuleSet) error {
	for i, r := range rs {
		if err := Validate(r); err != nil {
			return fmt.Errorf("rule #%d: %w", i, err)
		}
	}
	return nil
}

func validateDestination(d Destination) error {
	if !d.Section.Valid() {
		return fmt.Errorf("destination has %s", d.Section)
	}
	if d.Section != DestSpanName && d.Name == "" {
		return fmt.Errorf("destination %s has no name", d.Section)
	}
	return nil
}
