package rules

import (
	"errors"
	"fmt"
	"os"

	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/pipe"
	"github.com/stleox/tracuni/pkg/schema"
	"gopkg.in/yaml.v3"
)

var ErrUnknownPipe = errors.New("unknown pipe function")

// rule file layout
//
//	rulesets:
//	  - side: OUT
//	    api: AMQP
//	    rules:
//	      - description: routing key
//	        stage: INIT
//	        destination: {section: SPAN_TAGS, name: amqp.routing_key}
//	        origins:
//	          - {section: POINT_ARGS, field: routing_key}
//	        pipeline: [head, {tee: {section: LOGS, name: rk}}, upper]
type fileDoc struct {
	RuleSets []ruleSetDoc `yaml:"rulesets"`
}

type ruleSetDoc struct {
	Side  string    `yaml:"side"`
	API   string    `yaml:"api"`
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Description string      `yaml:"description"`
	Stage       string      `yaml:"stage"`
	Destination destDoc     `yaml:"destination"`
	Origins     []originDoc `yaml:"origins"`
	Pipeline    []stepDoc   `yaml:"pipeline"`
}

type destDoc struct {
	Section string `yaml:"section"`
	Name    string `yaml:"name"`
}

// originDoc reads field when set, runs the extract pipe otherwise, and
// hands over the whole section when both are empty.
type originDoc struct {
	Section string `yaml:"section"`
	Field   string `yaml:"field"`
	Extract string `yaml:"extract"`
}

// stepDoc is either a catalogue name or one of the mappings {tee: dest},
// {const: value} and {prefix: value}.
type stepDoc struct {
	Name   string
	Tee    *destDoc `yaml:"tee"`
	Const  any      `yaml:"const"`
	Prefix any      `yaml:"prefix"`
}

func (s *stepDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&s.Name)
	}
	type plain stepDoc
	return value.Decode((*plain)(s))
}

// Entry is one rule set of a file with its variant.
type Entry struct {
	Variant schema.Variant
	Rules   schema.RuleSet
}

// Parse decodes and validates a rule file.
func Parse(data []byte) ([]Entry, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding rule file: %w", err)
	}
	ret := make([]Entry, 0, len(doc.RuleSets))
	for i, rsd := range doc.RuleSets {
		e, err := rsd.build()
		if err != nil {
			return nil, fmt.Errorf("ruleset #%d: %w", i, err)
		}
		ret = append(ret, e)
	}
	return ret, nil
}

func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Register loads path into reg. Every rule set is validated before the
// first one is registered.
func Register(reg *engine.Registry, path string) ([]Entry, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := reg.Register(e.Variant, e.Rules); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return entries, nil
}

func (d ruleSetDoc) build() (Entry, error) {
	side, err := schema.ParseSpanSide(d.Side)
	if err != nil {
		return Entry{}, err
	}
	api, err := schema.ParseAPIKind(d.API)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Variant: schema.NewVariant(side, api),
		Rules:   make(schema.RuleSet, 0, len(d.Rules)),
	}
	for i, rd := range d.Rules {
		rule, err := rd.build()
		if err != nil {
			return Entry{}, fmt.Errorf("%s rule #%d: %w", e.Variant, i, err)
		}
		e.Rules = append(e.Rules, rule)
	}
	if err := schema.ValidateSet(e.Rules); err != nil {
		return Entry{}, fmt.Errorf("%s: %w", e.Variant, err)
	}
	return e, nil
}

func (d ruleDoc) build() (schema.Rule, error) {
	stage, err := schema.ParseStage(d.Stage)
	if err != nil {
		return schema.Rule{}, err
	}
	dest, err := d.Destination.build()
	if err != nil {
		return schema.Rule{}, err
	}
	rule := schema.Rule{
		Description: d.Description,
		Stage:       stage,
		Destination: dest,
		Origins:     make([]schema.Origin, 0, len(d.Origins)),
		Pipeline:    make([]schema.PipeStep, 0, len(d.Pipeline)),
	}
	for _, od := range d.Origins {
		o, err := od.build()
		if err != nil {
			return schema.Rule{}, err
		}
		rule.Origins = append(rule.Origins, o)
	}
	for _, sd := range d.Pipeline {
		step, err := sd.build()
		if err != nil {
			return schema.Rule{}, err
		}
		rule.Pipeline = append(rule.Pipeline, step)
	}
	return rule, nil
}

func (d destDoc) build() (schema.Destination, error) {
	section, err := schema.ParseDestinationSection(d.Section)
	if err != nil {
		return schema.Destination{}, err
	}
	return schema.Destination{Section: section, Name: d.Name}, nil
}

func (d originDoc) build() (schema.Origin, error) {
	section, err := schema.ParseOriginSection(d.Section)
	if err != nil {
		return schema.Origin{}, err
	}
	switch {
	case d.Field != "":
		return schema.Origin{Section: section, Getter: schema.Field(d.Field)}, nil
	case d.Extract != "":
		fn, ok := pipe.Lookup(d.Extract)
		if !ok {
			return schema.Origin{}, fmt.Errorf("%w: %q", ErrUnknownPipe, d.Extract)
		}
		return schema.Origin{Section: section, Getter: pipe.AsExtract(fn)}, nil
	}
	return schema.Origin{Section: section, Getter: Whole}, nil
}

func (d stepDoc) build() (schema.PipeStep, error) {
	switch {
	case d.Name != "":
		fn, ok := pipe.Lookup(d.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPipe, d.Name)
		}
		return schema.Transform(fn), nil
	case d.Tee != nil:
		dest, err := d.Tee.build()
		if err != nil {
			return nil, err
		}
		return schema.Tee(dest), nil
	case d.Const != nil:
		return schema.Transform(pipe.Const(d.Const)), nil
	case d.Prefix != nil:
		return schema.Transform(pipe.Prefix(d.Prefix)), nil
	}
	return nil, errors.New("empty pipeline step")
}
