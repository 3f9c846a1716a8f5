package schema

import (
	"errors"
	"testing"

	r "github.com/stretchr/testify/require"
)

func identity(in any) any { return in }

func mockRule() Rule {
	return Rule{
		Description: "peer name",
		Stage:       StageInit,
		Destination: Destination{Section: DestReuse, Name: "peer_name"},
		Origins:     []Origin{{Section: OriginPointArgs, Getter: Field("host")}},
		Pipeline:    Steps(identity),
	}
}

func TestValidate(t *testing.T) {
	r.NoError(t, Validate(mockRule()))

	tests := []struct {
		name   string
		mutate func(rule *Rule)
		want   error
	}{
		{"no description", func(rule *Rule) { rule.Description = "" }, ErrInvalidRule},
		{"bad stage", func(rule *Rule) { rule.Stage = StageUnknown }, ErrInvalidRule},
		{"bad destination", func(rule *Rule) { rule.Destination.Section = DestUnknown }, ErrInvalidRule},
		{"unnamed tag", func(rule *Rule) { rule.Destination = Destination{Section: DestTags} }, ErrInvalidRule},
		{"reuse at post", func(rule *Rule) { rule.Stage = StagePost }, ErrInvalidRule},
		{"empty", func(rule *Rule) { rule.Origins, rule.Pipeline = nil, nil }, ErrEmptyOrigins},
		{"empty field", func(rule *Rule) { rule.Origins[0].Getter = Field("") }, ErrInvalidRule},
		{"nil getter", func(rule *Rule) { rule.Origins[0].Getter = nil }, ErrInvalidRule},
		{"nil extract", func(rule *Rule) { rule.Origins[0].Getter = Extract(nil) }, ErrInvalidRule},
		{"result before post", func(rule *Rule) { rule.Origins[0].Section = OriginPointResult }, ErrInvalidRule},
		{"nil transform", func(rule *Rule) { rule.Pipeline = []PipeStep{Transform(nil)} }, ErrInvalidRule},
		{"unnamed tee", func(rule *Rule) { rule.Pipeline = []PipeStep{Tee{Section: DestLogs}} }, ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := mockRule()
			rule.Origins = append([]Origin(nil), rule.Origins...)
			tt.mutate(&rule)
			err := Validate(rule)
			r.Error(t, err)
			r.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestValidate_ConstantProducer(t *testing.T) {
	rule := Rule{
		Description: "component",
		Stage:       StageInit,
		Destination: Destination{Section: DestSpanTags, Name: "component"},
		Pipeline:    Steps(func(any) any { return "tracuni" }),
	}
	r.NoError(t, Validate(rule))
}

func TestNewRuleSet(t *testing.T) {
	rule := mockRule()
	rs, err := NewRuleSet(rule, &rule)
	r.NoError(t, err)
	r.Len(t, rs, 2)

	_, err = NewRuleSet(rule, "peer name")
	r.ErrorIs(t, err, ErrNotRule)

	var nilRule *Rule
	_, err = NewRuleSet(nilRule)
	r.ErrorIs(t, err, ErrNotRule)
}

func TestValidateSet(t *testing.T) {
	bad := mockRule()
	bad.Description = ""
	err := ValidateSet(RuleSet{mockRule(), bad})
	r.ErrorIs(t, err, ErrInvalidRule)
	r.Contains(t, err.Error(), "rule #1")
}
