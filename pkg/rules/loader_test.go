package rules

import (
	"errors"
	"testing"

	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"

	r "github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	entries, err := LoadFile("testdata/rules.yaml")
	r.NoError(t, err)
	r.Len(t, entries, 2)
	r.Equal(t, VariantOutAMQP, entries[0].Variant)
	r.Len(t, entries[0].Rules, 2)
	r.Equal(t, VariantAll, entries[1].Variant)

	tee := entries[0].Rules[1].Pipeline[1]
	r.Equal(t, schema.Tee{Section: schema.DestLogs, Name: "routing_key"}, tee)
}

func TestRegister(t *testing.T) {
	reg := engine.NewRegistry()
	_, err := Register(reg, "testdata/rules.yaml")
	r.NoError(t, err)
	eng := engine.New(reg.Seal())

	span := tracer.NewRecorder("t", "s")
	p := eng.NewPoint(VariantOutAMQP, span, map[string]any{
		"config":      map[string]any{"exchange": "orders"},
		"routing_key": "created",
	})
	p.Init()
	p.Pre()
	p.Post(nil, nil)
	p.Finish()

	r.Empty(t, p.Failed())
	r.Equal(t, "amqp::orders (created)", span.Name())
	r.Equal(t, "CREATED", span.Tags()["amqp.routing_key"])
	r.Equal(t, "amqp", span.Tags()["api.kind"])
	r.Equal(t, "tracuni", span.Tags()["component"])
	r.Equal(t, []map[string]any{{"routing_key": "created"}}, span.Logs())
}

func TestParse_Errors(t *testing.T) {
	uu := map[string]struct {
		doc string
		e   error
	}{
		"unknown pipe": {
			doc: `
rulesets:
  - side: IN
    api: HTTP
    rules:
      - description: x
        stage: INIT
        destination: {section: TAGS, name: x}
        pipeline: [nope]`,
			e: ErrUnknownPipe,
		},
		"unknown extract": {
			doc: `
rulesets:
  - side: IN
    api: HTTP
    rules:
      - description: x
        stage: INIT
        destination: {section: TAGS, name: x}
        origins: [{section: CLIENT, extract: nope}]`,
			e: ErrUnknownPipe,
		},
		"result before post": {
			doc: `
rulesets:
  - side: IN
    api: HTTP
    rules:
      - description: x
        stage: PRE
        destination: {section: TAGS, name: x}
        origins: [{section: POINT_RESULT}]`,
			e: schema.ErrInvalidRule,
		},
		"reuse at post": {
			doc: `
rulesets:
  - side: IN
    api: HTTP
    rules:
      - description: x
        stage: POST
        destination: {section: REUSE, name: x}
        origins: [{section: POINT_ARGS, field: a}]`,
			e: schema.ErrInvalidRule,
		},
		"empty rule": {
			doc: `
rulesets:
  - side: IN
    api: HTTP
    rules:
      - description: x
        stage: INIT
        destination: {section: TAGS, name: x}`,
			e: schema.ErrEmptyOrigins,
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			_, err := Parse([]byte(u.doc))
			r.Error(t, err)
			r.True(t, errors.Is(err, u.e), err.Error())
		})
	}
}

func TestParse_BadValues(t *testing.T) {
	for _, doc := range []string{
		`rulesets: [{side: SIDEWAYS, api: HTTP}]`,
		`rulesets: [{side: IN, api: SMTP}]`,
		`rulesets: [{side: IN, api: HTTP, rules: [{description: x, stage: LATER}]}]`,
		`rulesets: [{side: IN, api: HTTP, rules: [{description: x, stage: INIT, destination: {section: NOWHERE}}]}]`,
		`rulesets: [{side: IN, api: HTTP, rules: [{description: x, stage: INIT, destination: {section: TAGS, name: x}, pipeline: [{}]}]}]`,
		`rulesets: {`,
	} {
		_, err := Parse([]byte(doc))
		r.Error(t, err, doc)
	}
}

func TestRegister_Missing(t *testing.T) {
	_, err := Register(engine.NewRegistry(), "testdata/missing.yaml")
	r.Error(t, err)
}
