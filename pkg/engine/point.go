package engine

import (
	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
)

// Point drives one instrumented call through INIT, PRE and POST.
//
//	p := eng.NewPoint(variant, span, args)
//	p.Init()
//	p.Pre()
//	res, err := call()
//	p.Post(res, err)
//	p.Finish()
//
// Stages only move forward. A stage called again or after a later one is
// ignored; a skipped stage is not run.
type Point struct {
	engine   *Engine
	pc       *PointContext
	stage    schema.Stage
	finished bool
	reports  []StageReport
}

func (e *Engine) NewPoint(variant schema.Variant, span tracer.Span, args map[string]any, opts ...PointOption) *Point {
	return &Point{
		engine:  e,
		pc:      NewPointContext(variant, span, args, opts...),
		stage:   schema.StageUnknown,
		reports: make([]StageReport, 0, len(schema.Stages)),
	}
}

func (p *Point) Context() *PointContext { return p.pc }

func (p *Point) Reports() []StageReport { return p.reports }

// Failed returns every rule failure of the stages run so far.
func (p *Point) Failed() []*RuleError {
	ret := make([]*RuleError, 0)
	for _, rep := range p.reports {
		ret = append(ret, rep.Failed...)
	}
	return ret
}

func (p *Point) Init() StageReport { return p.run(schema.StageInit) }

func (p *Point) Pre() StageReport { return p.run(schema.StagePre) }

// Post records the outcome of the wrapped call, marks the span as failed
// when err != nil and runs the POST rules.
func (p *Point) Post(result any, err error) StageReport {
	if !p.finished && p.stage < schema.StagePost {
		p.setResult(result, err)
	}
	return p.run(schema.StagePost)
}

func (p *Point) setResult(result any, err error) {
	p.pc.SetResult(result, err)
	if err != nil && p.pc.Span != nil {
		p.pc.Span.SetError(err)
	}
}

// Finish commits the buffered TAGS and LOGS to the span. Call it once the
// wrapped call is over; later stage calls are ignored.
func (p *Point) Finish() {
	if p.finished {
		return
	}
	p.finished = true
	span := p.pc.Span
	if span == nil {
		return
	}
	for _, k := range sortedKeys(p.pc.Tags) {
		span.SetTag(k, p.pc.Tags[k])
	}
	for _, fields := range p.pc.Logs {
		span.AddLog(fields)
	}
}

func (p *Point) run(stage schema.Stage) StageReport {
	if p.finished || stage <= p.stage {
		logrus.WithFields(logrus.Fields{
			"point":   p.pc.ID,
			"variant": p.pc.Variant.String(),
			"stage":   stage.String(),
			"reached": p.stage.String(),
		}).Debug("tracuni ignored out of order stage")
		return StageReport{Stage: stage}
	}
	p.stage = stage
	rep := p.engine.RunStage(p.pc.Variant, stage, p.pc)
	p.reports = append(p.reports, rep)
	return rep
}
