package engine

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/schema"
)

// Engine runs the rules of a Registry against point contexts. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	registry *Registry
	metrics  *Metrics
	journal  *Journal
	policy   WritePolicy
}

type Option func(e *Engine)

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithJournal(j *Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithTagPolicy decides how repeated writes to one tag name are resolved.
func WithTagPolicy(p WritePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		policy:   LastWriterWins,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) Journal() *Journal { return e.journal }

// StageReport sums up one RunStage call.
type StageReport struct {
	Stage    schema.Stage
	Executed int
	Failed   []*RuleError
}

func (rep StageReport) OK() bool { return len(rep.Failed) == 0 }

// RunStage runs, in selection order, every rule matching variant and firing
// at stage. A failing rule is logged and skipped; the following rules still
// run.
func (e *Engine) RunStage(variant schema.Variant, stage schema.Stage, pc *PointContext) StageReport {
	rep := StageReport{Stage: stage}
	if pc == nil {
		return rep
	}
	start := time.Now()
	defer e.metrics.observeStage(stage, start)

	for _, rule := range e.registry.SelectStage(variant, stage) {
		rerr := execute(rule, pc, e.policy)
		rep.Executed++
		e.metrics.observeRule(rule, rerr != nil)
		if rerr == nil {
			continue
		}
		rep.Failed = append(rep.Failed, rerr)
		logrus.WithFields(logrus.Fields{
			"rule":    rerr.Rule,
			"variant": variant.String(),
			"stage":   stage.String(),
			"point":   pc.ID,
		}).Warn(rerr.Short())
		e.journal.Record(pc.ID, rerr)
	}
	return rep
}
