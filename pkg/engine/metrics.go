package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stleox/tracuni/pkg/schema"
)

// Metrics counts rule executions. A nil *Metrics is valid and records nothing.
type Metrics struct {
	executed *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. reg may be nil
// to keep the collectors unregistered, e.g. in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracuni",
			Name:      "rules_executed_total",
			Help:      "Rules executed, by stage and destination section.",
		}, []string{"stage", "section"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracuni",
			Name:      "rules_failed_total",
			Help:      "Rules which failed at call time, by stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tracuni",
			Name:      "stage_duration_seconds",
			Help:      "Time spent running all rules of a stage.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"stage"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.executed, m.failed, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRule(rule schema.Rule, failed bool) {
	if m == nil {
		return
	}
	m.executed.WithLabelValues(rule.Stage.String(), rule.Destination.Section.String()).Inc()
	if failed {
		m.failed.WithLabelValues(rule.Stage.String()).Inc()
	}
}

func (m *Metrics) observeStage(stage schema.Stage, since time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage.String()).Observe(time.Since(since).Seconds())
}
