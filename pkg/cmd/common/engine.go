package common

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/rules"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
)

// NewRegistry builds the sealed registry: the built-in rule sets unless
// disabled, then the rules file when one is configured.
func NewRegistry(vp *viper.Viper) (*engine.Registry, []rules.Entry, error) {
	reg := engine.NewRegistry()
	if vp.GetBool("builtin") {
		if err := rules.RegisterBuiltin(reg); err != nil {
			return nil, nil, err
		}
	}
	var entries []rules.Entry
	if path := vp.GetString("rules-file"); path != "" {
		var err error
		entries, err = rules.Register(reg, path)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("file", path).Infof("tracuni loaded %d rule sets", len(entries))
	}
	return reg.Seal(), entries, nil
}

// NewEngine wires the registry with a journal and, when promReg is not nil,
// with metrics.
func NewEngine(reg *engine.Registry, promReg prometheus.Registerer) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithJournal(engine.NewJournal(nil))}
	if promReg != nil {
		m, err := engine.NewMetrics(promReg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithMetrics(m))
	}
	return engine.New(reg, opts...), nil
}

func InitExporter(ctx context.Context, vp *viper.Viper, w io.Writer) (*sdktr.TracerProvider, error) {
	return tracer.Init(ctx, tracer.ExporterOptions{
		Kind:     vp.GetString("exporter"),
		Endpoint: vp.GetString("otlp-endpoint"),
		Insecure: vp.GetBool("otlp-insecure"),
		Writer:   w,
	})
}

func ParseVariant(side, api string) (schema.Variant, error) {
	s, err := schema.ParseSpanSide(side)
	if err != nil {
		return schema.Variant{}, err
	}
	a, err := schema.ParseAPIKind(api)
	if err != nil {
		return schema.Variant{}, err
	}
	v := schema.NewVariant(s, a)
	if !v.Valid() {
		return schema.Variant{}, fmt.Errorf("invalid variant %s", v)
	}
	return v, nil
}
