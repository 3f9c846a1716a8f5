package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/tracuni/pkg/cmd/common"
	"github.com/stleox/tracuni/pkg/tracer"
)

var opts struct {
	side, api   string
	args        map[string]string
	argsJSON    string
	result, err string
}

func New(vp *viper.Viper) *cobra.Command {
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Run INIT, PRE and POST of a variant against a recorded span",
		Example: `  tracuni simulate --side OUT --api AMQP --args config.exchange=orders,routing_key=created
  tracuni simulate --side OUT --api DB --args-json '{"query":"SELECT * FROM users WHERE id = ?","args":[7]}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := common.ParseVariant(opts.side, opts.api)
			if err != nil {
				return err
			}
			args, err := pointArgs()
			if err != nil {
				return err
			}
			reg, _, err := common.NewRegistry(vp)
			if err != nil {
				return err
			}
			eng, err := common.NewEngine(reg, nil)
			if err != nil {
				return err
			}

			ctx := context.Background()
			tp, err := common.InitExporter(ctx, vp, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() {
				if err := tp.Shutdown(ctx); err != nil {
					logrus.Error(err)
				}
			}()
			_, otelSpan := tracer.Start(ctx, tp.Tracer("tracuni"), "simulate")
			span := tracer.Mirror(otelSpan)

			var callErr error
			if opts.err != "" {
				callErr = errors.New(opts.err)
			}
			var result any
			if opts.result != "" {
				result = decode(opts.result)
			}

			p := eng.NewPoint(v, span, args)
			p.Init()
			p.Pre()
			p.Post(result, callErr)
			p.Finish()
			otelSpan.End()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, span.String())
			if reuse := p.Context().Reuse; len(reuse) > 0 {
				b, _ := json.Marshal(reuse)
				fmt.Fprintf(out, "reuse: %s\n", b)
			}
			for _, rerr := range p.Failed() {
				fmt.Fprintf(out, "failed: %s\n", rerr)
			}
			return nil
		},
	}

	flags := simulate.Flags()
	flags.StringVar(&opts.side, "side", "OUT", "Span side: IN or OUT")
	flags.StringVar(&opts.api, "api", "HTTP", "API kind: HTTP, AMQP or DB")
	flags.StringToStringVar(&opts.args, "args", map[string]string{}, "Point arguments as key=value, dots nest keys")
	flags.StringVar(&opts.argsJSON, "args-json", "", "Point arguments as a JSON object, merged over --args")
	flags.StringVar(&opts.result, "result", "", "Result of the call, JSON or plain text")
	flags.StringVar(&opts.err, "error", "", "Error returned by the call")
	return simulate
}

func pointArgs() (map[string]any, error) {
	args := nest(opts.args)
	if opts.argsJSON == "" {
		return args, nil
	}
	extra := make(map[string]any)
	if err := json.Unmarshal([]byte(opts.argsJSON), &extra); err != nil {
		return nil, fmt.Errorf("decoding --args-json: %w", err)
	}
	for k, v := range extra {
		args[k] = v
	}
	return args, nil
}

// nest turns {"config.exchange": "orders"} into {"config": {"exchange": "orders"}}.
func nest(flat map[string]string) map[string]any {
	ret := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		cur := ret
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = decode(value)
	}
	return ret
}

// decode reads JSON values and keeps anything else as text.
func decode(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return v
}
