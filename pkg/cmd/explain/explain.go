package explain

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/tracuni/pkg/cmd/common"
	"github.com/stleox/tracuni/pkg/schema"
)

var opts struct {
	side, api, stage string
}

func New(vp *viper.Viper) *cobra.Command {
	explain := &cobra.Command{
		Use:   "explain",
		Short: "Print the rules run for a variant, in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := common.ParseVariant(opts.side, opts.api)
			if err != nil {
				return err
			}
			stage := schema.StageUnknown
			if opts.stage != "" {
				if stage, err = schema.ParseStage(opts.stage); err != nil {
					return err
				}
			}
			reg, _, err := common.NewRegistry(vp)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "#\tSTAGE\tRULE\tORIGINS\tSTEPS\tDESTINATION\n")
			for _, st := range schema.Stages {
				if stage != schema.StageUnknown && st != stage {
					continue
				}
				for i, rule := range reg.SelectStage(v, st) {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", i, st, rule.Description, origins(rule), len(rule.Pipeline), rule.Destination)
				}
			}
			return w.Flush()
		},
	}

	flags := explain.Flags()
	flags.StringVar(&opts.side, "side", "OUT", "Span side: IN or OUT")
	flags.StringVar(&opts.api, "api", "HTTP", "API kind: HTTP, AMQP or DB")
	flags.StringVar(&opts.stage, "stage", "", "Only this stage: INIT, PRE or POST")
	return explain
}

func origins(rule schema.Rule) string {
	if len(rule.Origins) == 0 {
		return "-"
	}
	parts := make([]string, len(rule.Origins))
	for i, o := range rule.Origins {
		parts[i] = o.String()
	}
	return strings.Join(parts, ",")
}
